package main

import (
	"github.com/techytcm/QR-CODE-GENARATOR/cmd"
	_ "github.com/techytcm/QR-CODE-GENARATOR/cmd/cli"
	_ "github.com/techytcm/QR-CODE-GENARATOR/cmd/server"
)

func main() {
	cmd.Execute()
}
