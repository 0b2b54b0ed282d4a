package cli

import (
	"fmt"
	"log"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/techytcm/QR-CODE-GENARATOR/cmd"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/config"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/services"
)

// CleanupCmd represents the 'cleanup' command. It runs one expiration sweep
// and exits; the server runs the same sweep on a schedule.
var CleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Removes expired QR codes and their analytics events.",
	Long: `This command runs a single expiration sweep: every QR code whose
expiration timestamp has passed is deleted along with its events.
Safe to re-run; a second sweep with no intervening writes removes nothing.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		sqlDB, err := db.DB()
		if err != nil {
			log.Fatalf("FATAL: Failed to get underlying SQL database: %v", err)
		}
		defer sqlDB.Close()

		qrRepo := repository.NewQRCodeRepository(db)
		eventRepo := repository.NewEventRepository(db)
		qrService := services.NewQRService(qrRepo, eventRepo, nil, services.QRServiceConfig{})

		removed, err := qrService.SweepExpired(time.Now())
		if err != nil {
			log.Fatalf("Failed to sweep expired QR codes: %v", err)
		}

		fmt.Printf("Removed %d expired QR code(s).\n", removed)
	},
}

func init() {
	cmd.RootCmd.AddCommand(CleanupCmd)
}
