package cli

import (
	"fmt"
	"log"
	"os"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/techytcm/QR-CODE-GENARATOR/cmd"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/config"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/services"
)

var (
	textFlag       string
	sizeFlag       int
	colorFlag      string
	backgroundFlag string
	formatFlag     string
	levelFlag      string
	expiresFlag    int
)

// GenerateCmd represents the 'generate' command
var GenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generates a QR code from the given text.",
	Long: `This command renders a QR code for the provided text, stores it in the
database, and prints its identifier.

Example:
  qrservice generate --text="https://example.com" --size=300 --format=png`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		if textFlag == "" {
			fmt.Println("Error: --text flag is required")
			os.Exit(1)
		}

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

		// No event channel: the CLI records the generate event inline
		qrService := services.NewQRService(qrRepo, eventRepo, nil, services.QRServiceConfig{
			AnalyticsEnabled:      cfg.Analytics.Enabled,
			ShorteningEnabled:     cfg.Shortener.Enabled,
			ShortDomain:           cfg.Shortener.Domain,
			DefaultExpirationDays: cfg.QR.DefaultExpirationDays,
		})

		qr, err := qrService.GenerateAndStore(services.GenerateRequest{
			Text:                 textFlag,
			Size:                 sizeFlag,
			Color:                colorFlag,
			BackgroundColor:      backgroundFlag,
			Format:               formatFlag,
			ErrorCorrectionLevel: levelFlag,
			ExpirationDays:       expiresFlag,
		})
		if err != nil {
			log.Fatalf("Failed to generate QR code: %v", err)
		}

		fmt.Printf("QR code created successfully:\n")
		fmt.Printf("ID: %s\n", qr.ID)
		fmt.Printf("Format: %s, Size: %dpx, Error correction: %s\n", qr.Format, qr.Size, qr.ErrorCorrectionLevel)
		if shortURL := qr.ShortURL(cfg.Shortener.Domain); shortURL != "" {
			fmt.Printf("Short URL: %s\n", shortURL)
		}
		if qr.ExpiresAt != nil {
			fmt.Printf("Expires at: %s\n", qr.ExpiresAt.Format("2006-01-02 15:04:05"))
		}
	},
}

func init() {
	GenerateCmd.Flags().StringVar(&textFlag, "text", "", "The text to encode in the QR code")
	GenerateCmd.Flags().IntVar(&sizeFlag, "size", 0, "Image size in pixels (200-2000)")
	GenerateCmd.Flags().StringVar(&colorFlag, "color", "", "Foreground color as #RRGGBB")
	GenerateCmd.Flags().StringVar(&backgroundFlag, "background", "", "Background color as #RRGGBB")
	GenerateCmd.Flags().StringVar(&formatFlag, "format", "", "Output format: png, svg or dataURL")
	GenerateCmd.Flags().StringVar(&levelFlag, "level", "", "Error correction level: L, M, Q or H")
	GenerateCmd.Flags().IntVar(&expiresFlag, "expires", 0, "Expiration in days (0 = use configured default)")

	GenerateCmd.MarkFlagRequired("text")

	cmd.RootCmd.AddCommand(GenerateCmd)
}
