package cli

import (
	"fmt"
	"log"

	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/techytcm/QR-CODE-GENARATOR/cmd"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/config"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/services"
)

var daysFlag int

// StatsCmd represents the 'stats' command
var StatsCmd = &cobra.Command{
	Use:   "stats [qr-code-id]",
	Short: "Get statistics for a QR code",
	Long:  `Get scan counters and windowed event statistics for the given QR code id.`,
	Args:  cobra.ExactArgs(1),
	Run:   runStats,
}

func init() {
	StatsCmd.Flags().IntVar(&daysFlag, "days", 30, "Trailing window in days for event aggregates")
	cmd.RootCmd.AddCommand(StatsCmd)
}

func runStats(cobraCmd *cobra.Command, args []string) {
	qrCodeID := args[0]

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
	analyticsService := services.NewAnalyticsService(eventRepo, qrRepo, nil)

	stats, err := analyticsService.GetQRCodeStats(qrCodeID, daysFlag)
	if err != nil {
		log.Fatalf("Failed to retrieve stats: %v", err)
	}

	fmt.Printf("Statistics for QR code %s (last %d days):\n", stats.QRCodeID, daysFlag)
	fmt.Printf("Total scans: %d\n", stats.ScanCount)
	if stats.LastScanned != nil {
		fmt.Printf("Last scanned: %s\n", stats.LastScanned.Format("2006-01-02 15:04:05"))
	} else {
		fmt.Println("Last scanned: never")
	}
	if len(stats.EventStats) == 0 {
		fmt.Println("No events recorded in this window.")
		return
	}
	for eventType, count := range stats.EventStats {
		fmt.Printf("  %s: %d\n", eventType, count)
	}
}
