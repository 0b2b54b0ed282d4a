package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/techytcm/QR-CODE-GENARATOR/cmd"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/api"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/cleanup"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/config"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/services"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/workers"
)

// RunServerCmd represents the 'run-server' Cobra command. It wires the
// database, repositories, services, event workers, the expiration sweeper
// and the HTTP server, then blocks until a shutdown signal.
var RunServerCmd = &cobra.Command{
	Use:   "run-server",
	Short: "Starts the QR code API server and its background processes.",
	Long: `This command initializes the database, configures the API routes,
starts the asynchronous event workers and the expiration sweeper,
then launches the HTTP server.`,
	Run: func(cobraCmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig()
		if err != nil {
			log.Fatalf("Failed to load configuration: %v", err)
		}

		db, err := gorm.Open(sqlite.Open(cfg.Database.Name), &gorm.Config{})
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}

		if err := db.AutoMigrate(&models.QRCode{}, &models.AnalyticsEvent{}); err != nil {
			log.Fatalf("Failed to migrate database: %v", err)
		}

		qrRepo := repository.NewQRCodeRepository(db)
		eventRepo := repository.NewEventRepository(db)
		log.Println("Repositories initialized.")

		// Event channel + worker pool for asynchronous analytics persistence.
		// Disabled analytics means no channel and no workers at all.
		var eventChan chan models.EventJob
		if cfg.Analytics.Enabled {
			eventChan = make(chan models.EventJob, cfg.Analytics.BufferSize)
			workers.StartEventWorkers(cfg.Analytics.WorkerCount, eventChan, eventRepo, qrRepo)
			log.Printf("Event channel initialized with a buffer of %d. %d event worker(s) started.",
				cfg.Analytics.BufferSize, cfg.Analytics.WorkerCount)
		} else {
			log.Println("Analytics disabled: no event workers started.")
		}

		qrService := services.NewQRService(qrRepo, eventRepo, eventChan, services.QRServiceConfig{
			AnalyticsEnabled:      cfg.Analytics.Enabled,
			ShorteningEnabled:     cfg.Shortener.Enabled,
			ShortDomain:           cfg.Shortener.Domain,
			DefaultExpirationDays: cfg.QR.DefaultExpirationDays,
		})
		analyticsService := services.NewAnalyticsService(eventRepo, qrRepo, eventChan)
		log.Println("Business services initialized.")

		// Expiration sweeper: SQLite has no TTL, the periodic sweep alone
		// guarantees eventual deletion of expired codes
		sweepInterval := time.Duration(cfg.Cleanup.IntervalMinutes) * time.Minute
		sweeper := cleanup.NewSweeper(qrService, sweepInterval)
		go sweeper.Start()
		log.Printf("Expiration sweeper started with an interval of %v.", sweepInterval)

		router := gin.Default()
		api.SetupRoutes(router, qrService, analyticsService, cfg.Shortener.Domain)
		log.Println("API routes configured.")

		serverAddr := fmt.Sprintf(":%d", cfg.Server.Port)
		srv := &http.Server{
			Addr:    serverAddr,
			Handler: router,
		}

		go func() {
			log.Printf("Starting server on %s", serverAddr)
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatalf("Failed to start server: %v", err)
			}
		}()

		// Graceful shutdown: wait for SIGINT/SIGTERM, then drain the event
		// channel so queued analytics reach the database
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		log.Println("Shutdown signal received. Stopping server...")

		if eventChan != nil {
			close(eventChan)
		}
		log.Println("Shutting down... Giving workers a moment to finish.")
		time.Sleep(5 * time.Second)

		log.Println("Server stopped cleanly.")
	},
}

func init() {
	cmd.RootCmd.AddCommand(RunServerCmd)
}
