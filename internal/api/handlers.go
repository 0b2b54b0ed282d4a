package api

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/services"
)

// defaultStatsWindowDays is the trailing window used when a stats request
// doesn't specify one.
const defaultStatsWindowDays = 30

// SetupRoutes configures all Gin API routes and injects necessary dependencies.
// Parameters:
//   - router: Gin engine instance to configure routes on
//   - qrService: business logic service for the QR code lifecycle
//   - analyticsService: business logic service for event tracking and stats
//   - shortDomain: prefix used to build shortened URLs in responses
func SetupRoutes(router *gin.Engine, qrService *services.QRService, analyticsService *services.AnalyticsService, shortDomain string) {
	// Health check route used for monitoring service availability
	router.GET("/health", HealthCheckHandler)

	api := router.Group("/api")
	{
		qr := api.Group("/qr")
		{
			qr.POST("/generate", GenerateQRHandler(qrService, shortDomain))
			qr.GET("/history", HistoryHandler(qrService))
			qr.GET("/popular", PopularHandler(qrService))
			qr.GET("/:id", GetQRCodeHandler(qrService, shortDomain))
			qr.GET("/:id/stats", QRStatsHandler(qrService))
			qr.DELETE("/:id", DeleteQRHandler(qrService))
		}

		analytics := api.Group("/analytics")
		{
			analytics.POST("/track", TrackEventHandler(analyticsService))
			analytics.GET("/stats", GlobalStatsHandler(analyticsService))
			analytics.GET("/qr/:id", QRCodeStatsHandler(analyticsService))
		}
	}

	// Shortened URL resolution: counts a scan and forwards to the encoded
	// content when it is a URL
	router.GET("/s/:shortId", RedirectShortIDHandler(qrService, analyticsService))
}

// HealthCheckHandler handles the /health route to verify service status.
func HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GenerateQRRequest represents the JSON request body for generating a QR code.
// Optional fields fall back to the generation defaults; the error correction
// level additionally falls back to the text-length recommendation.
type GenerateQRRequest struct {
	Text                 string `json:"text" binding:"required"`
	Size                 int    `json:"size"`
	Color                string `json:"color"`
	BackgroundColor      string `json:"backgroundColor"`
	Format               string `json:"format"`
	ErrorCorrectionLevel string `json:"errorCorrectionLevel"`
	ExpirationDays       int    `json:"expirationDays"`
}

// GenerateQRHandler handles the creation of a new QR code.
// The request is validated, the image rendered, and the code persisted with
// a best-effort generate event.
func GenerateQRHandler(qrService *services.QRService, shortDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req GenerateQRRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body: " + err.Error()})
			return
		}

		qr, err := qrService.GenerateAndStore(services.GenerateRequest{
			Text:                 req.Text,
			Size:                 req.Size,
			Color:                req.Color,
			BackgroundColor:      req.BackgroundColor,
			Format:               req.Format,
			ErrorCorrectionLevel: req.ErrorCorrectionLevel,
			ExpirationDays:       req.ExpirationDays,
			ClientIP:             c.ClientIP(),
			UserAgent:            c.GetHeader("User-Agent"),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"success": true,
			"data": gin.H{
				"id":                     qr.ID,
				"image_data":             qr.ImageData,
				"short_url":              qr.ShortURL(shortDomain),
				"size":                   qr.Size,
				"color":                  qr.Color,
				"background_color":       qr.BackgroundColor,
				"format":                 qr.Format,
				"error_correction_level": qr.ErrorCorrectionLevel,
				"created_at":             qr.CreatedAt,
				"expires_at":             qr.ExpiresAt,
			},
		})
	}
}

// GetQRCodeHandler handles the retrieval of a single QR code, image included.
func GetQRCodeHandler(qrService *services.QRService, shortDomain string) gin.HandlerFunc {
	return func(c *gin.Context) {
		qr, err := qrService.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"id":                     qr.ID,
				"image_data":             qr.ImageData,
				"text":                   qr.Text,
				"size":                   qr.Size,
				"color":                  qr.Color,
				"background_color":       qr.BackgroundColor,
				"format":                 qr.Format,
				"error_correction_level": qr.ErrorCorrectionLevel,
				"scan_count":             qr.ScanCount,
				"short_url":              qr.ShortURL(shortDomain),
				"created_at":             qr.CreatedAt,
				"expires_at":             qr.ExpiresAt,
			},
		})
	}
}

// HistoryHandler handles the paginated listing of recent QR codes.
// Heavy and sensitive fields are excluded from the listing projection.
func HistoryHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", services.DefaultHistoryLimit)
		page := intQuery(c, "page", 1)

		summaries, total, err := qrService.History(page, limit)
		if err != nil {
			respondError(c, err)
			return
		}

		pages := total / int64(limit)
		if total%int64(limit) != 0 {
			pages++
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"qr_codes": summaries,
				"pagination": gin.H{
					"total": total,
					"page":  page,
					"limit": limit,
					"pages": pages,
				},
			},
		})
	}
}

// PopularHandler handles the ranked listing of the most scanned QR codes.
func PopularHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := intQuery(c, "limit", services.DefaultPopularLimit)

		summaries, err := qrService.Popular(limit)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"qr_codes": summaries}})
	}
}

// QRStatsHandler handles the merged statistics view for one QR code:
// live counters plus windowed event aggregates and the most recent events.
func QRStatsHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := intQuery(c, "days", defaultStatsWindowDays)

		stats, err := qrService.Stats(c.Param("id"), days)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"qr_code_id":    stats.QRCode.ID,
				"scan_count":    stats.QRCode.ScanCount,
				"last_scanned":  stats.QRCode.LastScanned,
				"created_at":    stats.QRCode.CreatedAt,
				"event_stats":   stats.EventStats,
				"recent_events": recentEventViews(stats.RecentEvents),
			},
		})
	}
}

// DeleteQRHandler handles QR code deletion, cascading over its events.
func DeleteQRHandler(qrService *services.QRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, err := qrService.Delete(c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "message": "QR code deleted successfully"})
	}
}

// TrackEventRequest represents the JSON request body for tracking an event.
type TrackEventRequest struct {
	QRCodeID  string `json:"qrCodeId" binding:"required"`
	EventType string `json:"eventType" binding:"required"`
	Referrer  string `json:"referrer"`
}

// TrackEventHandler handles the recording of an analytics event against an
// existing QR code. Scan events also bump the code's live counter.
func TrackEventHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TrackEventRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid request body: " + err.Error()})
			return
		}

		referrer := req.Referrer
		if referrer == "" {
			referrer = c.GetHeader("Referer")
		}

		err := analyticsService.TrackEvent(req.QRCodeID, req.EventType, referrer, c.ClientIP(), c.GetHeader("User-Agent"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{"success": true, "message": "Event tracked successfully"})
	}
}

// GlobalStatsHandler handles the service-wide statistics view.
func GlobalStatsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := intQuery(c, "days", defaultStatsWindowDays)

		stats, err := analyticsService.GetGlobalStats(days)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"period":           strconv.Itoa(days) + " days",
				"total_qr_codes":   stats.TotalQRCodes,
				"event_stats":      stats.EventStats,
				"daily_breakdown":  stats.DailyBreakdown,
				"popular_qr_codes": stats.Popular,
			},
		})
	}
}

// QRCodeStatsHandler handles the per-code statistics view of the analytics
// surface.
func QRCodeStatsHandler(analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		days := intQuery(c, "days", defaultStatsWindowDays)

		stats, err := analyticsService.GetQRCodeStats(c.Param("id"), days)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"data": gin.H{
				"qr_code_id":   stats.QRCodeID,
				"period":       strconv.Itoa(days) + " days",
				"scan_count":   stats.ScanCount,
				"last_scanned": stats.LastScanned,
				"event_stats":  stats.EventStats,
			},
		})
	}
}

// RedirectShortIDHandler resolves a shortening token, counts the scan, and
// forwards the visitor to the encoded content when it is a URL. Non-URL
// content is returned as JSON instead.
func RedirectShortIDHandler(qrService *services.QRService, analyticsService *services.AnalyticsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		qr, err := qrService.ResolveShortID(c.Param("shortId"))
		if err != nil {
			respondError(c, err)
			return
		}

		// Best-effort scan tracking must never block the redirect
		if err := analyticsService.TrackEvent(qr.ID, models.EventScan, c.GetHeader("Referer"), c.ClientIP(), c.GetHeader("User-Agent")); err != nil {
			log.Printf("WARNING: failed to track scan for short id %s: %v", c.Param("shortId"), err)
		}

		if strings.HasPrefix(qr.Text, "http://") || strings.HasPrefix(qr.Text, "https://") {
			c.Redirect(http.StatusFound, qr.Text)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "data": gin.H{"text": qr.Text}})
	}
}

// recentEventViews strips the sensitive columns from events before they are
// exposed in a stats response.
func recentEventViews(events []models.AnalyticsEvent) []gin.H {
	views := make([]gin.H, 0, len(events))
	for _, e := range events {
		views = append(views, gin.H{
			"event_type": e.EventType,
			"device": gin.H{
				"type":    e.DeviceType,
				"os":      e.DeviceOS,
				"browser": e.DeviceBrowser,
			},
			"created_at": e.CreatedAt,
		})
	}
	return views
}

// intQuery parses an integer query parameter, falling back to def when the
// parameter is absent or malformed.
func intQuery(c *gin.Context, name string, def int) int {
	raw := c.Query(name)
	if raw == "" {
		return def
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return def
	}
	return value
}

// isTimeout reports whether err is a timeout from an external dependency,
// kept distinct so callers can decide whether to retry.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// respondError maps a service error onto the HTTP surface. Validation and
// encoding failures are user-correctable (400), missing codes are 404,
// quota signals 429, unreachable dependencies 503. Anything unexpected is a
// 500 with a generic message; details are logged, never exposed.
func respondError(c *gin.Context, err error) {
	var validationErr *apperrors.ValidationError
	var encodingErr *apperrors.EncodingError

	switch {
	case errors.As(err, &validationErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": validationErr.Error(),
			"details": validationErr.Fields,
		})
	case errors.As(err, &encodingErr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": encodingErr.Error()})
	case errors.Is(err, apperrors.ErrQRCodeNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "QR code not found"})
	case errors.Is(err, apperrors.ErrQuotaExceeded):
		c.JSON(http.StatusTooManyRequests, gin.H{"success": false, "message": "Too many requests. Please try again later."})
	case errors.Is(err, apperrors.ErrUnavailable), isTimeout(err):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Service temporarily unavailable. Please try again later."})
	case errors.Is(err, apperrors.ErrShortIDGenerationFailed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "message": "Unable to generate unique short id. Please try again later."})
	default:
		log.Printf("ERROR: unexpected error handling %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong"})
	}
}
