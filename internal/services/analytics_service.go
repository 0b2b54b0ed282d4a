package services

import (
	"time"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/privacy"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
)

// globalPopularLimit caps the popular list embedded in global statistics.
const globalPopularLimit = 5

// AnalyticsService provides business logic for event tracking and aggregate
// statistics. Events referencing a QR code that doesn't exist are rejected,
// never silently stored.
type AnalyticsService struct {
	eventRepo repository.EventRepository
	qrRepo    repository.QRCodeRepository
	events    chan<- models.EventJob // nil means events are persisted synchronously
}

// NewAnalyticsService creates and returns a new AnalyticsService instance.
func NewAnalyticsService(eventRepo repository.EventRepository, qrRepo repository.QRCodeRepository, events chan<- models.EventJob) *AnalyticsService {
	return &AnalyticsService{
		eventRepo: eventRepo,
		qrRepo:    qrRepo,
		events:    events,
	}
}

// TrackEvent records a user action against a QR code. The existence check
// and, for scans, the counter increment happen synchronously before the
// event itself is persisted best-effort.
func (s *AnalyticsService) TrackEvent(qrCodeID, eventType, referrer, requesterAddress, userAgent string) error {
	if !models.ValidEventType(eventType) {
		return apperrors.NewValidationError("event_type", "event type must be one of scan, generate, download, copy")
	}

	// Orphaned events are rejected up front
	if _, err := s.qrRepo.GetByID(qrCodeID); err != nil {
		return err
	}

	// A scan bumps the live counter on the code itself. The code may have
	// expired and been swept since the lookup above; that race surfaces as
	// not-found and the event is not recorded.
	if eventType == models.EventScan {
		if _, err := s.qrRepo.IncrementScan(qrCodeID); err != nil {
			return err
		}
	}

	device := privacy.ClassifyDevice(userAgent)
	recordEvent(s.events, s.eventRepo, models.EventJob{
		QRCodeID:      qrCodeID,
		EventType:     eventType,
		UserAgent:     userAgent,
		IPHash:        privacy.HashRequester(requesterAddress),
		Referrer:      referrer,
		DeviceType:    device.Type,
		DeviceOS:      device.OS,
		DeviceBrowser: device.Browser,
		Timestamp:     time.Now(),
	})

	return nil
}

// GlobalStats combines the service-wide aggregates for a trailing window:
// per-type event counts, the daily breakdown, the total number of stored
// codes and the most popular ones.
type GlobalStats struct {
	TotalQRCodes   int64
	EventStats     map[string]int64
	DailyBreakdown []models.DailyStat
	Popular        []models.QRCodeSummary
}

// GetGlobalStats returns the global statistics view over windowDays.
func (s *AnalyticsService) GetGlobalStats(windowDays int) (*GlobalStats, error) {
	eventStats, err := s.eventRepo.AggregateByType(nil, windowDays)
	if err != nil {
		return nil, err
	}

	daily, err := s.eventRepo.DailyBreakdown(windowDays)
	if err != nil {
		return nil, err
	}

	total, err := s.qrRepo.Count()
	if err != nil {
		return nil, err
	}

	popular, err := s.qrRepo.ListPopular(globalPopularLimit)
	if err != nil {
		return nil, err
	}

	return &GlobalStats{
		TotalQRCodes:   total,
		EventStats:     eventStats,
		DailyBreakdown: daily,
		Popular:        popular,
	}, nil
}

// QRCodeStats merges one code's live counters with its windowed aggregates.
type QRCodeStats struct {
	QRCodeID    string
	ScanCount   int64
	LastScanned *time.Time
	EventStats  map[string]int64
}

// GetQRCodeStats returns the statistics view for one QR code over windowDays.
func (s *AnalyticsService) GetQRCodeStats(qrCodeID string, windowDays int) (*QRCodeStats, error) {
	qr, err := s.qrRepo.GetByID(qrCodeID)
	if err != nil {
		return nil, err
	}

	eventStats, err := s.eventRepo.AggregateByType(&qrCodeID, windowDays)
	if err != nil {
		return nil, err
	}

	return &QRCodeStats{
		QRCodeID:    qr.ID,
		ScanCount:   qr.ScanCount,
		LastScanned: qr.LastScanned,
		EventStats:  eventStats,
	}, nil
}
