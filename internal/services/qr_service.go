// Package services contains the business logic layer for the QR code service
package services

import (
	"errors"
	"log"
	"time"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/privacy"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/qrgen"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
)

// Listing defaults shared by the API and CLI.
const (
	DefaultHistoryLimit = 20
	DefaultPopularLimit = 10
	recentEventsLimit   = 10
	maxShortIDRetries   = 5
)

// QRServiceConfig carries the feature flags and defaults the service needs.
// It is built once at startup and injected; nothing here is ambient state.
type QRServiceConfig struct {
	AnalyticsEnabled      bool
	ShorteningEnabled     bool
	ShortDomain           string
	DefaultExpirationDays int
}

// QRService provides business logic for the QR code lifecycle: generation,
// lookup, ranking, deletion and the expiration sweep. It coordinates the
// encoder adapter, the privacy utilities and both repositories.
type QRService struct {
	qrRepo    repository.QRCodeRepository
	eventRepo repository.EventRepository
	events    chan<- models.EventJob // nil means events are persisted synchronously
	cfg       QRServiceConfig
}

// NewQRService creates and returns a new QRService instance. A nil events
// channel disables asynchronous recording; events are then written inline,
// which is what the CLI and tests use.
func NewQRService(qrRepo repository.QRCodeRepository, eventRepo repository.EventRepository, events chan<- models.EventJob, cfg QRServiceConfig) *QRService {
	return &QRService{
		qrRepo:    qrRepo,
		eventRepo: eventRepo,
		events:    events,
		cfg:       cfg,
	}
}

// GenerateRequest holds the validated-or-defaulted fields of a generation
// request. Zero values mean "use the default"; the error correction level
// additionally falls back to the text-length recommendation.
type GenerateRequest struct {
	Text                 string
	Size                 int
	Color                string
	BackgroundColor      string
	Format               string
	ErrorCorrectionLevel string
	ExpirationDays       int
	ClientIP             string
	UserAgent            string
}

// GenerateAndStore validates the request, renders the QR image, and persists
// the resulting code. When analytics is enabled a generate event is recorded
// best-effort: a failure there never rolls back the stored code.
func (s *QRService) GenerateAndStore(req GenerateRequest) (*models.QRCode, error) {
	opts := qrgen.Options{
		Size:                 req.Size,
		Color:                req.Color,
		BackgroundColor:      req.BackgroundColor,
		Format:               req.Format,
		ErrorCorrectionLevel: req.ErrorCorrectionLevel,
	}
	opts.ApplyDefaults()

	// Explicit level wins; otherwise recommend one from the text length
	if opts.ErrorCorrectionLevel == "" {
		opts.ErrorCorrectionLevel = qrgen.RecommendErrorCorrection(req.Text)
	}

	if req.ExpirationDays < 0 {
		return nil, apperrors.NewValidationError("expiration_days", "expiration days must be positive")
	}

	// Render before touching storage; validation and encoder failures must
	// surface without side effects
	imageData, err := qrgen.Generate(req.Text, opts)
	if err != nil {
		return nil, err
	}

	qr := &models.QRCode{
		Text:                 req.Text,
		Size:                 opts.Size,
		Color:                opts.Color,
		BackgroundColor:      opts.BackgroundColor,
		Format:               opts.Format,
		ErrorCorrectionLevel: opts.ErrorCorrectionLevel,
		ImageData:            imageData,
		IPHash:               privacy.HashRequester(req.ClientIP),
		UserAgent:            req.UserAgent,
	}

	if s.cfg.ShorteningEnabled {
		shortID, err := s.mintShortID()
		if err != nil {
			return nil, err
		}
		qr.ShortID = &shortID
	}

	// Expiration: request value wins over the configured default; the
	// timestamp is always strictly in the future at creation time
	expirationDays := req.ExpirationDays
	if expirationDays == 0 {
		expirationDays = s.cfg.DefaultExpirationDays
	}
	if expirationDays > 0 {
		expiresAt := time.Now().AddDate(0, 0, expirationDays)
		qr.ExpiresAt = &expiresAt
	}

	if err := s.qrRepo.Create(qr); err != nil {
		return nil, err
	}

	if s.cfg.AnalyticsEnabled {
		s.recordEvent(models.EventJob{
			QRCodeID:  qr.ID,
			EventType: models.EventGenerate,
			UserAgent: req.UserAgent,
			IPHash:    qr.IPHash,
			Timestamp: time.Now(),
		})
	}

	return qr, nil
}

// mintShortID generates a short id that doesn't collide with any stored one,
// retrying a bounded number of times. The unique index on the column remains
// the second line of defense against a concurrent insert of the same id.
func (s *QRService) mintShortID() (string, error) {
	for i := 0; i < maxShortIDRetries; i++ {
		id, err := privacy.GenerateShortID()
		if err != nil {
			return "", err
		}

		_, err = s.qrRepo.GetByShortID(id)
		if errors.Is(err, apperrors.ErrQRCodeNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}

		// Collision detected, try again
		log.Printf("Short id '%s' already exists, retrying generation (%d/%d)...", id, i+1, maxShortIDRetries)
	}
	return "", apperrors.ErrShortIDGenerationFailed
}

// Get retrieves a QR code by its identifier.
func (s *QRService) Get(id string) (*models.QRCode, error) {
	return s.qrRepo.GetByID(id)
}

// ResolveShortID resolves a shortening token to its QR code.
func (s *QRService) ResolveShortID(shortID string) (*models.QRCode, error) {
	return s.qrRepo.GetByShortID(shortID)
}

// History returns one page of QR codes, newest first, with the total count.
func (s *QRService) History(page, limit int) ([]models.QRCodeSummary, int64, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.qrRepo.ListRecent(page, limit)
}

// Popular returns the most scanned QR codes.
func (s *QRService) Popular(limit int) ([]models.QRCodeSummary, error) {
	if limit <= 0 {
		limit = DefaultPopularLimit
	}
	return s.qrRepo.ListPopular(limit)
}

// Delete removes a QR code and cascades over its analytics events. The two
// steps are sequential, not atomic: orphaned events from a crash in between
// are tolerated by the aggregate queries.
func (s *QRService) Delete(id string) (*models.QRCode, error) {
	qr, err := s.qrRepo.Delete(id)
	if err != nil {
		return nil, err
	}
	removed, err := s.eventRepo.DeleteForQRCode(id)
	if err != nil {
		log.Printf("WARNING: failed to cascade event deletion for qr code %s: %v", id, err)
		return qr, nil
	}
	log.Printf("Deleted qr code %s along with %d event(s)", id, removed)
	return qr, nil
}

// QRStats merges a QR code's live counters with its event aggregates.
type QRStats struct {
	QRCode       *models.QRCode
	EventStats   map[string]int64
	RecentEvents []models.AnalyticsEvent
}

// Stats returns the merged statistics view for one QR code over a trailing
// window of days.
func (s *QRService) Stats(id string, windowDays int) (*QRStats, error) {
	qr, err := s.qrRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	eventStats, err := s.eventRepo.AggregateByType(&id, windowDays)
	if err != nil {
		return nil, err
	}

	recent, err := s.eventRepo.ListForQRCode(id, recentEventsLimit)
	if err != nil {
		return nil, err
	}

	return &QRStats{QRCode: qr, EventStats: eventStats, RecentEvents: recent}, nil
}

// SweepExpired removes every QR code past its expiration and their events,
// returning the number of codes removed. Idempotent: a second run with no
// intervening writes removes nothing.
func (s *QRService) SweepExpired(now time.Time) (int, error) {
	ids, err := s.qrRepo.SweepExpired(now)
	if err != nil {
		return 0, err
	}
	for _, id := range ids {
		if _, err := s.eventRepo.DeleteForQRCode(id); err != nil {
			// Orphaned events don't resolve to a live code on lookup, so a
			// failed cascade is logged and left for the next sweep's caller
			log.Printf("WARNING: failed to delete events for swept qr code %s: %v", id, err)
		}
	}
	return len(ids), nil
}

// recordEvent persists an analytics event, asynchronously through the worker
// channel when one is configured, inline otherwise. Either way the write is
// best-effort and never fails the operation it accompanies.
func (s *QRService) recordEvent(job models.EventJob) {
	recordEvent(s.events, s.eventRepo, job)
}

// recordEvent is the shared best-effort event sink for both services.
func recordEvent(events chan<- models.EventJob, eventRepo repository.EventRepository, job models.EventJob) {
	if events != nil {
		// Non-blocking send: a full buffer drops the event rather than
		// delaying the request it accompanies
		select {
		case events <- job:
		default:
			log.Printf("WARNING: event channel is full, dropping %s event for qr code %s", job.EventType, job.QRCodeID)
		}
		return
	}

	event := &models.AnalyticsEvent{
		QRCodeID:      job.QRCodeID,
		EventType:     job.EventType,
		UserAgent:     job.UserAgent,
		IPHash:        job.IPHash,
		Referrer:      job.Referrer,
		DeviceType:    job.DeviceType,
		DeviceOS:      job.DeviceOS,
		DeviceBrowser: job.DeviceBrowser,
		CreatedAt:     job.Timestamp,
	}
	if err := eventRepo.Create(event); err != nil {
		log.Printf("ERROR: %v", &apperrors.EventRecordingError{QRCodeID: job.QRCodeID, Reason: err.Error()})
	}
}
