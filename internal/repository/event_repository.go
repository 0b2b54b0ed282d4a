package repository

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
)

// EventRepository is an interface defining data access methods for analytics events
type EventRepository interface {
	Create(event *models.AnalyticsEvent) error
	AggregateByType(qrCodeID *string, windowDays int) (map[string]int64, error)
	DailyBreakdown(windowDays int) ([]models.DailyStat, error)
	ListForQRCode(qrCodeID string, limit int) ([]models.AnalyticsEvent, error)
	DeleteForQRCode(qrCodeID string) (int64, error)
}

// GormEventRepository is the EventRepository implementation using GORM.
type GormEventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates and returns a new GormEventRepository instance.
func NewEventRepository(db *gorm.DB) *GormEventRepository {
	return &GormEventRepository{db: db}
}

// Create inserts a new analytics event record into the database.
func (r *GormEventRepository) Create(event *models.AnalyticsEvent) error {
	if err := r.db.Create(event).Error; err != nil {
		return fmt.Errorf("failed to create analytics event: %w", err)
	}
	return nil
}

// AggregateByType counts events per event type inside the trailing window.
// A nil qrCodeID aggregates globally across all QR codes. Event types with
// zero occurrences are absent from the map; callers treat absence as zero.
func (r *GormEventRepository) AggregateByType(qrCodeID *string, windowDays int) (map[string]int64, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	query := r.db.Model(&models.AnalyticsEvent{}).
		Select("event_type, COUNT(*) AS count").
		Where("created_at >= ?", cutoff)
	if qrCodeID != nil {
		query = query.Where("qr_code_id = ?", *qrCodeID)
	}

	var rows []struct {
		EventType string
		Count     int64
	}
	if err := query.Group("event_type").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to aggregate events by type: %w", err)
	}

	stats := make(map[string]int64, len(rows))
	for _, row := range rows {
		stats[row.EventType] = row.Count
	}
	return stats, nil
}

// DailyBreakdown groups events inside the window by UTC calendar day and
// event type, ascending by date. SQLite's date() normalizes stored offsets
// to UTC, which keeps bucket boundaries independent of the event's original
// timezone context.
func (r *GormEventRepository) DailyBreakdown(windowDays int) ([]models.DailyStat, error) {
	cutoff := time.Now().AddDate(0, 0, -windowDays)

	var stats []models.DailyStat
	err := r.db.Model(&models.AnalyticsEvent{}).
		Select("date(created_at) AS date, event_type, COUNT(*) AS count").
		Where("created_at >= ?", cutoff).
		Group("date(created_at), event_type").
		Order("date(created_at) ASC").
		Scan(&stats).Error
	if err != nil {
		return nil, fmt.Errorf("failed to compute daily breakdown: %w", err)
	}
	return stats, nil
}

// ListForQRCode returns the most recent events for a QR code, newest first.
func (r *GormEventRepository) ListForQRCode(qrCodeID string, limit int) ([]models.AnalyticsEvent, error) {
	var events []models.AnalyticsEvent
	err := r.db.Where("qr_code_id = ?", qrCodeID).
		Order("created_at DESC").
		Limit(limit).
		Find(&events).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list events for qr code %s: %w", qrCodeID, err)
	}
	return events, nil
}

// DeleteForQRCode removes every event owned by a QR code and returns the
// number removed. Invoked by the orchestrator as the cascade half of a QR
// code deletion.
func (r *GormEventRepository) DeleteForQRCode(qrCodeID string) (int64, error) {
	result := r.db.Delete(&models.AnalyticsEvent{}, "qr_code_id = ?", qrCodeID)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete events for qr code %s: %w", qrCodeID, result.Error)
	}
	return result.RowsAffected, nil
}
