package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
)

func newTestEvent(qrCodeID, eventType string, createdAt time.Time) *models.AnalyticsEvent {
	return &models.AnalyticsEvent{
		QRCodeID:   qrCodeID,
		EventType:  eventType,
		UserAgent:  "test-agent",
		IPHash:     "cafe",
		DeviceType: "desktop",
		CreatedAt:  createdAt,
	}
}

func TestAggregateByTypeWindow(t *testing.T) {
	db := setupTestDB(t)
	qrRepo := NewQRCodeRepository(db)
	eventRepo := NewEventRepository(db)

	qr := newTestQRCode("windowed")
	require.NoError(t, qrRepo.Create(qr))

	now := time.Now()
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventScan, now)))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventScan, now.AddDate(0, 0, -31))))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventGenerate, now.AddDate(0, 0, -1))))

	// The 31-day-old scan falls outside a 30-day window
	stats, err := eventRepo.AggregateByType(&qr.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats[models.EventScan])
	assert.Equal(t, int64(1), stats[models.EventGenerate])

	// But inside a 60-day window
	stats, err = eventRepo.AggregateByType(&qr.ID, 60)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats[models.EventScan])
}

func TestAggregateByTypeOmitsAbsentTypes(t *testing.T) {
	db := setupTestDB(t)
	qrRepo := NewQRCodeRepository(db)
	eventRepo := NewEventRepository(db)

	qr := newTestQRCode("sparse")
	require.NoError(t, qrRepo.Create(qr))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventScan, time.Now())))

	stats, err := eventRepo.AggregateByType(&qr.ID, 30)
	require.NoError(t, err)

	// Absence means zero: types without occurrences have no key at all
	_, present := stats[models.EventDownload]
	assert.False(t, present)
	assert.Len(t, stats, 1)
}

func TestAggregateByTypeGlobal(t *testing.T) {
	db := setupTestDB(t)
	qrRepo := NewQRCodeRepository(db)
	eventRepo := NewEventRepository(db)

	first := newTestQRCode("first")
	second := newTestQRCode("second")
	require.NoError(t, qrRepo.Create(first))
	require.NoError(t, qrRepo.Create(second))

	now := time.Now()
	require.NoError(t, eventRepo.Create(newTestEvent(first.ID, models.EventScan, now)))
	require.NoError(t, eventRepo.Create(newTestEvent(second.ID, models.EventScan, now)))

	global, err := eventRepo.AggregateByType(nil, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(2), global[models.EventScan])

	scoped, err := eventRepo.AggregateByType(&first.ID, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), scoped[models.EventScan])
}

func TestDailyBreakdownAscendingDates(t *testing.T) {
	db := setupTestDB(t)
	qrRepo := NewQRCodeRepository(db)
	eventRepo := NewEventRepository(db)

	qr := newTestQRCode("daily")
	require.NoError(t, qrRepo.Create(qr))

	now := time.Now()
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventScan, now)))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventScan, now)))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventGenerate, now.AddDate(0, 0, -2))))

	stats, err := eventRepo.DailyBreakdown(7)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	// Ascending by calendar day: the older generate bucket comes first
	assert.Equal(t, models.EventGenerate, stats[0].EventType)
	assert.Equal(t, int64(1), stats[0].Count)
	assert.Equal(t, models.EventScan, stats[1].EventType)
	assert.Equal(t, int64(2), stats[1].Count)
	assert.Less(t, stats[0].Date, stats[1].Date)
}

func TestListForQRCodeNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	qrRepo := NewQRCodeRepository(db)
	eventRepo := NewEventRepository(db)

	qr := newTestQRCode("listed")
	require.NoError(t, qrRepo.Create(qr))

	now := time.Now()
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventGenerate, now.Add(-2*time.Hour))))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventScan, now.Add(-time.Hour))))
	require.NoError(t, eventRepo.Create(newTestEvent(qr.ID, models.EventDownload, now)))

	events, err := eventRepo.ListForQRCode(qr.ID, 2)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventDownload, events[0].EventType)
	assert.Equal(t, models.EventScan, events[1].EventType)
}

func TestDeleteForQRCode(t *testing.T) {
	db := setupTestDB(t)
	qrRepo := NewQRCodeRepository(db)
	eventRepo := NewEventRepository(db)

	kept := newTestQRCode("kept")
	doomed := newTestQRCode("doomed")
	require.NoError(t, qrRepo.Create(kept))
	require.NoError(t, qrRepo.Create(doomed))

	now := time.Now()
	require.NoError(t, eventRepo.Create(newTestEvent(doomed.ID, models.EventScan, now)))
	require.NoError(t, eventRepo.Create(newTestEvent(doomed.ID, models.EventCopy, now)))
	require.NoError(t, eventRepo.Create(newTestEvent(kept.ID, models.EventScan, now)))

	removed, err := eventRepo.DeleteForQRCode(doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	remaining, err := eventRepo.ListForQRCode(kept.ID, 10)
	require.NoError(t, err)
	assert.Len(t, remaining, 1)

	gone, err := eventRepo.ListForQRCode(doomed.ID, 10)
	require.NoError(t, err)
	assert.Empty(t, gone)
}
