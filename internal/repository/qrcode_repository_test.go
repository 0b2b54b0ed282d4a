package repository

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
)

// setupTestDB opens an in-memory SQLite database, limited to one connection
// so every query sees the same memory database and writes serialize.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&models.QRCode{}, &models.AnalyticsEvent{}))
	return db
}

func newTestQRCode(text string) *models.QRCode {
	return &models.QRCode{
		Text:                 text,
		Size:                 300,
		Color:                "#000000",
		BackgroundColor:      "#ffffff",
		Format:               "png",
		ErrorCorrectionLevel: "H",
		ImageData:            "data:image/png;base64,TEST",
		IPHash:               "cafe",
		UserAgent:            "test-agent",
	}
}

func TestCreateAssignsID(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	qr := newTestQRCode("hello")
	require.NoError(t, repo.Create(qr))
	assert.NotEmpty(t, qr.ID)

	stored, err := repo.GetByID(qr.ID)
	require.NoError(t, err)
	assert.Equal(t, "hello", stored.Text)
	assert.Equal(t, int64(0), stored.ScanCount)
	assert.Nil(t, stored.LastScanned)
}

func TestGetByIDNotFound(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	_, err := repo.GetByID("missing")
	assert.ErrorIs(t, err, apperrors.ErrQRCodeNotFound)
}

func TestCreateDuplicateShortID(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	shortID := "dupid123"
	first := newTestQRCode("first")
	first.ShortID = &shortID
	require.NoError(t, repo.Create(first))

	second := newTestQRCode("second")
	second.ShortID = &shortID
	err := repo.Create(second)

	var validationErr *apperrors.ValidationError
	require.ErrorAs(t, err, &validationErr)
}

func TestNilShortIDsDoNotCollide(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	require.NoError(t, repo.Create(newTestQRCode("one")))
	require.NoError(t, repo.Create(newTestQRCode("two")))
}

func TestGetByShortID(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	shortID := "abc12345"
	qr := newTestQRCode("shortened")
	qr.ShortID = &shortID
	require.NoError(t, repo.Create(qr))

	found, err := repo.GetByShortID(shortID)
	require.NoError(t, err)
	assert.Equal(t, qr.ID, found.ID)

	_, err = repo.GetByShortID("missing1")
	assert.ErrorIs(t, err, apperrors.ErrQRCodeNotFound)
}

func TestListRecentNewestFirstWithPagination(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQRCodeRepository(db)

	for i := 0; i < 5; i++ {
		qr := newTestQRCode(fmt.Sprintf("text-%d", i))
		require.NoError(t, repo.Create(qr))
		// Spread creation times so ordering is deterministic
		createdAt := time.Now().Add(time.Duration(i-5) * time.Hour)
		require.NoError(t, db.Model(qr).Update("created_at", createdAt).Error)
	}

	page1, total, err := repo.ListRecent(1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	require.Len(t, page1, 2)
	assert.Equal(t, "text-4", page1[0].Text)
	assert.Equal(t, "text-3", page1[1].Text)

	page3, _, err := repo.ListRecent(3, 2)
	require.NoError(t, err)
	require.Len(t, page3, 1)
	assert.Equal(t, "text-0", page3[0].Text)
}

func TestListPopularOrdersByScanCount(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQRCodeRepository(db)

	counts := []int64{3, 10, 1}
	for i, count := range counts {
		qr := newTestQRCode(fmt.Sprintf("text-%d", i))
		require.NoError(t, repo.Create(qr))
		require.NoError(t, db.Model(qr).Update("scan_count", count).Error)
	}

	popular, err := repo.ListPopular(2)
	require.NoError(t, err)
	require.Len(t, popular, 2)
	assert.Equal(t, int64(10), popular[0].ScanCount)
	assert.Equal(t, int64(3), popular[1].ScanCount)
}

func TestIncrementScan(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	qr := newTestQRCode("scan me")
	require.NoError(t, repo.Create(qr))

	updated, err := repo.IncrementScan(qr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), updated.ScanCount)
	require.NotNil(t, updated.LastScanned)
}

func TestIncrementScanMissingCode(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	_, err := repo.IncrementScan("missing")
	assert.ErrorIs(t, err, apperrors.ErrQRCodeNotFound)
}

func TestIncrementScanConcurrent(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	qr := newTestQRCode("concurrent")
	require.NoError(t, repo.Create(qr))

	const scans = 20
	var wg sync.WaitGroup
	for i := 0; i < scans; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.IncrementScan(qr.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := repo.GetByID(qr.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(scans), final.ScanCount)
}

func TestDeleteReturnsDeletedRecord(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	qr := newTestQRCode("doomed")
	require.NoError(t, repo.Create(qr))

	deleted, err := repo.Delete(qr.ID)
	require.NoError(t, err)
	assert.Equal(t, qr.ID, deleted.ID)

	_, err = repo.GetByID(qr.ID)
	assert.ErrorIs(t, err, apperrors.ErrQRCodeNotFound)

	_, err = repo.Delete(qr.ID)
	assert.ErrorIs(t, err, apperrors.ErrQRCodeNotFound)
}

func TestSweepExpiredIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQRCodeRepository(db)

	expired := newTestQRCode("expired")
	past := time.Now().Add(-time.Hour)
	expired.ExpiresAt = &past
	require.NoError(t, repo.Create(expired))

	active := newTestQRCode("active")
	future := time.Now().Add(24 * time.Hour)
	active.ExpiresAt = &future
	require.NoError(t, repo.Create(active))

	permanent := newTestQRCode("permanent")
	require.NoError(t, repo.Create(permanent))

	removed, err := repo.SweepExpired(time.Now())
	require.NoError(t, err)
	assert.Equal(t, []string{expired.ID}, removed)

	// Second sweep with no intervening writes removes nothing
	removed, err = repo.SweepExpired(time.Now())
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = repo.GetByID(expired.ID)
	assert.ErrorIs(t, err, apperrors.ErrQRCodeNotFound)
	_, err = repo.GetByID(active.ID)
	assert.NoError(t, err)
}

func TestCount(t *testing.T) {
	repo := NewQRCodeRepository(setupTestDB(t))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	require.NoError(t, repo.Create(newTestQRCode("one")))
	require.NoError(t, repo.Create(newTestQRCode("two")))

	count, err = repo.Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}
