package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
)

// QRCodeRepository is an interface defining data access methods for QR codes
type QRCodeRepository interface {
	Create(qr *models.QRCode) error
	GetByID(id string) (*models.QRCode, error)
	GetByShortID(shortID string) (*models.QRCode, error)
	ListRecent(page, limit int) ([]models.QRCodeSummary, int64, error)
	ListPopular(limit int) ([]models.QRCodeSummary, error)
	IncrementScan(id string) (*models.QRCode, error)
	Delete(id string) (*models.QRCode, error)
	SweepExpired(now time.Time) ([]string, error)
	Count() (int64, error)
}

// summaryColumns lists the projection used by listings. The image payload,
// hashed requester id and user agent never leave the store through a listing.
var summaryColumns = []string{
	"id", "text", "size", "color", "background_color", "format",
	"error_correction_level", "short_id", "scan_count", "last_scanned",
	"expires_at", "created_at",
}

// GormQRCodeRepository is the QRCodeRepository implementation using GORM.
type GormQRCodeRepository struct {
	db *gorm.DB
}

// NewQRCodeRepository creates and returns a new GormQRCodeRepository instance.
func NewQRCodeRepository(db *gorm.DB) *GormQRCodeRepository {
	return &GormQRCodeRepository{db: db}
}

// Create inserts a new QR code into the database. A duplicate short id is
// reported as a ValidationError so the caller can retry with a fresh id.
func (r *GormQRCodeRepository) Create(qr *models.QRCode) error {
	if err := r.db.Create(qr).Error; err != nil {
		if isUniqueViolation(err) {
			return apperrors.NewValidationError("short_id", "short id already in use")
		}
		return fmt.Errorf("failed to create qr code: %w", err)
	}
	return nil
}

// GetByID retrieves a QR code by its identifier.
func (r *GormQRCodeRepository) GetByID(id string) (*models.QRCode, error) {
	var qr models.QRCode
	if err := r.db.Where("id = ?", id).First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get qr code %s: %w", id, err)
	}
	return &qr, nil
}

// GetByShortID retrieves a QR code by its shortening token.
func (r *GormQRCodeRepository) GetByShortID(shortID string) (*models.QRCode, error) {
	var qr models.QRCode
	if err := r.db.Where("short_id = ?", shortID).First(&qr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrQRCodeNotFound
		}
		return nil, fmt.Errorf("failed to get qr code by short id %s: %w", shortID, err)
	}
	return &qr, nil
}

// ListRecent returns one page of QR codes ordered newest first, plus the
// total number of stored codes for pagination. Page numbers are 1-based.
func (r *GormQRCodeRepository) ListRecent(page, limit int) ([]models.QRCodeSummary, int64, error) {
	if page < 1 {
		page = 1
	}

	var total int64
	if err := r.db.Model(&models.QRCode{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count qr codes: %w", err)
	}

	var summaries []models.QRCodeSummary
	err := r.db.Model(&models.QRCode{}).
		Select(summaryColumns).
		Order("created_at DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&summaries).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list recent qr codes: %w", err)
	}
	return summaries, total, nil
}

// ListPopular returns QR codes ordered by scan count descending.
func (r *GormQRCodeRepository) ListPopular(limit int) ([]models.QRCodeSummary, error) {
	var summaries []models.QRCodeSummary
	err := r.db.Model(&models.QRCode{}).
		Select(summaryColumns).
		Order("scan_count DESC").
		Limit(limit).
		Find(&summaries).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list popular qr codes: %w", err)
	}
	return summaries, nil
}

// IncrementScan atomically increments the scan counter and stamps the last
// scan time in a single UPDATE, so two concurrent scans can never lose an
// update. Returns the updated record, or ErrQRCodeNotFound if the code was
// deleted or swept concurrently.
func (r *GormQRCodeRepository) IncrementScan(id string) (*models.QRCode, error) {
	now := time.Now()
	result := r.db.Model(&models.QRCode{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"scan_count":   gorm.Expr("scan_count + ?", 1),
			"last_scanned": now,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to increment scan count for %s: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, apperrors.ErrQRCodeNotFound
	}
	return r.GetByID(id)
}

// Delete removes a QR code and returns the deleted record. Cascading its
// analytics events is the caller's responsibility.
func (r *GormQRCodeRepository) Delete(id string) (*models.QRCode, error) {
	qr, err := r.GetByID(id)
	if err != nil {
		return nil, err
	}
	if err := r.db.Delete(&models.QRCode{}, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("failed to delete qr code %s: %w", id, err)
	}
	return qr, nil
}

// SweepExpired removes every QR code whose expiration timestamp has passed
// and returns their ids so the caller can cascade over their events.
// Safe to re-invoke on a schedule: already removed rows are simply absent.
func (r *GormQRCodeRepository) SweepExpired(now time.Time) ([]string, error) {
	var ids []string
	err := r.db.Model(&models.QRCode{}).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find expired qr codes: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if err := r.db.Delete(&models.QRCode{}, "id IN ?", ids).Error; err != nil {
		return nil, fmt.Errorf("failed to delete expired qr codes: %w", err)
	}
	return ids, nil
}

// Count returns the total number of stored QR codes.
func (r *GormQRCodeRepository) Count() (int64, error) {
	var count int64
	if err := r.db.Model(&models.QRCode{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count qr codes: %w", err)
	}
	return count, nil
}

// isUniqueViolation reports whether err is a unique-constraint failure.
// Checks both GORM's translated error and the raw SQLite message.
func isUniqueViolation(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}
