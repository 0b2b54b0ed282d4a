package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// QRCode represents a generated QR code stored in the database.
// The rendered image payload is kept alongside the generation parameters so
// the code can be served again without re-encoding.
type QRCode struct {
	// ID is an opaque unique identifier assigned at creation, never reused.
	ID string `gorm:"primaryKey;size:36"`

	// Text is the original content encoded in the QR code (max 2000 chars).
	Text string `gorm:"size:2000;not null"`

	// Size is the rendered width/height in pixels (200-2000).
	Size int `gorm:"not null;default:300"`

	// Color and BackgroundColor are hex RGB strings like #000000.
	Color           string `gorm:"size:7;not null;default:'#000000'"`
	BackgroundColor string `gorm:"size:7;not null;default:'#ffffff'"`

	// Format is one of png, svg or dataURL.
	Format string `gorm:"size:10;not null;default:'png'"`

	// ErrorCorrectionLevel is the QR redundancy tier: L, M, Q or H.
	ErrorCorrectionLevel string `gorm:"size:1;not null;default:'H'"`

	// ImageData holds the rendered payload (base64 data URL or SVG string).
	// Immutable once created.
	ImageData string `gorm:"not null"`

	// ShortID is the optional link-shortening token.
	// A pointer so the unique index stays sparse: rows without a short id
	// store NULL, which SQLite does not count against uniqueness.
	ShortID *string `gorm:"uniqueIndex;size:16"`

	// ScanCount is incremented atomically on every scan event.
	ScanCount int64 `gorm:"not null;default:0"`

	// LastScanned is nil until the first scan is recorded.
	LastScanned *time.Time

	// IPHash stores a one-way hash of the requester address.
	// The raw address is never persisted.
	IPHash string `gorm:"size:64"`

	// UserAgent stores the client information from the generation request.
	UserAgent string `gorm:"size:255"`

	// ExpiresAt is nil for permanent codes. Expired rows are removed by the
	// periodic sweep; SQLite has no native TTL so the sweep is authoritative.
	ExpiresAt *time.Time `gorm:"index"`

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// BeforeCreate assigns the opaque identifier when none was provided.
func (q *QRCode) BeforeCreate(tx *gorm.DB) error {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	return nil
}

// ShortURL builds the full shortened URL for the code, or "" when shortening
// is disabled for this record.
func (q *QRCode) ShortURL(domain string) string {
	if q.ShortID == nil || domain == "" {
		return ""
	}
	return domain + *q.ShortID
}

// QRCodeSummary is the listing projection of a QRCode. Heavy and sensitive
// columns (image payload, hashed requester id, user agent) are excluded.
type QRCodeSummary struct {
	ID                   string     `json:"id"`
	Text                 string     `json:"text"`
	Size                 int        `json:"size"`
	Color                string     `json:"color"`
	BackgroundColor      string     `json:"background_color"`
	Format               string     `json:"format"`
	ErrorCorrectionLevel string     `json:"error_correction_level"`
	ShortID              *string    `json:"short_id,omitempty"`
	ScanCount            int64      `json:"scan_count"`
	LastScanned          *time.Time `json:"last_scanned"`
	ExpiresAt            *time.Time `json:"expires_at"`
	CreatedAt            time.Time  `json:"created_at"`
}
