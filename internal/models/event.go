package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Valid analytics event types.
const (
	EventScan     = "scan"
	EventGenerate = "generate"
	EventDownload = "download"
	EventCopy     = "copy"
)

// ValidEventType reports whether t is one of the four recognized event types.
func ValidEventType(t string) bool {
	switch t {
	case EventScan, EventGenerate, EventDownload, EventCopy:
		return true
	}
	return false
}

// AnalyticsEvent represents a single recorded user action against a QR code.
// Events are written once and never mutated; they are removed in bulk when
// their owning QR code is deleted.
type AnalyticsEvent struct {
	ID string `gorm:"primaryKey;size:36"`

	// QRCodeID references the owning QR code. The reference is lookup-only:
	// deleting an event never touches the QR code, while deleting a QR code
	// cascades over its events through the event store.
	QRCodeID string `gorm:"size:36;not null;index"`

	// QRCode establishes the GORM relationship for joined lookups.
	QRCode QRCode `gorm:"foreignKey:QRCodeID"`

	// EventType is one of scan, generate, download or copy.
	EventType string `gorm:"size:10;not null;index"`

	UserAgent string `gorm:"size:255"`

	// IPHash is the privacy-hashed requester address, never the raw address.
	IPHash string `gorm:"size:64"`

	// Referrer holds the Referer header when present.
	Referrer string `gorm:"size:2048"`

	// Parsed device descriptor. Unmatched categories stay unknown/Unknown.
	DeviceType    string `gorm:"size:10"`
	DeviceOS      string `gorm:"size:50"`
	DeviceBrowser string `gorm:"size:50"`

	// Coarse location stubs. No geolocation resolution is performed; the
	// columns exist so an external resolver can fill them in.
	Country string `gorm:"size:100"`
	City    string `gorm:"size:100"`

	// Metadata carries optional free-form string-valued attributes.
	Metadata datatypes.JSONMap

	CreatedAt time.Time `gorm:"autoCreateTime;index"`
}

// BeforeCreate assigns the opaque identifier when none was provided.
func (e *AnalyticsEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	return nil
}

// EventJob is a lightweight analytics event intended to be passed through
// channels for asynchronous persistence by the worker pool. It carries only
// what is needed to build an AnalyticsEvent record later.
type EventJob struct {
	QRCodeID      string
	EventType     string
	UserAgent     string
	IPHash        string
	Referrer      string
	DeviceType    string
	DeviceOS      string
	DeviceBrowser string
	Timestamp     time.Time
}

// DailyStat is one row of the daily event breakdown: a UTC calendar day, an
// event type and the number of occurrences.
type DailyStat struct {
	Date      string `json:"date"`
	EventType string `json:"event_type"`
	Count     int64  `json:"count"`
}
