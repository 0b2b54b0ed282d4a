// Package privacy groups the identifier utilities: one-way hashing of
// requester addresses, short id generation and user-agent classification.
package privacy

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math/big"

	"github.com/mileusna/useragent"
)

// charset defines the character set used for generating short ids.
// Uses alphanumeric characters (both cases) for a total of 62 possible characters.
// This gives us 62^8 = ~218 trillion possible combinations for 8-character ids.
const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// ShortIDLength is the length of generated short ids.
const ShortIDLength = 8

// HashRequester returns a stable one-way hash of the raw client address so
// raw addresses are never persisted. Same input always yields same output;
// an empty address hashes a fixed placeholder instead.
func HashRequester(rawAddress string) string {
	if rawAddress == "" {
		rawAddress = "unknown"
	}
	sum := sha256.Sum256([]byte(rawAddress))
	return hex.EncodeToString(sum[:])
}

// GenerateShortID generates a cryptographically secure random short id.
// Collisions are practically impossible across the QR code population, but
// the store still enforces uniqueness as a second line of defense.
func GenerateShortID() (string, error) {
	id := make([]byte, ShortIDLength)
	for i := range id {
		// Use crypto/rand for cryptographically secure random numbers
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		id[i] = charset[num.Int64()]
	}
	return string(id), nil
}

// Device is the parsed device descriptor attached to analytics events.
// Classification is advisory metadata only, never used for access control.
type Device struct {
	Type    string // mobile, tablet, desktop or unknown
	OS      string // operating system label, "Unknown" when unmatched
	Browser string // browser label, "Unknown" when unmatched
}

// ClassifyDevice performs a best-effort classification of a user-agent
// string. Unmatched categories default to unknown/Unknown.
func ClassifyDevice(userAgentString string) Device {
	ua := useragent.Parse(userAgentString)

	device := Device{Type: "unknown", OS: "Unknown", Browser: "Unknown"}
	switch {
	case ua.Mobile:
		device.Type = "mobile"
	case ua.Tablet:
		device.Type = "tablet"
	case ua.Desktop:
		device.Type = "desktop"
	}
	if ua.OS != "" {
		device.OS = ua.OS
	}
	if ua.Name != "" {
		device.Browser = ua.Name
	}
	return device
}
