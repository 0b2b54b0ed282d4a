package cleanup

import (
	"log"
	"time"

	"github.com/techytcm/QR-CODE-GENARATOR/internal/services"
)

// Sweeper periodically removes QR codes past their expiration timestamp.
// SQLite has no native TTL, so this scheduled sweep alone carries the
// eventual-deletion guarantee for expired codes.
type Sweeper struct {
	qrService *services.QRService
	interval  time.Duration
}

// NewSweeper creates and returns a new Sweeper instance.
func NewSweeper(qrService *services.QRService, interval time.Duration) *Sweeper {
	return &Sweeper{
		qrService: qrService,
		interval:  interval,
	}
}

// Start launches the periodic sweep loop. This is a blocking function that
// runs until the program stops; run it in its own goroutine.
func (s *Sweeper) Start() {
	log.Printf("[CLEANUP] Starting expiration sweeper with interval of %v...", s.interval)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	// Sweep once on startup before waiting for the first tick
	s.sweep()

	for range ticker.C {
		s.sweep()
	}
}

// sweep runs one expiration pass. The sweep may race ordinary reads and
// writes; a lookup that loses the race simply reports not-found.
func (s *Sweeper) sweep() {
	removed, err := s.qrService.SweepExpired(time.Now())
	if err != nil {
		log.Printf("[CLEANUP] ERROR sweeping expired qr codes: %v", err)
		return
	}
	if removed > 0 {
		log.Printf("[CLEANUP] Removed %d expired qr code(s)", removed)
	}
}
