package workers

import (
	"errors"
	"log"

	apperrors "github.com/techytcm/QR-CODE-GENARATOR/internal/errors"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/models"
	"github.com/techytcm/QR-CODE-GENARATOR/internal/repository"
)

// StartEventWorkers launches a pool of worker goroutines that persist
// analytics events asynchronously. This keeps event recording off the
// request path: handlers queue a lightweight EventJob and move on.
func StartEventWorkers(workerCount int, jobs <-chan models.EventJob, eventRepo repository.EventRepository, qrRepo repository.QRCodeRepository) {
	log.Printf("Starting %d event worker(s)...", workerCount)

	for i := 0; i < workerCount; i++ {
		go eventWorker(jobs, eventRepo, qrRepo)
	}
}

// eventWorker consumes jobs until the channel is closed. Each job is turned
// into a full AnalyticsEvent record and written to the database. A job whose
// QR code has been deleted in the meantime is dropped, not stored orphaned.
func eventWorker(jobs <-chan models.EventJob, eventRepo repository.EventRepository, qrRepo repository.QRCodeRepository) {
	for job := range jobs {
		if _, err := qrRepo.GetByID(job.QRCodeID); err != nil {
			if errors.Is(err, apperrors.ErrQRCodeNotFound) {
				log.Printf("Dropping %s event: qr code %s no longer exists", job.EventType, job.QRCodeID)
			} else {
				log.Printf("ERROR: failed to resolve qr code %s for %s event: %v", job.QRCodeID, job.EventType, err)
			}
			continue
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

		// Analytics is best-effort: log and keep processing on failure
		if err := eventRepo.Create(event); err != nil {
			log.Printf("ERROR: %v", &apperrors.EventRecordingError{QRCodeID: job.QRCodeID, Reason: err.Error()})
		}
	}
	// Worker exits when the channel is closed during shutdown
}
