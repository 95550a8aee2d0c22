package worker

import (
	"context"
)

// identitySyncOperation polls the shared session record for the identity
// the face-lock process writes. The lock is sticky: once a customer ID is
// seen the operation records it and stops polling. An unreachable record
// store just means the customer stays unknown for this call.
func (w *Worker) identitySyncOperation() {
	w.logger.Infow("worker: identitySyncOperation: G started")
	defer w.logger.Infow("worker: identitySyncOperation: G completed")

	ticker := newTicker(w.config.IdentityPollInterval)
	defer ticker.Stop()

	w.logger.Infow("worker: identitySyncOperation: G listening")
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), recordReadTimeout)
			rec, err := w.record.Get(ctx, w.config.SessionID)
			cancel()

			if err != nil {
				w.logger.Errorw("worker: identitySyncOperation", "ERROR", err)
				continue
			}

			if rec.CurrentCustomerID == "" {
				continue
			}

			if w.lockIdentity(rec.CurrentCustomerID, rec.ConfidenceLevel) {
				w.logger.Infow("worker: identitySyncOperation: identity locked",
					"customerID", rec.CurrentCustomerID,
					"confidence", rec.ConfidenceLevel,
				)
			}
			return

		case <-w.shut:
			w.logger.Infow("worker: identitySyncOperation: received shut signal")
			return
		}
	}
}
