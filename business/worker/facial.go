package worker

import (
	"time"

	"github.com/voxelapi/goVoxelCoach/business/emotion"
)

// facialOperation samples the camera classifier on its cadence and feeds
// the emotion aggregator. Frames without a detected face and failed
// samples are skipped; the window reduction happens at the audio boundary,
// not here.
func (w *Worker) facialOperation() {
	w.logger.Infow("worker: facialOperation: G started")
	defer w.logger.Infow("worker: facialOperation: G completed")

	ticker := newTicker(w.config.FacialSampleInterval)
	defer ticker.Stop()

	w.logger.Infow("worker: facialOperation: G listening")
	for {
		select {
		case <-ticker.C:
			res, err := w.face.Sample()
			if err != nil {
				w.logger.Errorw("worker: facialOperation", "ERROR", err)
				continue
			}

			if !res.FaceFound {
				continue
			}

			w.aggregator.Add(emotion.Sample{
				At:         time.Now(),
				Label:      res.Label,
				Confidence: res.Confidence,
			})

		case <-w.shut:
			w.logger.Infow("worker: facialOperation: received shut signal")
			return
		}
	}
}

func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		d = time.Second
	}
	return time.NewTicker(d)
}
