package worker

import (
	"context"
	"time"
)

// audioCaptureOperation slices the device frame stream into fixed-size
// windows. Window N+1 starts accumulating the moment window N is cut, so
// no audio is lost between windows. At each boundary the facial sample
// buffer is reduced and filed under the window's index.
func (w *Worker) audioCaptureOperation() {
	w.logger.Infow("worker: audioCaptureOperation: G started")
	defer w.logger.Infow("worker: audioCaptureOperation: G completed")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	frameCh := w.audio.Stream(ctx)

	var (
		index int
		buf   []byte
		start = time.Now()
	)

	cut := func() {
		window := AudioWindow{
			Index: index,
			Start: start,
			PCM:   buf,
		}

		if w.config.EnableFacial {
			if summary, ok := w.aggregator.Reduce(); ok {
				w.storeSummary(index, summary)
			}
		}

		select {
		case w.windowCh <- window:
		case <-w.shut:
		}

		index++
		buf = nil
		start = time.Now()
	}

	w.logger.Infow("worker: audioCaptureOperation: G listening")
	for {
		select {
		case frame, open := <-frameCh:
			if !open {
				if len(buf) > 0 {
					w.logger.Infow("worker: audioCaptureOperation: stream ended, flushing short window", "index", index, "bytes", len(buf))
					cut()
				}
				w.logger.Infow("worker: audioCaptureOperation: audio stream ended")
				return
			}

			if frame.Err != nil {
				w.logger.Errorw("worker: audioCaptureOperation", "ERROR", frame.Err)
				if len(buf) > 0 {
					cut()
				}
				continue
			}

			buf = append(buf, frame.PCM...)
			for len(buf) >= w.config.WindowBytes {
				rest := buf[w.config.WindowBytes:]
				buf = buf[:w.config.WindowBytes]
				cut()
				buf = append(buf, rest...)
			}

		case <-w.shut:
			w.logger.Infow("worker: audioCaptureOperation: received shut signal")
			if len(buf) > 0 {
				w.logger.Infow("worker: audioCaptureOperation: discarding partial window", "bytes", len(buf))
			}
			return
		}
	}
}
