package worker

import (
	"context"

	"github.com/voxelapi/goVoxelCoach/business/transcript"
)

// transcriptionOperation sends each audio window to the speech service on
// its own goroutine so a slow call never stalls capture. Results come back
// in any order; the transcript log reorders them and releases gapless,
// strictly ordered chunks, which are published for the insight pipeline.
//
// On shut the operation drains every recognition still in flight before
// returning so the final words of the call make it into the transcript.
func (w *Worker) transcriptionOperation() {
	w.logger.Infow("worker: transcriptionOperation: G started")
	defer w.logger.Infow("worker: transcriptionOperation: G completed")

	defer close(w.transcriptionDone)

	var outstanding int

	collect := func(chunk transcript.Chunk) {
		outstanding--
		for _, released := range w.transcript.Add(chunk) {
			w.logger.Infow("worker: transcriptionOperation: chunk released", "index", released.Index, "transcription", released.Text)
			if err := w.broker.Publish(topicChunk, released); err != nil {
				w.logger.Errorw("worker: transcriptionOperation", "ERROR", err)
			}
		}
	}

	w.logger.Infow("worker: transcriptionOperation: G listening")
	for {
		select {
		case window := <-w.windowCh:
			outstanding++
			go w.recognizeWindow(window)

		case chunk := <-w.recognizedCh:
			collect(chunk)

		case <-w.shut:
			w.logger.Infow("worker: transcriptionOperation: received shut signal")
			for outstanding > 0 {
				collect(<-w.recognizedCh)
			}
			return
		}
	}
}

// recognizeWindow transcribes one window. A failed call still produces a
// chunk, empty-texted and flagged, so the transcript never gaps.
func (w *Worker) recognizeWindow(window AudioWindow) {
	ctx, cancel := context.WithTimeout(context.Background(), recognizeTimeout)
	defer cancel()

	chunk := transcript.Chunk{
		Index: window.Index,
		At:    window.Start,
	}

	text, err := w.speech.Recognize(ctx, window.PCM)
	if err != nil {
		w.logger.Errorw("worker: transcriptionOperation", "window", window.Index, "ERROR", err)
		chunk.Err = err.Error()
	} else {
		chunk.Text = text
	}

	w.recognizedCh <- chunk
}
