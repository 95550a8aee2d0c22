package worker

import (
	"context"

	"github.com/voxelapi/goVoxelCoach/business/insight"
	"github.com/voxelapi/goVoxelCoach/business/transcript"
	"github.com/voxelapi/goVoxelCoach/foundation/pubsub"
)

// insightOperation asks the reasoning service for a coaching insight once
// per released chunk, using the whole transcript so far plus the window's
// emotion summary. Calls run on their own goroutines and may finish out of
// order; a result is applied only if its window index is not older than
// the last applied one, so a late slow window can never roll the coaching
// state backwards. Applied insights are published for the notify and
// record-sync operations.
func (w *Worker) insightOperation() {
	w.logger.Infow("worker: insightOperation: G started")
	defer w.logger.Infow("worker: insightOperation: G completed")

	defer close(w.insightDone)

	sub := pubsub.NewSubscriber(64)
	w.broker.Subscribe(topicChunk, sub)

	var (
		outstanding int
		lastApplied = -1
	)

	launch := func(chunk transcript.Chunk) {
		summary := w.takeSummary(chunk.Index)
		if chunk.Text == "" {
			w.logger.Infow("worker: insightOperation: empty window, skipping", "index", chunk.Index)
			return
		}

		prompt := insight.BuildPrompt(w.transcript.FullText(), summary)
		outstanding++

		go func(index int) {
			ctx, cancel := context.WithTimeout(context.Background(), generateTimeout)
			defer cancel()

			raw, err := w.reasoner.Generate(ctx, w.config.InsightModel, prompt)
			w.insightResultCh <- insightResult{index: index, raw: raw, err: err}
		}(chunk.Index)
	}

	apply := func(res insightResult) {
		outstanding--

		if res.err != nil {
			w.logger.Errorw("worker: insightOperation", "window", res.index, "ERROR", res.err)
			return
		}

		ins, err := insight.Parse(res.raw)
		if err != nil {
			w.logger.Errorw("worker: insightOperation", "window", res.index, "ERROR", err)
			return
		}

		if res.index < lastApplied {
			w.logger.Infow("worker: insightOperation: stale insight discarded", "window", res.index, "lastApplied", lastApplied)
			return
		}
		lastApplied = res.index

		w.history.Append(ins)
		w.logger.Infow("worker: insightOperation: insight applied", "window", res.index, "status", ins.Status, "score", ins.Score)

		if err := w.broker.Publish(topicInsight, ins); err != nil {
			w.logger.Errorw("worker: insightOperation", "ERROR", err)
		}
	}

	w.logger.Infow("worker: insightOperation: G listening")
	for {
		select {
		case payload := <-sub.GetChannel():
			launch(payload.(transcript.Chunk))

		case res := <-w.insightResultCh:
			apply(res)

		case <-w.shut:
			w.logger.Infow("worker: insightOperation: received shut signal")

			<-w.transcriptionDone

			var discarded int
			for {
				select {
				case <-sub.GetChannel():
					discarded++
					continue
				default:
				}
				break
			}
			if discarded > 0 {
				w.logger.Infow("worker: insightOperation: chunks past call end ignored", "count", discarded)
			}

			for outstanding > 0 {
				apply(<-w.insightResultCh)
			}

			if err := w.broker.UnSubscribe(topicChunk, sub); err != nil {
				w.logger.Errorw("worker: insightOperation", "ERROR", err)
			}
			return
		}
	}
}
