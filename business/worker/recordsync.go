package worker

import (
	"context"
	"encoding/json"

	"github.com/voxelapi/goVoxelCoach/business/insight"
	"github.com/voxelapi/goVoxelCoach/foundation/pubsub"
)

// recordSyncOperation writes every applied insight through to the shared
// session record, where the face-lock process (and anything else watching
// the session) can read it. The insight field has no other writer.
func (w *Worker) recordSyncOperation() {
	w.logger.Infow("worker: recordSyncOperation: G started")
	defer w.logger.Infow("worker: recordSyncOperation: G completed")

	sub := pubsub.NewSubscriber(64)
	w.broker.Subscribe(topicInsight, sub)

	write := func(ins insight.Insight) {
		b, err := json.Marshal(ins)
		if err != nil {
			w.logger.Errorw("worker: recordSyncOperation", "ERROR", err)
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), recordWriteTimeout)
		defer cancel()

		if err := w.record.SetInsight(ctx, w.config.SessionID, string(b)); err != nil {
			w.logger.Errorw("worker: recordSyncOperation", "ERROR", err)
		}
	}

	w.logger.Infow("worker: recordSyncOperation: G listening")
	for {
		select {
		case payload := <-sub.GetChannel():
			write(payload.(insight.Insight))

		case <-w.shut:
			w.logger.Infow("worker: recordSyncOperation: received shut signal")

			<-w.insightDone

			for {
				select {
				case payload := <-sub.GetChannel():
					write(payload.(insight.Insight))
					continue
				default:
				}
				break
			}

			if err := w.broker.UnSubscribe(topicInsight, sub); err != nil {
				w.logger.Errorw("worker: recordSyncOperation", "ERROR", err)
			}
			return
		}
	}
}
