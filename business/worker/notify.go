package worker

import (
	"github.com/voxelapi/goVoxelCoach/business/insight"
	"github.com/voxelapi/goVoxelCoach/foundation/pubsub"
)

// notifyOperation speaks the status of every applied insight. Only the
// short status line is spoken; the full recommendation stays in the
// history for replay on demand.
func (w *Worker) notifyOperation() {
	w.logger.Infow("worker: notifyOperation: G started")
	defer w.logger.Infow("worker: notifyOperation: G completed")

	sub := pubsub.NewSubscriber(64)
	w.broker.Subscribe(topicInsight, sub)

	say := func(ins insight.Insight) {
		if err := w.notifier.Say(ins.Status); err != nil {
			w.logger.Errorw("worker: notifyOperation", "ERROR", err)
		}
	}

	w.logger.Infow("worker: notifyOperation: G listening")
	for {
		select {
		case payload := <-sub.GetChannel():
			say(payload.(insight.Insight))

		case <-w.shut:
			w.logger.Infow("worker: notifyOperation: received shut signal")

			<-w.insightDone

			for {
				select {
				case payload := <-sub.GetChannel():
					say(payload.(insight.Insight))
					continue
				default:
				}
				break
			}

			if err := w.broker.UnSubscribe(topicInsight, sub); err != nil {
				w.logger.Errorw("worker: notifyOperation", "ERROR", err)
			}
			return
		}
	}
}
