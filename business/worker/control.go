package worker

import (
	"bufio"
	"strings"
)

// controlOperation listens on the line-oriented control stream, normally
// the salesperson's terminal. An empty line replays the latest coaching
// recommendation out loud; "end" winds the session down. Anything else is
// logged and ignored.
func (w *Worker) controlOperation() {
	w.logger.Infow("worker: controlOperation: G started")
	defer w.logger.Infow("worker: controlOperation: G completed")

	lineCh := make(chan string)
	go func() {
		defer close(lineCh)

		scanner := bufio.NewScanner(w.control)
		for scanner.Scan() {
			select {
			case lineCh <- scanner.Text():
			case <-w.shut:
				return
			}
		}
		if err := scanner.Err(); err != nil {
			w.logger.Errorw("worker: controlOperation", "ERROR", err)
		}
	}()

	w.logger.Infow("worker: controlOperation: G listening")
	for {
		select {
		case line, open := <-lineCh:
			if !open {
				w.logger.Infow("worker: controlOperation: control stream closed")
				return
			}

			switch strings.ToLower(strings.TrimSpace(line)) {
			case "":
				w.replayRecommendation()

			case "end":
				w.logger.Infow("worker: controlOperation: end command received")
				w.End()
				return

			default:
				w.logger.Infow("worker: controlOperation: unknown command", "command", line)
			}

		case <-w.shut:
			w.logger.Infow("worker: controlOperation: received shut signal")
			return
		}
	}
}

func (w *Worker) replayRecommendation() {
	latest, ok := w.history.Latest()
	if !ok {
		if err := w.notifier.Say("No recommendation available yet."); err != nil {
			w.logger.Errorw("worker: controlOperation", "ERROR", err)
		}
		return
	}

	w.logger.Infow("worker: controlOperation: replaying recommendation", "recommendation", latest.Recommendation)
	if err := w.notifier.Say(latest.Recommendation); err != nil {
		w.logger.Errorw("worker: controlOperation", "ERROR", err)
	}
}
