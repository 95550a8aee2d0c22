// Package worker runs one coached sales call: it fans audio, facial,
// identity and control work out to goroutines and owns the session
// lifecycle from the first captured frame to the persisted conversation.
package worker

import (
	"io"
	"sync"
	"time"

	"github.com/voxelapi/goVoxelCoach/business/emotion"
	"github.com/voxelapi/goVoxelCoach/business/insight"
	"github.com/voxelapi/goVoxelCoach/business/transcript"
	"github.com/voxelapi/goVoxelCoach/foundation/pubsub"
	"github.com/voxelapi/goVoxelCoach/foundation/sessionrecord"
	"github.com/voxelapi/goVoxelCoach/foundation/state"
	"go.uber.org/zap"
)

const (
	topicChunk   = "transcript.chunk"
	topicInsight = "insight.applied"

	recognizeTimeout   = 60 * time.Second
	generateTimeout    = 60 * time.Second
	recordWriteTimeout = 5 * time.Second
	recordReadTimeout  = 5 * time.Second
	finalizeTimeout    = 30 * time.Second
)

type insightResult struct {
	index int
	raw   string
	err   error
}

type Worker struct {
	config  Config
	logger  *zap.SugaredLogger
	machine *state.Machine
	broker  *pubsub.Broker

	audio    AudioSource
	speech   Speech
	reasoner Reasoner
	face     FaceSampler
	notifier Notifier
	record   sessionrecord.Store
	persist  Persister
	control  io.Reader

	transcript *transcript.Log
	aggregator *emotion.Aggregator
	history    *insight.History

	startedAt time.Time

	wg      sync.WaitGroup
	shut    chan struct{}
	endOnce sync.Once
	error   chan error

	windowCh        chan AudioWindow
	recognizedCh    chan transcript.Chunk
	insightResultCh chan insightResult

	// Drain barriers: a downstream operation must not unsubscribe while
	// its upstream publisher is still flushing in-flight work.
	transcriptionDone chan struct{}
	insightDone       chan struct{}

	mu               sync.Mutex
	failErr          error
	lockedCustomerID string
	lockedConfidence string
	summaries        map[int]emotion.Summary
}

// Run starts every session goroutine and moves the lifecycle to active.
// The returned channel delivers exactly one value, when the session has
// fully terminated.
func Run(s Settings) (*Worker, <-chan error) {
	cfg := s.Config.withDefaults()

	w := &Worker{
		config:            cfg,
		logger:            s.Logger,
		machine:           state.NewMachine(),
		broker:            pubsub.NewBroker(),
		audio:             s.Audio,
		speech:            s.Speech,
		reasoner:          s.Reasoner,
		face:              s.Face,
		notifier:          s.Notifier,
		record:            s.Record,
		persist:           s.Persist,
		control:           s.Control,
		transcript:        transcript.NewLog(),
		aggregator:        emotion.NewAggregator(),
		history:           insight.NewHistory(cfg.InsightHistorySize),
		startedAt:         time.Now(),
		shut:              make(chan struct{}),
		error:             make(chan error, 1),
		windowCh:          make(chan AudioWindow, 16),
		recognizedCh:      make(chan transcript.Chunk, 16),
		insightResultCh:   make(chan insightResult, 16),
		transcriptionDone: make(chan struct{}),
		insightDone:       make(chan struct{}),
		summaries:         make(map[int]emotion.Summary),
	}

	if err := w.machine.Transition(state.Active); err != nil {
		w.logger.Errorw("worker: run", "ERROR", err)
	}
	w.logger.Infow("worker: run: session active", "sessionID", w.config.SessionID)

	operations := []func(){
		w.audioCaptureOperation,
		w.transcriptionOperation,
		w.insightOperation,
		w.notifyOperation,
		w.recordSyncOperation,
		w.identitySyncOperation,
		w.controlOperation,
	}
	if w.config.EnableFacial {
		operations = append(operations, w.facialOperation)
	}

	g := len(operations)
	w.wg.Add(g)

	hasStarted := make(chan bool)

	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	for i := 0; i < g; i++ {
		<-hasStarted
	}

	return w, w.error
}

// End winds the session down gracefully: operations drain their in-flight
// work, the conversation is persisted, and the lifecycle reaches
// terminated. Safe to call more than once.
func (w *Worker) End() {
	w.endOnce.Do(func() {
		w.logger.Infow("worker: end: started")

		if err := w.machine.Transition(state.Ending); err != nil {
			w.logger.Errorw("worker: end", "ERROR", err)
		}
		close(w.shut)

		go w.complete()
	})
}

// Shutdown ends the session because of a fatal error. The error is
// reported on the Run channel after finalization.
func (w *Worker) Shutdown(err error) {
	w.logger.Errorw("worker: shutdown", "ERROR", err)

	w.mu.Lock()
	if w.failErr == nil {
		w.failErr = err
	}
	w.mu.Unlock()

	w.End()
}

func (w *Worker) complete() {
	w.logger.Infow("worker: complete: waiting for goroutines")
	w.wg.Wait()

	finalErr := w.finalize()

	if err := w.machine.Transition(state.Terminated); err != nil {
		w.logger.Errorw("worker: complete", "ERROR", err)
	}
	w.logger.Infow("worker: complete: session terminated", "sessionID", w.config.SessionID)

	w.mu.Lock()
	if w.failErr != nil {
		finalErr = w.failErr
	}
	w.mu.Unlock()

	w.error <- finalErr
}

// Phase reports the current lifecycle phase.
func (w *Worker) Phase() state.Phase {
	return w.machine.Current()
}

// CustomerID returns the locked customer identity, or "" while unknown.
func (w *Worker) CustomerID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lockedCustomerID
}

// lockIdentity records the customer identity for the rest of the call.
// The lock is sticky: the first non-empty identity wins.
func (w *Worker) lockIdentity(customerID string, confidence string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.lockedCustomerID != "" {
		return false
	}
	w.lockedCustomerID = customerID
	w.lockedConfidence = confidence
	return true
}

func (w *Worker) storeSummary(index int, s emotion.Summary) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.summaries[index] = s
}

// takeSummary removes and returns the emotion summary reduced at the
// boundary of the given window, nil when facial analysis produced none.
func (w *Worker) takeSummary(index int) *emotion.Summary {
	w.mu.Lock()
	defer w.mu.Unlock()

	s, ok := w.summaries[index]
	if !ok {
		return nil
	}
	delete(w.summaries, index)
	return &s
}
