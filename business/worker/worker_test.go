package worker_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/voxelapi/goVoxelCoach/business/worker"
	"github.com/voxelapi/goVoxelCoach/foundation/audio"
	"github.com/voxelapi/goVoxelCoach/foundation/external/faceapi"
	"github.com/voxelapi/goVoxelCoach/foundation/sessionrecord"
	"github.com/voxelapi/goVoxelCoach/foundation/state"
	"github.com/voxelapi/goVoxelCoach/foundation/supabase"
	"go.uber.org/zap"
)

const testWindowBytes = 64

// =====================================================================================================================
// Fakes

type sourceFunc func(ctx context.Context) <-chan audio.Frame

func (f sourceFunc) Stream(ctx context.Context) <-chan audio.Frame { return f(ctx) }

type speechFunc func(ctx context.Context, pcm []byte) (string, error)

func (f speechFunc) Recognize(ctx context.Context, pcm []byte) (string, error) { return f(ctx, pcm) }

type reasonFunc func(ctx context.Context, model string, prompt string) (string, error)

func (f reasonFunc) Generate(ctx context.Context, model string, prompt string) (string, error) {
	return f(ctx, model, prompt)
}

type faceFunc func() (faceapi.Result, error)

func (f faceFunc) Sample() (faceapi.Result, error) { return f() }

type chanNotifier struct {
	says chan string
}

func (n *chanNotifier) Say(text string) error {
	n.says <- text
	return nil
}

type memPersister struct {
	mu            sync.Mutex
	customers     map[string]supabase.CustomerRow
	conversations []supabase.ConversationRow
	upserts       int
}

func newMemPersister() *memPersister {
	return &memPersister{customers: make(map[string]supabase.CustomerRow)}
}

func (p *memPersister) GetCustomer(ctx context.Context, customerID string) (*supabase.CustomerRow, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	row, ok := p.customers[customerID]
	if !ok {
		return nil, nil
	}
	return &row, nil
}

func (p *memPersister) UpsertCustomer(ctx context.Context, row supabase.CustomerRow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.customers[row.CustomerID] = row
	p.upserts++
	return nil
}

func (p *memPersister) AppendConversation(ctx context.Context, row supabase.ConversationRow) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.conversations = append(p.conversations, row)
	return nil
}

// =====================================================================================================================
// Helpers

// taggedWindow builds one window-sized PCM buffer whose first byte lets
// the fake speech service tell windows apart.
func taggedWindow(tag byte) []byte {
	b := make([]byte, testWindowBytes)
	for i := range b {
		b[i] = tag
	}
	return b
}

func streamFrames(gap time.Duration, frames ...[]byte) worker.AudioSource {
	return sourceFunc(func(ctx context.Context) <-chan audio.Frame {
		out := make(chan audio.Frame)
		go func() {
			defer close(out)
			for _, pcm := range frames {
				if gap > 0 {
					time.Sleep(gap)
				}
				select {
				case out <- audio.Frame{PCM: pcm}:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out
	})
}

func waitSay(t *testing.T, says chan string, want string) {
	t.Helper()

	select {
	case got := <-says:
		if got != want {
			t.Fatalf("said %q, want %q", got, want)
		}
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting to hear %q", want)
	}
}

func waitIdentity(t *testing.T, w *worker.Worker) {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for w.CustomerID() == "" {
		if time.Now().After(deadline) {
			t.Fatal("timed out waiting for identity lock")
		}
		time.Sleep(time.Millisecond)
	}
}

func waitDone(t *testing.T, errCh <-chan error) {
	t.Helper()

	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("session ended with error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for session to terminate")
	}
}

func baseConfig() worker.Config {
	return worker.Config{
		SessionID:            "session-1",
		ConversationID:       "conv-1",
		WindowBytes:          testWindowBytes,
		IdentityPollInterval: 2 * time.Millisecond,
		InsightHistorySize:   10,
		InsightModel:         "test-model",
	}
}

const (
	insightCurious    = `{"status":"Engaged & Curious","reason":"asked a question","recommendation":"ask about budget","score":6}`
	insightInterested = `{"status":"Highly Interested","reason":"leaning in","recommendation":"offer the discount","score":7}`
	insightNeutral    = `{"status":"Feeling Neutral","reason":"small talk","recommendation":"build rapport","score":3}`
	extractionJSON    = `{"name":"Jordan","personal_details":["has two kids"],"professional_details":[],"sales_context":["Current pain point: bill shock"]}`
)

// =====================================================================================================================

func TestSessionEndToEnd(t *testing.T) {
	says := make(chan string, 32)
	record := sessionrecord.NewMemory()
	persist := newMemPersister()

	ctx := context.Background()
	if err := record.SetIdentity(ctx, "session-1", sessionrecord.StatusActive, "Person_AB12", sessionrecord.ConfidenceStable); err != nil {
		t.Fatal(err)
	}
	persist.customers["Person_AB12"] = supabase.CustomerRow{
		CustomerID:      "Person_AB12",
		PersonalDetails: []string{"likes golf"},
		SalesContext:    []string{"Current provider: Verizon"},
	}

	// Window 2 is held back so the first insight is generated from a
	// transcript containing window 0 alone.
	releaseLastWindow := make(chan struct{})
	speech := speechFunc(func(ctx context.Context, pcm []byte) (string, error) {
		switch pcm[0] {
		case 0:
			return "hello", nil
		case 1:
			return "", errors.New("stt unavailable")
		default:
			<-releaseLastWindow
			return "thanks", nil
		}
	})

	reason := reasonFunc(func(ctx context.Context, model string, prompt string) (string, error) {
		if strings.Contains(prompt, "customer intelligence analyst") {
			return extractionJSON, nil
		}
		if strings.Contains(prompt, "thanks") {
			return insightInterested, nil
		}
		return insightCurious, nil
	})

	controlR, controlW := io.Pipe()
	defer controlW.Close()

	w, errCh := worker.Run(worker.Settings{
		Config:   baseConfig(),
		Logger:   zap.NewNop().Sugar(),
		Audio:    streamFrames(0, taggedWindow(0), taggedWindow(1), taggedWindow(2)),
		Speech:   speech,
		Reasoner: reason,
		Notifier: &chanNotifier{says: says},
		Record:   record,
		Persist:  persist,
		Control:  controlR,
	})

	if w.Phase() != state.Active {
		t.Fatalf("phase = %s, want active", w.Phase())
	}

	waitSay(t, says, "Engaged & Curious")
	close(releaseLastWindow)
	waitSay(t, says, "Highly Interested")

	waitIdentity(t, w)

	// The subject stepping out of frame clears the record's identity; the
	// call's lock must survive that.
	if err := record.SetIdentity(ctx, "session-1", sessionrecord.StatusActive, "", sessionrecord.ConfidenceDetecting); err != nil {
		t.Fatal(err)
	}

	// An empty control line replays the latest recommendation.
	if _, err := controlW.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}
	waitSay(t, says, "offer the discount")

	if _, err := controlW.Write([]byte("end\n")); err != nil {
		t.Fatal(err)
	}
	waitDone(t, errCh)

	if w.Phase() != state.Terminated {
		t.Errorf("phase = %s, want terminated", w.Phase())
	}

	persist.mu.Lock()
	defer persist.mu.Unlock()

	if len(persist.conversations) != 1 {
		t.Fatalf("conversations saved = %d, want 1", len(persist.conversations))
	}
	conv := persist.conversations[0]
	if conv.FullTranscript != "hello thanks" {
		t.Errorf("full transcript = %q, want %q", conv.FullTranscript, "hello thanks")
	}
	if conv.CustomerID == nil || *conv.CustomerID != "Person_AB12" {
		t.Errorf("conversation customer = %v, want Person_AB12", conv.CustomerID)
	}
	if len(conv.Insights) != 2 {
		t.Errorf("insights saved = %d, want 2", len(conv.Insights))
	}

	merged := persist.customers["Person_AB12"]
	if merged.Name != "Jordan" {
		t.Errorf("merged name = %q, want Jordan", merged.Name)
	}
	wantPersonal := []string{"likes golf", "has two kids"}
	if len(merged.PersonalDetails) != 2 || merged.PersonalDetails[0] != wantPersonal[0] || merged.PersonalDetails[1] != wantPersonal[1] {
		t.Errorf("merged personal details = %v, want %v", merged.PersonalDetails, wantPersonal)
	}
	if len(merged.SalesContext) != 2 || merged.SalesContext[0] != "Current pain point: bill shock" {
		t.Errorf("merged sales context = %v", merged.SalesContext)
	}

	rec, err := record.Get(ctx, "session-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.CurrentInsight, "Highly Interested") {
		t.Errorf("record insight = %q, want the latest applied insight", rec.CurrentInsight)
	}
}

func TestStaleInsightDiscarded(t *testing.T) {
	says := make(chan string, 32)
	record := sessionrecord.NewMemory()
	persist := newMemPersister()

	// Window 1's transcription is held until window 0's insight call is
	// in flight; that call then stalls until window 1's insight has been
	// applied, so the older result arrives last and must be dropped.
	releaseWindow1 := make(chan struct{})
	firstInsightInFlight := make(chan struct{})
	releaseFirstInsight := make(chan struct{})

	speech := speechFunc(func(ctx context.Context, pcm []byte) (string, error) {
		if pcm[0] == 0 {
			return "alpha", nil
		}
		<-releaseWindow1
		return "beta", nil
	})

	reason := reasonFunc(func(ctx context.Context, model string, prompt string) (string, error) {
		if strings.Contains(prompt, "beta") {
			return insightInterested, nil
		}
		close(firstInsightInFlight)
		<-releaseFirstInsight
		return insightNeutral, nil
	})

	controlR, controlW := io.Pipe()
	defer controlW.Close()

	w, errCh := worker.Run(worker.Settings{
		Config:   baseConfig(),
		Logger:   zap.NewNop().Sugar(),
		Audio:    streamFrames(0, taggedWindow(0), taggedWindow(1)),
		Speech:   speech,
		Reasoner: reason,
		Notifier: &chanNotifier{says: says},
		Record:   record,
		Persist:  persist,
		Control:  controlR,
	})

	select {
	case <-firstInsightInFlight:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the first insight call")
	}

	close(releaseWindow1)
	waitSay(t, says, "Highly Interested")

	close(releaseFirstInsight)

	if _, err := controlW.Write([]byte("end\n")); err != nil {
		t.Fatal(err)
	}
	waitDone(t, errCh)

	if w.Phase() != state.Terminated {
		t.Errorf("phase = %s, want terminated", w.Phase())
	}

	persist.mu.Lock()
	defer persist.mu.Unlock()

	if len(persist.conversations) != 1 {
		t.Fatalf("conversations saved = %d, want 1", len(persist.conversations))
	}
	conv := persist.conversations[0]
	if len(conv.Insights) != 1 {
		t.Fatalf("insights applied = %d, want 1 (stale result must be discarded)", len(conv.Insights))
	}
	if !strings.Contains(conv.Insights[0], `"score":7`) {
		t.Errorf("applied insight = %q, want the window-1 result", conv.Insights[0])
	}

	rec, err := record.Get(context.Background(), "session-1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(rec.CurrentInsight, `"score":7`) {
		t.Errorf("record insight = %q, want the window-1 result", rec.CurrentInsight)
	}
}

func TestNoIdentityLocked(t *testing.T) {
	says := make(chan string, 32)
	record := sessionrecord.NewMemory()
	persist := newMemPersister()

	releaseSpeech := make(chan struct{})
	speech := speechFunc(func(ctx context.Context, pcm []byte) (string, error) {
		<-releaseSpeech
		return "hi there", nil
	})

	var extractions int
	var mu sync.Mutex
	reason := reasonFunc(func(ctx context.Context, model string, prompt string) (string, error) {
		if strings.Contains(prompt, "customer intelligence analyst") {
			mu.Lock()
			extractions++
			mu.Unlock()
			return extractionJSON, nil
		}
		return insightCurious, nil
	})

	controlR, controlW := io.Pipe()
	defer controlW.Close()

	w, errCh := worker.Run(worker.Settings{
		Config:   baseConfig(),
		Logger:   zap.NewNop().Sugar(),
		Audio:    streamFrames(0, taggedWindow(0)),
		Speech:   speech,
		Reasoner: reason,
		Notifier: &chanNotifier{says: says},
		Record:   record,
		Persist:  persist,
		Control:  controlR,
	})

	// Replay before any insight exists.
	if _, err := controlW.Write([]byte("\n")); err != nil {
		t.Fatal(err)
	}
	waitSay(t, says, "No recommendation available yet.")

	close(releaseSpeech)
	waitSay(t, says, "Engaged & Curious")

	if _, err := controlW.Write([]byte("end\n")); err != nil {
		t.Fatal(err)
	}
	waitDone(t, errCh)

	if got := w.CustomerID(); got != "" {
		t.Errorf("customer id = %q, want none", got)
	}

	persist.mu.Lock()
	defer persist.mu.Unlock()

	if len(persist.conversations) != 1 {
		t.Fatalf("conversations saved = %d, want 1", len(persist.conversations))
	}
	if persist.conversations[0].CustomerID != nil {
		t.Errorf("conversation customer = %v, want nil", persist.conversations[0].CustomerID)
	}
	if persist.upserts != 0 {
		t.Errorf("profile upserts = %d, want 0", persist.upserts)
	}

	mu.Lock()
	defer mu.Unlock()
	if extractions != 0 {
		t.Errorf("extraction calls = %d, want 0", extractions)
	}
}

func TestFacialSummaryReachesPrompt(t *testing.T) {
	says := make(chan string, 32)
	record := sessionrecord.NewMemory()
	persist := newMemPersister()

	speech := speechFunc(func(ctx context.Context, pcm []byte) (string, error) {
		return "hi there", nil
	})

	prompts := make(chan string, 8)
	reason := reasonFunc(func(ctx context.Context, model string, prompt string) (string, error) {
		if strings.Contains(prompt, "customer intelligence analyst") {
			return extractionJSON, nil
		}
		prompts <- prompt
		return insightCurious, nil
	})

	face := faceFunc(func() (faceapi.Result, error) {
		return faceapi.Result{FaceFound: true, Label: "happy", Confidence: 0.9}, nil
	})

	cfg := baseConfig()
	cfg.EnableFacial = true
	cfg.FacialSampleInterval = 2 * time.Millisecond

	controlR, controlW := io.Pipe()
	defer controlW.Close()

	_, errCh := worker.Run(worker.Settings{
		Config:   cfg,
		Logger:   zap.NewNop().Sugar(),
		Audio:    streamFrames(100*time.Millisecond, taggedWindow(0)),
		Speech:   speech,
		Reasoner: reason,
		Face:     face,
		Notifier: &chanNotifier{says: says},
		Record:   record,
		Persist:  persist,
		Control:  controlR,
	})

	var prompt string
	select {
	case prompt = <-prompts:
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for the insight prompt")
	}

	if !strings.Contains(prompt, "FACIAL EXPRESSIONS") {
		t.Error("prompt carries no facial section despite facial analysis being enabled")
	}
	if !strings.Contains(prompt, "happy") {
		t.Error("prompt missing the dominant emotion")
	}

	waitSay(t, says, "Engaged & Curious")

	if _, err := controlW.Write([]byte("end\n")); err != nil {
		t.Fatal(err)
	}
	waitDone(t, errCh)
}
