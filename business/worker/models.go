package worker

import (
	"context"
	"io"
	"time"

	"github.com/voxelapi/goVoxelCoach/foundation/audio"
	"github.com/voxelapi/goVoxelCoach/foundation/external/faceapi"
	"github.com/voxelapi/goVoxelCoach/foundation/sessionrecord"
	"github.com/voxelapi/goVoxelCoach/foundation/supabase"
	"go.uber.org/zap"
)

// AudioWindow is one fixed-duration slice of captured call audio. It is
// consumed exactly once by the transcription operation and discarded.
type AudioWindow struct {
	Index int
	Start time.Time
	PCM   []byte
}

// AudioSource streams PCM frames from the capture device.
type AudioSource interface {
	Stream(ctx context.Context) <-chan audio.Frame
}

// Speech transcribes one bounded audio window. Latency may exceed the
// window duration; calls run off the capture path.
type Speech interface {
	Recognize(ctx context.Context, pcm []byte) (string, error)
}

// Reasoner is the external reasoning service: insight generation per
// window and profile extraction at call end.
type Reasoner interface {
	Generate(ctx context.Context, model string, prompt string) (string, error)
}

// FaceSampler grabs and classifies one camera frame.
type FaceSampler interface {
	Sample() (faceapi.Result, error)
}

// Notifier speaks/displays one short status line. Fire and forget.
type Notifier interface {
	Say(text string) error
}

// Persister is the durable store for profiles and conversation records.
type Persister interface {
	GetCustomer(ctx context.Context, customerID string) (*supabase.CustomerRow, error)
	UpsertCustomer(ctx context.Context, row supabase.CustomerRow) error
	AppendConversation(ctx context.Context, row supabase.ConversationRow) error
}

type Settings struct {
	Config
	Logger   *zap.SugaredLogger
	Audio    AudioSource
	Speech   Speech
	Reasoner Reasoner
	Face     FaceSampler
	Notifier Notifier
	Record   sessionrecord.Store
	Persist  Persister
	Control  io.Reader
}

type Config struct {
	SessionID            string
	ConversationID       string
	WindowDuration       time.Duration
	WindowBytes          int
	EnableFacial         bool
	FacialSampleInterval time.Duration
	IdentityPollInterval time.Duration
	InsightModel         string
	ExtractModel         string
	InsightHistorySize   int
}

func (c Config) withDefaults() Config {
	if c.WindowDuration <= 0 {
		c.WindowDuration = 10 * time.Second
	}
	if c.WindowBytes <= 0 {
		c.WindowBytes = audio.SampleRate * audio.BytesPerSample * int(c.WindowDuration/time.Second)
	}
	if c.FacialSampleInterval <= 0 {
		c.FacialSampleInterval = time.Second
	}
	if c.IdentityPollInterval <= 0 {
		c.IdentityPollInterval = 2 * time.Second
	}
	if c.InsightModel == "" {
		c.InsightModel = "gemini-2.5-flash"
	}
	if c.ExtractModel == "" {
		c.ExtractModel = c.InsightModel
	}
	if c.InsightHistorySize <= 0 {
		c.InsightHistorySize = 50
	}
	return c
}
