// Package googlestt transcribes one bounded audio window per call using
// Google Cloud Speech-to-Text.
package googlestt

import (
	"context"
	"fmt"
	"strings"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
)

type Service struct {
	client *speech.Client
	config *speechpb.RecognitionConfig
}

// New creates the speech client. Credentials come from the environment
// (GOOGLE_APPLICATION_CREDENTIALS).
func New(ctx context.Context, sampleRate int, languageCode string, speechContext []string) (*Service, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("speech client: %w", err)
	}

	config := &speechpb.RecognitionConfig{
		Encoding:        speechpb.RecognitionConfig_LINEAR16,
		SampleRateHertz: int32(sampleRate),
		LanguageCode:    languageCode,
	}
	if len(speechContext) > 0 {
		config.SpeechContexts = []*speechpb.SpeechContext{
			{Phrases: speechContext},
		}
	}

	return &Service{
		client: client,
		config: config,
	}, nil
}

// Recognize transcribes one window of LINEAR16 PCM. Silence comes back as
// an empty string, not an error. Latency may exceed the window duration;
// callers run this off the capture path.
func (s *Service) Recognize(ctx context.Context, pcm []byte) (string, error) {
	resp, err := s.client.Recognize(ctx, &speechpb.RecognizeRequest{
		Config: s.config,
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: pcm},
		},
	})
	if err != nil {
		return "", fmt.Errorf("recognize: %w", err)
	}

	var parts []string
	for _, result := range resp.Results {
		if len(result.Alternatives) > 0 {
			parts = append(parts, result.Alternatives[0].Transcript)
		}
	}

	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

func (s *Service) Close() error {
	return s.client.Close()
}
