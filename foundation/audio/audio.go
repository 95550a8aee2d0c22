// Package audio captures raw PCM from a capture device and streams it as
// fixed-size frames on a channel. The device is anything file-like that
// yields 16 kHz mono 16-bit little-endian samples: an ALSA PCM node or a
// FIFO fed by the platform recorder.
package audio

import (
	"context"
	"fmt"
	"io"
	"os"
)

const (
	// SampleRate is fixed at 16 kHz, the rate speech models want.
	SampleRate = 16000

	// BytesPerSample for 16-bit PCM.
	BytesPerSample = 2

	frameSamples = 1024
	frameBytes   = frameSamples * BytesPerSample
)

// Frame is one read from the device. A non-nil Err with a nil PCM slice
// means the read failed; the stream continues unless the device is gone.
type Frame struct {
	PCM []byte
	Err error
}

type Capture struct {
	src io.ReadCloser
}

// Open opens the capture device. An unopenable device is a fatal session
// error, reported here before any loop starts.
func Open(devicePath string) (*Capture, error) {
	src, err := os.Open(devicePath)
	if err != nil {
		return nil, fmt.Errorf("audio device open: %w", err)
	}
	return &Capture{src: src}, nil
}

// FromReader wraps an already-open PCM source. Tests use this.
func FromReader(src io.ReadCloser) *Capture {
	return &Capture{src: src}
}

// Stream reads frames until the context is done or the device reaches EOF.
// The returned channel is closed when the stream ends.
func (c *Capture) Stream(ctx context.Context) <-chan Frame {
	out := make(chan Frame)

	go func() {
		defer close(out)

		buf := make([]byte, frameBytes)
		for {
			if ctx.Err() != nil {
				return
			}

			n, err := io.ReadFull(c.src, buf)
			if n > 0 {
				pcm := make([]byte, n)
				copy(pcm, buf[:n])
				select {
				case out <- Frame{PCM: pcm}:
				case <-ctx.Done():
					return
				}
			}

			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return
			}
			if err != nil {
				select {
				case out <- Frame{Err: err}:
				case <-ctx.Done():
				}
				return
			}
		}
	}()

	return out
}

func (c *Capture) Close() error {
	return c.src.Close()
}
