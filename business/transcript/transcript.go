// Package transcript assembles per-window transcription results into a
// strictly ordered, gapless call transcript. Transcription calls complete
// out of order; the log releases chunks only in window-index order.
package transcript

import (
	"strings"
	"sync"
	"time"
)

// Chunk is the transcription of exactly one audio window. Text may be
// empty (silence, or a failed call flagged by Err). Chunks are appended
// and never mutated.
type Chunk struct {
	Index int
	Text  string
	At    time.Time
	Err   string
}

// Log holds released chunks in index order and buffers early arrivals
// until their predecessors land.
type Log struct {
	mu      sync.Mutex
	next    int
	pending map[int]Chunk
	chunks  []Chunk
}

func NewLog() *Log {
	return &Log{
		pending: make(map[int]Chunk),
	}
}

// Add inserts a completed chunk and returns every chunk that became
// releasable, in order. A chunk whose predecessors are still in flight is
// buffered and Add returns nil. Duplicate indices are dropped.
func (l *Log) Add(c Chunk) []Chunk {
	l.mu.Lock()
	defer l.mu.Unlock()

	if c.Index < l.next {
		return nil
	}
	if _, exists := l.pending[c.Index]; exists {
		return nil
	}
	l.pending[c.Index] = c

	var released []Chunk
	for {
		chunk, ok := l.pending[l.next]
		if !ok {
			break
		}
		delete(l.pending, l.next)
		l.chunks = append(l.chunks, chunk)
		released = append(released, chunk)
		l.next++
	}

	return released
}

// Chunks returns a copy of the released chunks in window order.
func (l *Log) Chunks() []Chunk {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Chunk, len(l.chunks))
	copy(out, l.chunks)
	return out
}

// FullText joins the released chunk texts into the transcript so far.
func (l *Log) FullText() string {
	l.mu.Lock()
	defer l.mu.Unlock()

	var parts []string
	for _, c := range l.chunks {
		if c.Text != "" {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, " ")
}

// Len is the number of released chunks.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.chunks)
}
