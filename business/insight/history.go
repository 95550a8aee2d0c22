package insight

import "sync"

// History is the bounded ordered log of applied insights: the tail feeds
// "repeat last" playback, the whole of it goes into the conversation
// record at call end.
type History struct {
	mu       sync.Mutex
	capacity int
	items    []Insight
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{capacity: capacity}
}

func (h *History) Append(i Insight) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.items = append(h.items, i)
	if len(h.items) > h.capacity {
		h.items = h.items[len(h.items)-h.capacity:]
	}
}

// Latest returns the most recently applied insight.
func (h *History) Latest() (Insight, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.items) == 0 {
		return Insight{}, false
	}
	return h.items[len(h.items)-1], true
}

// All returns the retained insights, oldest first.
func (h *History) All() []Insight {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Insight, len(h.items))
	copy(out, h.items)
	return out
}
