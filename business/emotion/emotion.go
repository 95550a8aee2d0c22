// Package emotion buffers facial samples and reduces them, once per audio
// window, into a summary the insight prompt can use.
package emotion

import (
	"sort"
	"sync"
	"time"
)

const (
	TrendImproving = "improving"
	TrendDeclining = "declining"
	TrendStable    = "stable"
)

// Sample is one classified camera frame, produced roughly once per second.
type Sample struct {
	At         time.Time
	Label      string
	Confidence float64
}

// Summary is the per-window reduction of the sample buffer.
type Summary struct {
	Dominant     string
	Confidence   float64
	Distribution map[string]float64
	Trend        string
	Samples      int
}

// Aggregator collects samples between window boundaries. Reduce drains the
// buffer; samples never survive their window.
type Aggregator struct {
	mu      sync.Mutex
	samples []Sample
}

func NewAggregator() *Aggregator {
	return &Aggregator{}
}

func (a *Aggregator) Add(s Sample) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.samples = append(a.samples, s)
}

// Reduce computes the window summary and clears the buffer. ok is false
// when no samples arrived during the window.
func (a *Aggregator) Reduce() (Summary, bool) {
	a.mu.Lock()
	samples := a.samples
	a.samples = nil
	a.mu.Unlock()

	if len(samples) == 0 {
		return Summary{}, false
	}

	dominant := dominantLabel(samples)

	var dominantSum float64
	var dominantCount int
	counts := make(map[string]float64)
	for _, s := range samples {
		counts[s.Label]++
		if s.Label == dominant {
			dominantSum += s.Confidence
			dominantCount++
		}
	}

	distribution := make(map[string]float64, len(counts))
	for label, count := range counts {
		distribution[label] = count / float64(len(samples))
	}

	return Summary{
		Dominant:     dominant,
		Confidence:   dominantSum / float64(dominantCount),
		Distribution: distribution,
		Trend:        trend(samples),
		Samples:      len(samples),
	}, true
}

// dominantLabel is the mode of labels weighted by confidence. Ties break
// on label order so the reduction is deterministic.
func dominantLabel(samples []Sample) string {
	weights := make(map[string]float64)
	for _, s := range samples {
		weights[s.Label] += s.Confidence
	}

	labels := make([]string, 0, len(weights))
	for label := range weights {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	var best string
	var bestWeight float64
	for _, label := range labels {
		if weights[label] > bestWeight {
			best = label
			bestWeight = weights[label]
		}
	}
	return best
}

var (
	positiveLabels = map[string]bool{"happy": true, "surprise": true}
	negativeLabels = map[string]bool{"sad": true, "angry": true, "fear": true, "disgust": true}
)

// trend compares the positivity of the first half of the window against
// the second half.
func trend(samples []Sample) string {
	if len(samples) < 3 {
		return TrendStable
	}

	mid := len(samples) / 2
	diff := positivity(samples[mid:]) - positivity(samples[:mid])

	switch {
	case diff > 0.2:
		return TrendImproving
	case diff < -0.2:
		return TrendDeclining
	default:
		return TrendStable
	}
}

func positivity(samples []Sample) float64 {
	if len(samples) == 0 {
		return 0
	}
	var score int
	for _, s := range samples {
		switch {
		case positiveLabels[s.Label]:
			score++
		case negativeLabels[s.Label]:
			score--
		}
	}
	return float64(score) / float64(len(samples))
}
