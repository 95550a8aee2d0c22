// Package insight builds the per-window coaching prompt and parses the
// reasoning service's response.
package insight

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/voxelapi/goVoxelCoach/business/emotion"
)

// Insight is one structured coaching recommendation. Only the latest is
// authoritative; prior ones live in a bounded History for replay.
type Insight struct {
	Status         string `json:"status"`
	Reason         string `json:"reason"`
	Recommendation string `json:"recommendation"`
	Score          int    `json:"score"`
}

var statuses = []string{
	"Ready to Buy",
	"Highly Interested",
	"Engaged & Curious",
	"Feeling Neutral",
	"Showing Hesitation",
	"Has Objections",
	"Feeling Confused",
	"Losing Interest",
	"Not a Fit",
}

// BuildPrompt composes the coaching prompt from the transcript so far and,
// when facial analysis produced samples this window, the emotion summary.
func BuildPrompt(transcriptSoFar string, summary *emotion.Summary) string {
	var b strings.Builder

	b.WriteString("You are a sales coach. Analyze this conversation")
	if summary != nil {
		b.WriteString(" and the customer's facial expressions")
	}
	b.WriteString(" and give a quick status update.\n\n")

	b.WriteString("CONVERSATION TRANSCRIPT:\n")
	b.WriteString(transcriptSoFar)
	b.WriteString("\n")

	if summary != nil {
		fmt.Fprintf(&b, "\nCUSTOMER FACIAL EXPRESSIONS (current window):\n")
		fmt.Fprintf(&b, "Dominant Emotion: %s (%.0f%% confidence)\n", summary.Dominant, summary.Confidence*100)
		fmt.Fprintf(&b, "Emotion Trajectory: %s\n", summary.Trend)
		b.WriteString("Breakdown:\n")
		for _, e := range topDistribution(summary.Distribution, 3) {
			fmt.Fprintf(&b, "- %s: %.0f%%\n", e.label, e.share*100)
		}
	}

	b.WriteString("\nRespond with ONLY valid JSON in this EXACT shape, no markdown:\n\n")
	b.WriteString("{\n")
	fmt.Fprintf(&b, "  \"status\": \"one of: %s\",\n", strings.Join(statuses, " | "))
	b.WriteString("  \"reason\": \"one short sentence why\",\n")
	b.WriteString("  \"recommendation\": \"exact phrase to say next, max 20 words\",\n")
	b.WriteString("  \"score\": 1-10\n")
	b.WriteString("}\n")

	return b.String()
}

// Parse extracts an Insight from the service response. The model sometimes
// wraps its JSON in markdown fences; those are tolerated. A malformed
// response is an error the caller recovers from by keeping the previous
// insight.
func Parse(raw string) (Insight, error) {
	var i Insight
	if err := json.Unmarshal([]byte(stripFences(raw)), &i); err != nil {
		return Insight{}, fmt.Errorf("malformed insight response: %w", err)
	}

	if i.Status == "" {
		return Insight{}, fmt.Errorf("insight response missing status")
	}

	if i.Score < 1 {
		i.Score = 1
	}
	if i.Score > 10 {
		i.Score = 10
	}

	return i, nil
}

func stripFences(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

type distributionEntry struct {
	label string
	share float64
}

func topDistribution(distribution map[string]float64, n int) []distributionEntry {
	entries := make([]distributionEntry, 0, len(distribution))
	for label, share := range distribution {
		entries = append(entries, distributionEntry{label, share})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].share != entries[j].share {
			return entries[i].share > entries[j].share
		}
		return entries[i].label < entries[j].label
	})

	if len(entries) > n {
		entries = entries[:n]
	}
	return entries
}
