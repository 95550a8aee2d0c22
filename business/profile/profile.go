// Package profile turns a finished call transcript into a structured
// customer profile and reconciles it with what is already stored.
package profile

import (
	"encoding/json"
	"fmt"
	"strings"
)

// CustomerProfile is the durable per-customer fact sheet. Detail lists
// behave as ordered sets; sales context is most-recent-first.
type CustomerProfile struct {
	CustomerID          string   `json:"customer_id"`
	Name                string   `json:"name"`
	PersonalDetails     []string `json:"personal_details"`
	ProfessionalDetails []string `json:"professional_details"`
	SalesContext        []string `json:"sales_context"`
}

// BuildExtractionPrompt asks the reasoning service for the profile JSON.
func BuildExtractionPrompt(fullTranscript string) string {
	var b strings.Builder

	b.WriteString("You are a customer intelligence analyst. Extract key information from this sales call transcript and structure it into a clean customer profile.\n\n")
	b.WriteString("TRANSCRIPT:\n")
	b.WriteString(fullTranscript)
	b.WriteString("\n\nExtract information and format as JSON with this EXACT structure:\n\n")
	b.WriteString(`{
  "name": "Customer name if mentioned, or null",
  "personal_details": ["Single line bullet point about personal life"],
  "professional_details": ["Single line bullet point about work/career"],
  "sales_context": ["Current provider: [Provider name]", "Current pain point: [Specific issue]"]
}`)
	b.WriteString("\n\nRULES:\n")
	b.WriteString("1. Each bullet must be ONE LINE only - concise and specific\n")
	b.WriteString("2. Only include information EXPLICITLY mentioned in the transcript\n")
	b.WriteString("3. If a category has no information, use an empty array []\n")
	b.WriteString("4. Be specific - include exact details\n")
	b.WriteString("5. Format sales_context bullets as \"Topic: Detail\"\n")
	b.WriteString("\nReturn ONLY valid JSON, no markdown formatting or explanation.")

	return b.String()
}

// ParseExtraction decodes the service response, tolerating markdown
// fences around the JSON body.
func ParseExtraction(raw string) (CustomerProfile, error) {
	var p CustomerProfile
	if err := json.Unmarshal([]byte(stripFences(raw)), &p); err != nil {
		return CustomerProfile{}, fmt.Errorf("malformed extraction response: %w", err)
	}
	return p, nil
}

// Merge reconciles a fresh extraction with the stored profile:
//   - detail lists are unioned, stored entries first, duplicates dropped;
//   - sales context is prepended so the newest call reads first;
//   - the name is overwritten only by a non-empty extraction.
//
// Merging the same extraction twice is a no-op.
func Merge(existing CustomerProfile, extracted CustomerProfile) CustomerProfile {
	merged := CustomerProfile{
		CustomerID: existing.CustomerID,
		Name:       existing.Name,
	}
	if merged.CustomerID == "" {
		merged.CustomerID = extracted.CustomerID
	}
	if extracted.Name != "" {
		merged.Name = extracted.Name
	}

	merged.PersonalDetails = union(existing.PersonalDetails, extracted.PersonalDetails)
	merged.ProfessionalDetails = union(existing.ProfessionalDetails, extracted.ProfessionalDetails)
	merged.SalesContext = prepend(existing.SalesContext, extracted.SalesContext)

	return merged
}

// union keeps base order and appends unseen entries from extra.
func union(base []string, extra []string) []string {
	seen := make(map[string]bool, len(base))
	out := make([]string, 0, len(base)+len(extra))

	for _, v := range base {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	for _, v := range extra {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}

// prepend puts unseen fresh entries ahead of the stored ones, preserving
// recency ordering across calls.
func prepend(base []string, fresh []string) []string {
	seen := make(map[string]bool, len(base))
	for _, v := range base {
		seen[v] = true
	}

	out := make([]string, 0, len(base)+len(fresh))
	for _, v := range fresh {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return append(out, base...)
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
