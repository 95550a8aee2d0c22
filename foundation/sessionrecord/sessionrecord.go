// Package sessionrecord is the shared session record both processes work
// against: the face-lock process writes the identity fields, the analysis
// process writes the insight field. Readers tolerate staleness up to their
// polling interval; no field has more than one writer.
package sessionrecord

import "context"

const (
	StatusIdle   = "idle"
	StatusActive = "active"

	ConfidenceDetecting = "detecting"
	ConfidenceStable    = "stable"
)

// Record is one logical session row.
type Record struct {
	ID                string `json:"id"`
	Status            string `json:"status"`
	CurrentCustomerID string `json:"current_customer_id"`
	ConfidenceLevel   string `json:"confidence_level"`
	CurrentInsight    string `json:"current_insight"`
}

// Store is the key-value view of the record. Get returns a zero-valued
// Record (not an error) when the session has never been written.
type Store interface {
	Get(ctx context.Context, id string) (Record, error)

	// SetInsight writes the field owned by the analysis process.
	SetInsight(ctx context.Context, id string, insightJSON string) error

	// SetIdentity writes the fields owned by the face-lock process.
	SetIdentity(ctx context.Context, id string, status string, customerID string, confidence string) error

	Close() error
}
