// Package supabase persists customer profiles and conversation records to
// the shared Supabase project (tables customers and conversations).
package supabase

import (
	"context"
	"fmt"
	"time"

	"github.com/supabase-community/supabase-go"
)

// CustomerRow mirrors the customers table.
type CustomerRow struct {
	CustomerID          string   `json:"customer_id"`
	Name                string   `json:"name"`
	PersonalDetails     []string `json:"personal_details"`
	ProfessionalDetails []string `json:"professional_details"`
	SalesContext        []string `json:"sales_context"`
}

// ConversationRow mirrors the conversations table. CustomerID stays nil
// when no identity was ever locked during the call.
type ConversationRow struct {
	ID             string    `json:"id"`
	CustomerID     *string   `json:"customer_id"`
	StartedAt      time.Time `json:"started_at"`
	FullTranscript string    `json:"full_transcript"`
	Insights       []string  `json:"insights"`
}

type Store struct {
	client *supabase.Client
}

func New(projectURL string, apiKey string) (*Store, error) {
	if projectURL == "" {
		return nil, fmt.Errorf("supabase URL is required")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("supabase API key is required")
	}

	client, err := supabase.NewClient(projectURL, apiKey, nil)
	if err != nil {
		return nil, fmt.Errorf("supabase client: %w", err)
	}

	return &Store{client: client}, nil
}

// GetCustomer returns the stored profile row, or nil when the customer has
// no profile yet.
func (s *Store) GetCustomer(ctx context.Context, customerID string) (*CustomerRow, error) {
	var rows []CustomerRow
	_, err := s.client.From("customers").
		Select("*", "", false).
		Eq("customer_id", customerID).
		ExecuteTo(&rows)
	if err != nil {
		return nil, fmt.Errorf("get customer %s: %w", customerID, err)
	}

	if len(rows) == 0 {
		return nil, nil
	}
	return &rows[0], nil
}

// UpsertCustomer writes the merged profile keyed by customer_id.
func (s *Store) UpsertCustomer(ctx context.Context, row CustomerRow) error {
	_, _, err := s.client.From("customers").
		Upsert(row, "customer_id", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("upsert customer %s: %w", row.CustomerID, err)
	}
	return nil
}

// AppendConversation inserts one completed-call record.
func (s *Store) AppendConversation(ctx context.Context, row ConversationRow) error {
	_, _, err := s.client.From("conversations").
		Insert(row, false, "", "", "").
		Execute()
	if err != nil {
		return fmt.Errorf("append conversation %s: %w", row.ID, err)
	}
	return nil
}
