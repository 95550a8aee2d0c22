package worker

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/voxelapi/goVoxelCoach/business/profile"
	"github.com/voxelapi/goVoxelCoach/foundation/supabase"
)

// finalize persists the finished call. The conversation record is always
// written, identity or not. The profile extraction and merge run only for
// a locked customer; every failure along the way is logged and the session
// still terminates.
func (w *Worker) finalize() error {
	w.logger.Infow("worker: finalize: started")
	defer w.logger.Infow("worker: finalize: completed")

	ctx, cancel := context.WithTimeout(context.Background(), finalizeTimeout)
	defer cancel()

	fullTranscript := w.transcript.FullText()
	customerID := w.CustomerID()

	var firstErr error

	row := supabase.ConversationRow{
		ID:             w.config.ConversationID,
		StartedAt:      w.startedAt,
		FullTranscript: fullTranscript,
		Insights:       encodeInsights(w),
	}
	if customerID != "" {
		row.CustomerID = &customerID
	}

	if err := w.persist.AppendConversation(ctx, row); err != nil {
		w.logger.Errorw("worker: finalize", "ERROR", err)
		firstErr = err
	} else {
		w.logger.Infow("worker: finalize: conversation saved", "conversationID", row.ID, "chunks", w.transcript.Len())
	}

	if customerID == "" {
		w.logger.Infow("worker: finalize: no identity locked, profile merge skipped")
		return firstErr
	}
	if strings.TrimSpace(fullTranscript) == "" {
		w.logger.Infow("worker: finalize: empty transcript, profile merge skipped")
		return firstErr
	}

	if err := w.mergeProfile(ctx, customerID, fullTranscript); err != nil {
		w.logger.Errorw("worker: finalize", "ERROR", err)
		if firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// mergeProfile extracts a profile from the transcript and reconciles it
// with whatever is already stored for the customer.
func (w *Worker) mergeProfile(ctx context.Context, customerID string, fullTranscript string) error {
	raw, err := w.reasoner.Generate(ctx, w.config.ExtractModel, profile.BuildExtractionPrompt(fullTranscript))
	if err != nil {
		return err
	}

	extracted, err := profile.ParseExtraction(raw)
	if err != nil {
		return err
	}

	existing := profile.CustomerProfile{CustomerID: customerID}
	stored, err := w.persist.GetCustomer(ctx, customerID)
	if err != nil {
		w.logger.Errorw("worker: finalize: merging against empty profile", "ERROR", err)
	} else if stored != nil {
		existing = profile.CustomerProfile{
			CustomerID:          stored.CustomerID,
			Name:                stored.Name,
			PersonalDetails:     stored.PersonalDetails,
			ProfessionalDetails: stored.ProfessionalDetails,
			SalesContext:        stored.SalesContext,
		}
	}

	merged := profile.Merge(existing, extracted)
	merged.CustomerID = customerID

	if err := w.persist.UpsertCustomer(ctx, supabase.CustomerRow{
		CustomerID:          merged.CustomerID,
		Name:                merged.Name,
		PersonalDetails:     merged.PersonalDetails,
		ProfessionalDetails: merged.ProfessionalDetails,
		SalesContext:        merged.SalesContext,
	}); err != nil {
		return err
	}

	w.logger.Infow("worker: finalize: profile merged", "customerID", customerID)
	return nil
}

func encodeInsights(w *Worker) []string {
	all := w.history.All()
	out := make([]string, 0, len(all))
	for _, ins := range all {
		b, err := json.Marshal(ins)
		if err != nil {
			continue
		}
		out = append(out, string(b))
	}
	return out
}
