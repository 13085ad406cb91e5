package validator

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/e-serbisyo/engage/internal/app/ledger"
	"github.com/e-serbisyo/engage/internal/domain"
)

// Ledger is the crediting surface CreditAward drives.
type Ledger interface {
	AwardEventPoints(ctx context.Context, userID string, points int64, metadata map[string]string) (*ledger.AwardResult, error)
}

// CreditedEvent is one successfully credited event.
type CreditedEvent struct {
	EventID string              `json:"event_id"`
	Points  int64               `json:"points"`
	Result  *ledger.AwardResult `json:"result"`
}

// CreditResult summarizes one credit flow.
type CreditResult struct {
	Credited    []CreditedEvent `json:"credited"`
	TotalPoints int64           `json:"total_points"`
}

// CreditAward turns an authorized validation into ledger credits: one
// event-completion award per valid event, each followed by the award record
// that closes the duplicate-detection loop.
//
// Duplicate warnings block crediting unless the caller passes
// acknowledgeDuplicates — the override is a deliberate act, never a default.
// Acknowledged duplicates are skipped, not re-credited: the override lets
// the rest of the batch proceed.
func (s *Service) CreditAward(ctx context.Context, res *ValidationResult, acknowledgeDuplicates bool) (*CreditResult, error) {
	if s.ledger == nil {
		return nil, fmt.Errorf("credit: no ledger wired")
	}
	if res == nil || !res.Authorized || res.TargetUser == nil || res.Operator == nil {
		return nil, domain.ErrNotAuthorized
	}
	if len(res.Warnings) > 0 && !acknowledgeDuplicates {
		return nil, fmt.Errorf("%w: %d prior award(s) found", domain.ErrDuplicatesUnacked, len(res.Warnings))
	}

	dup := make(map[string]bool, len(res.Warnings))
	for _, w := range res.Warnings {
		dup[w.EventID] = true
	}

	out := &CreditResult{}
	for _, ee := range res.ValidEvents {
		if dup[ee.EventID] {
			continue
		}
		meta := map[string]string{
			domain.MetaEventID:    ee.EventID,
			domain.MetaEventTitle: ee.Event.Title,
			domain.MetaOperatorID: res.Operator.ID,
		}
		award, err := s.ledger.AwardEventPoints(ctx, res.TargetUser.ID, ee.Event.Points, meta)
		if err != nil {
			return out, fmt.Errorf("credit event %s: %w", ee.EventID, err)
		}
		rec := domain.PointAwardRecord{
			ID:         uuid.NewString(),
			UserID:     res.TargetUser.ID,
			EventID:    ee.EventID,
			OperatorID: res.Operator.ID,
			Points:     ee.Event.Points,
			CreatedAt:  s.now(),
		}
		if err := s.store.AppendAward(ctx, rec); err != nil {
			return out, fmt.Errorf("%w: append award: %v", domain.ErrPersistence, err)
		}
		out.Credited = append(out.Credited, CreditedEvent{
			EventID: ee.EventID,
			Points:  ee.Event.Points,
			Result:  award,
		})
		out.TotalPoints += ee.Event.Points
	}

	s.audit(ctx, res, out)
	return out, nil
}

// audit records the credit outcome alongside the validation trail.
func (s *Service) audit(ctx context.Context, res *ValidationResult, out *CreditResult) {
	ids := make([]string, len(out.Credited))
	issues := make([]string, 0, 1)
	for i, c := range out.Credited {
		ids[i] = c.EventID
	}
	issues = append(issues, fmt.Sprintf("credited %d event(s) for %d points", len(out.Credited), out.TotalPoints))
	_ = s.store.AppendAudit(ctx, domain.AuditEntry{
		ID:         uuid.NewString(),
		OperatorID: res.Operator.ID,
		TargetID:   res.TargetUser.ID,
		EventIDs:   ids,
		Authorized: true,
		Issues:     issues,
		CreatedAt:  s.now(),
	})
}
