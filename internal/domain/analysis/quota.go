package analysis

import (
	"context"

	apperrors "github.com/yanqian/adlens/pkg/errors"
	"github.com/yanqian/adlens/pkg/util"
)

// Quota reports the user's usage for the current calendar day (server clock,
// local midnight), derived from counting history rows. The count-then-gate
// sequence is not atomic: concurrent requests at the boundary can both pass.
// The overshoot is bounded by concurrency and self-corrects on the next
// request, so the window is left unguarded.
func (s *Service) Quota(ctx context.Context, userID int64) (QuotaState, error) {
	if userID == 0 {
		return QuotaState{}, apperrors.Wrap("unauthorized", "missing user", nil)
	}
	used, err := s.usedToday(ctx, userID)
	if err != nil {
		return QuotaState{}, err
	}
	return quotaState(used, s.cfg.DailyLimit), nil
}

func (s *Service) usedToday(ctx context.Context, userID int64) (int, error) {
	used, err := s.history.CountSince(ctx, userID, util.StartOfDay(s.clock()))
	if err != nil {
		return 0, apperrors.Wrap("storage_error", "failed to count today's analyses", err)
	}
	return used, nil
}

func quotaState(used, limit int) QuotaState {
	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return QuotaState{Used: used, Remaining: remaining, Limit: limit}
}
