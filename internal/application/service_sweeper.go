package application

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
)

// ExpirePendingSessions cancels applications the seller never answered.
func (s *Service) ExpirePendingSessions(ctx context.Context) (int, error) {
	cutoff := s.nowFn().Add(-s.cfg.SessionPendingExpiry)
	stale, err := s.sessions.ListStalePending(ctx, cutoff, s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, session := range stale {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		campaign, err := s.campaigns.GetByID(ctx, session.CampaignID)
		if err != nil {
			return expired, err
		}
		if _, err := s.cancelSession(ctx, session, campaign, SystemActor.UserID, "expired"); err != nil {
			if errors.Is(err, domain.ErrConflict) {
				// Answered by the seller since the listing.
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// CompleteEndedCampaigns closes ACTIVE campaigns whose end date has passed.
func (s *Service) CompleteEndedCampaigns(ctx context.Context) (int, error) {
	ended, err := s.campaigns.ListEndedActive(ctx, s.nowFn(), s.cfg.SweepBatchSize)
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, campaign := range ended {
		if err := ctx.Err(); err != nil {
			return completed, err
		}
		ok, err := s.completeCampaign(ctx, campaign)
		if err != nil {
			return completed, err
		}
		if ok {
			completed++
		}
	}
	return completed, nil
}

// Sweep runs every periodic maintenance job once.
func (s *Service) Sweep(ctx context.Context) (SweepReport, error) {
	var report SweepReport
	var err error
	if report.ExpiredSessions, err = s.ExpirePendingSessions(ctx); err != nil {
		return report, err
	}
	if report.CompletedCampaigns, err = s.CompleteEndedCampaigns(ctx); err != nil {
		return report, err
	}
	if report.PurgedLogs, err = s.PurgeSystemLogs(ctx, 0); err != nil {
		return report, err
	}
	if report.ExpiredSessions+report.CompletedCampaigns > 0 || report.PurgedLogs > 0 {
		slog.Default().InfoContext(ctx, "sweep finished",
			"module", "application",
			"layer", "service",
			"operation", "sweep",
			"outcome", "success",
			"expired_sessions", report.ExpiredSessions,
			"completed_campaigns", report.CompletedCampaigns,
			"purged_logs", report.PurgedLogs,
		)
	}
	return report, nil
}
