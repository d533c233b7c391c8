package application

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
)

func (s *Service) ListSystemLogs(ctx context.Context, actor Actor, query SystemLogQuery) (Page[domain.SystemLog], error) {
	if err := requireAdmin(actor); err != nil {
		return Page[domain.SystemLog]{}, err
	}
	limit, offset := domain.NormalizePage(query.Limit, query.Offset)
	filter := ports.SystemLogFilter{
		Level:    domain.LogLevel(strings.ToUpper(strings.TrimSpace(query.Level))),
		Category: domain.LogCategory(strings.ToUpper(strings.TrimSpace(query.Category))),
		UserID:   query.UserID,
		From:     query.From,
		To:       query.To,
		Limit:    limit,
		Offset:   offset,
	}
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return Page[domain.SystemLog]{}, fmt.Errorf("%w: to is before from", domain.ErrInvalidInput)
	}
	items, total, err := s.systemLogs.List(ctx, filter)
	if err != nil {
		return Page[domain.SystemLog]{}, err
	}
	return Page[domain.SystemLog]{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

// PurgeSystemLogs deletes log rows older than the given age. A zero age uses
// the configured retention.
func (s *Service) PurgeSystemLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = s.cfg.LogRetention
	}
	removed, err := s.systemLogs.PurgeBefore(ctx, s.nowFn().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		s.recordLog(ctx, domain.LogLevelInfo, domain.LogCategorySystem, "system logs purged", nil, map[string]string{"removed": fmt.Sprint(removed)})
	}
	return removed, nil
}

func (s *Service) GetPlatformStats(ctx context.Context, actor Actor) (PlatformStats, error) {
	if err := requireAdmin(actor); err != nil {
		return PlatformStats{}, err
	}
	users, err := s.users.CountByRole(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	campaigns, err := s.campaigns.CountByStatus(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	sessions, err := s.sessions.CountByStatus(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	openDisputes, err := s.disputes.CountOpen(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	pending, err := s.withdrawals.CountByStatus(ctx, domain.WithdrawalPending)
	if err != nil {
		return PlatformStats{}, err
	}
	balances, err := s.wallets.TotalBalance(ctx)
	if err != nil {
		return PlatformStats{}, err
	}
	return PlatformStats{
		UsersByRole:        users,
		CampaignsByStatus:  campaigns,
		SessionsByStatus:   sessions,
		OpenDisputes:       openDisputes,
		PendingWithdrawals: pending,
		WalletBalances:     balances,
	}, nil
}

var (
	uploadContentTypes = map[string][]string{
		"PURCHASE_PROOF":   {"image/jpeg", "image/png", "image/webp", "application/pdf"},
		"TEST_MEDIA":       {"image/jpeg", "image/png", "image/webp", "video/mp4", "video/quicktime"},
		"BONUS_MEDIA":      {"image/jpeg", "image/png", "image/webp", "video/mp4", "video/quicktime"},
		"DISPUTE_EVIDENCE": {"image/jpeg", "image/png", "image/webp", "application/pdf", "video/mp4"},
		"PRODUCT_IMAGE":    {"image/jpeg", "image/png", "image/webp"},
		"AVATAR":           {"image/jpeg", "image/png", "image/webp"},
	}
	extensionPattern = regexp.MustCompile(`^\.[a-z0-9]{1,8}$`)
)

// PresignUpload returns a short-lived URL the client uploads the file to directly.
func (s *Service) PresignUpload(ctx context.Context, actor Actor, input PresignInput) (ports.PresignedUpload, error) {
	if actor.UserID == uuid.Nil {
		return ports.PresignedUpload{}, domain.ErrUnauthorized
	}
	kind := strings.ToUpper(strings.TrimSpace(input.Kind))
	allowed, ok := uploadContentTypes[kind]
	if !ok {
		return ports.PresignedUpload{}, fmt.Errorf("%w: unknown upload kind %q", domain.ErrInvalidInput, input.Kind)
	}
	contentType := strings.ToLower(strings.TrimSpace(input.ContentType))
	if !slices.Contains(allowed, contentType) {
		return ports.PresignedUpload{}, fmt.Errorf("%w: content type %q is not allowed for %s", domain.ErrInvalidInput, input.ContentType, kind)
	}
	if kind == "PRODUCT_IMAGE" && actor.Role != domain.RoleSeller {
		return ports.PresignedUpload{}, domain.ErrForbidden
	}
	if s.storage == nil {
		return ports.PresignedUpload{}, fmt.Errorf("%w: object storage is not configured", domain.ErrDependencyUnavailable)
	}
	ext := strings.ToLower(path.Ext(strings.TrimSpace(input.FileName)))
	if !extensionPattern.MatchString(ext) {
		ext = ""
	}
	key := strings.ToLower(kind) + "/" + actor.UserID.String() + "/" + uuid.NewString() + ext
	upload, err := s.storage.PresignPut(ctx, key, contentType, s.cfg.UploadURLTTL)
	if err != nil {
		return ports.PresignedUpload{}, fmt.Errorf("%w: %v", domain.ErrDependencyUnavailable, err)
	}
	return upload, nil
}
