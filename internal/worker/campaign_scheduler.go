package worker

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/domain"
	"github.com/spec-kit/tourism-service/internal/notify"
	"github.com/spec-kit/tourism-service/internal/repository"
)

const campaignBatchSize = 20

// CampaignScheduler dispatches scheduled campaigns once they are due.
type CampaignScheduler struct {
	campaigns repository.CampaignRepository
	reports   repository.ReportRepository
	renderer  *notify.Renderer
	notifier  notify.Notifier
	logger    *zap.Logger
	now       func() time.Time
}

// NewCampaignScheduler builds a scheduler.
func NewCampaignScheduler(campaigns repository.CampaignRepository, reports repository.ReportRepository, renderer *notify.Renderer, notifier notify.Notifier, logger *zap.Logger) *CampaignScheduler {
	return &CampaignScheduler{
		campaigns: campaigns,
		reports:   reports,
		renderer:  renderer,
		notifier:  notifier,
		logger:    logger,
		now:       time.Now,
	}
}

// Start runs DispatchDue on the cron spec until ctx is cancelled. Runs never
// overlap.
func (s *CampaignScheduler) Start(ctx context.Context, spec string) error {
	logger := cronLogger{s.logger.Sugar()}
	c := cron.New(cron.WithLogger(logger), cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)))
	if _, err := c.AddFunc(spec, func() {
		if err := s.DispatchDue(ctx); err != nil {
			s.logger.Error("campaign dispatch", zap.Error(err))
		}
	}); err != nil {
		return fmt.Errorf("campaign schedule %q: %w", spec, err)
	}
	c.Start()
	s.logger.Info("campaign scheduler started", zap.String("schedule", spec))

	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
		s.logger.Info("campaign scheduler stopped")
	}()
	return nil
}

// DispatchDue sends every campaign whose scheduled date has passed. Each
// campaign is claimed first, so it is sent at most once across runs and
// replicas.
func (s *CampaignScheduler) DispatchDue(ctx context.Context) error {
	due, err := s.campaigns.ListDue(ctx, s.now(), campaignBatchSize)
	if err != nil {
		return fmt.Errorf("list due campaigns: %w", err)
	}
	for i := range due {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		claimed, err := s.campaigns.Claim(ctx, due[i].ID)
		if err != nil {
			return fmt.Errorf("claim campaign %s: %w", due[i].ID, err)
		}
		if !claimed {
			continue
		}
		s.dispatch(ctx, &due[i])
	}
	return nil
}

func (s *CampaignScheduler) dispatch(ctx context.Context, campaign *domain.Campaign) {
	logger := s.logger.With(zap.String("campaign_id", campaign.ID), zap.String("segment", string(campaign.TargetSegment)))

	// Only email has a delivery channel so far.
	if campaign.Type != domain.CampaignEmail {
		if err := s.campaigns.MarkSent(ctx, campaign.ID, 0, s.now().UTC()); err != nil {
			logger.Error("mark campaign sent", zap.Error(err))
		}
		return
	}

	recipients, err := s.reports.SegmentRecipients(ctx, campaign.TargetSegment, s.now())
	if err != nil {
		logger.Error("resolve campaign recipients", zap.Error(err))
		s.fail(ctx, logger, campaign)
		return
	}

	sent := 0
	for _, rcpt := range recipients {
		msg, err := s.renderer.Campaign(campaign, rcpt)
		if err != nil {
			logger.Error("render campaign", zap.Error(err))
			s.fail(ctx, logger, campaign)
			return
		}
		if err := s.notifier.Notify(ctx, msg); err != nil {
			logger.Warn("campaign email not queued", zap.String("account_id", rcpt.AccountID), zap.Error(err))
			continue
		}
		sent++
	}

	if len(recipients) > 0 && sent == 0 {
		s.fail(ctx, logger, campaign)
		return
	}
	if err := s.campaigns.MarkSent(ctx, campaign.ID, sent, s.now().UTC()); err != nil {
		logger.Error("mark campaign sent", zap.Error(err))
		return
	}
	logger.Info("campaign dispatched", zap.Int("recipients", sent))
}

func (s *CampaignScheduler) fail(ctx context.Context, logger *zap.Logger, campaign *domain.Campaign) {
	if err := s.campaigns.MarkFailed(ctx, campaign.ID); err != nil {
		logger.Error("mark campaign failed", zap.Error(err))
	}
}

// cronLogger routes cron's own logging through zap.
type cronLogger struct {
	sugar *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, append(keysAndValues, "error", err)...)
}
