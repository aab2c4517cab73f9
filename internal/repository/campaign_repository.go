package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/tourism-service/internal/domain"
)

// CampaignRepository persists marketing campaigns.
type CampaignRepository interface {
	Create(ctx context.Context, campaign *domain.Campaign) error
	ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Campaign, error)
	// Claim moves a scheduled campaign to sending and reports whether this
	// caller won it.
	Claim(ctx context.Context, id string) (bool, error)
	MarkSent(ctx context.Context, id string, recipients int, sentAt time.Time) error
	MarkFailed(ctx context.Context, id string) error
}

type campaignRepository struct {
	db DB
}

// NewCampaignRepository instantiates repository.
func NewCampaignRepository(db DB) CampaignRepository {
	return &campaignRepository{db: db}
}

func (r *campaignRepository) Create(ctx context.Context, campaign *domain.Campaign) error {
	const query = `
        INSERT INTO campaigns (name, type, subject, message, target_segment, scheduled_date, status, created_by)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING id, recipient_count, created_at`
	return r.db.QueryRow(ctx, query,
		campaign.Name,
		campaign.Type,
		campaign.Subject,
		campaign.Message,
		campaign.TargetSegment,
		campaign.ScheduledDate,
		campaign.Status,
		campaign.CreatedBy,
	).Scan(&campaign.ID, &campaign.RecipientCount, &campaign.CreatedAt)
}

func (r *campaignRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]domain.Campaign, error) {
	const query = `
        SELECT id, name, type, subject, message, target_segment, scheduled_date, status, recipient_count,
               created_by, created_at, sent_at
        FROM campaigns
        WHERE status=$1 AND scheduled_date <= $2
        ORDER BY scheduled_date
        LIMIT $3`

	rows, err := r.db.Query(ctx, query, domain.CampaignScheduled, now, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var campaigns []domain.Campaign
	for rows.Next() {
		var c domain.Campaign
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.Type,
			&c.Subject,
			&c.Message,
			&c.TargetSegment,
			&c.ScheduledDate,
			&c.Status,
			&c.RecipientCount,
			&c.CreatedBy,
			&c.CreatedAt,
			&c.SentAt,
		); err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}

func (r *campaignRepository) Claim(ctx context.Context, id string) (bool, error) {
	cmd, err := r.db.Exec(ctx,
		`UPDATE campaigns SET status=$1 WHERE id=$2 AND status=$3`,
		domain.CampaignSending, id, domain.CampaignScheduled)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *campaignRepository) MarkSent(ctx context.Context, id string, recipients int, sentAt time.Time) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE campaigns SET status=$1, recipient_count=$2, sent_at=$3 WHERE id=$4`,
		domain.CampaignSent, recipients, sentAt, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *campaignRepository) MarkFailed(ctx context.Context, id string) error {
	_, err := r.db.Exec(ctx, `UPDATE campaigns SET status=$1 WHERE id=$2`, domain.CampaignFailed, id)
	return err
}
