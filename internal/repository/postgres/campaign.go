package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/ignite/minicrm/internal/domain"
	"github.com/ignite/minicrm/internal/service/campaign"
)

// CampaignRepo provides campaign and communication log persistence.
type CampaignRepo struct{ db *sql.DB }

// NewCampaignRepo creates a Postgres-backed campaign repository.
func NewCampaignRepo(db *sql.DB) *CampaignRepo { return &CampaignRepo{db: db} }

// Create inserts a new campaign and returns its ID.
func (r *CampaignRepo) Create(ctx context.Context, c *domain.Campaign) (string, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, segment_id, message, sent, failed, audience_size)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, c.ID, c.Name, c.SegmentID, c.Message, c.Stats.Sent, c.Stats.Failed, c.Stats.AudienceSize)
	if err != nil {
		return "", fmt.Errorf("insert campaign: %w", err)
	}
	return c.ID, nil
}

const campaignColumns = `id, name, segment_id, message, sent, failed, audience_size, created_at`

// List returns all campaigns, newest first.
func (r *CampaignRepo) List(ctx context.Context) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	out := []domain.Campaign{}
	for rows.Next() {
		var c domain.Campaign
		if err := scanCampaign(rows, &c); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Count returns the number of campaigns.
func (r *CampaignRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM campaigns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count campaigns: %w", err)
	}
	return n, nil
}

// Get returns a single campaign, or campaign.ErrNotFound.
func (r *CampaignRepo) Get(ctx context.Context, id string) (*domain.Campaign, error) {
	c := &domain.Campaign{}
	err := scanCampaign(r.db.QueryRowContext(ctx,
		`SELECT `+campaignColumns+` FROM campaigns WHERE id = $1`, id), c)
	if err == sql.ErrNoRows {
		return nil, campaign.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign: %w", err)
	}
	return c, nil
}

// UpdateStats overwrites a campaign's delivery stats.
func (r *CampaignRepo) UpdateStats(ctx context.Context, id string, stats domain.CampaignStats) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE campaigns SET sent = $2, failed = $3, audience_size = $4 WHERE id = $1
	`, id, stats.Sent, stats.Failed, stats.AudienceSize)
	if err != nil {
		return fmt.Errorf("update campaign stats: %w", err)
	}
	return nil
}

// InsertLog records one delivery attempt.
func (r *CampaignRepo) InsertLog(ctx context.Context, log *domain.CommunicationLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO communication_logs
			(id, campaign_id, customer_id, customer_name, customer_email, status, message, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, log.ID, log.CampaignID, log.CustomerID, log.CustomerName, log.CustomerEmail,
		log.Status, log.Message, log.SentAt)
	if err != nil {
		return fmt.Errorf("insert communication log: %w", err)
	}
	return nil
}

// ListLogs returns the delivery log for a campaign, newest first.
func (r *CampaignRepo) ListLogs(ctx context.Context, campaignID string) ([]domain.CommunicationLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, campaign_id, customer_id, customer_name, customer_email, status, message, sent_at
		FROM communication_logs WHERE campaign_id = $1 ORDER BY sent_at DESC
	`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("list communication logs: %w", err)
	}
	defer rows.Close()

	out := []domain.CommunicationLog{}
	for rows.Next() {
		var l domain.CommunicationLog
		if err := rows.Scan(&l.ID, &l.CampaignID, &l.CustomerID, &l.CustomerName,
			&l.CustomerEmail, &l.Status, &l.Message, &l.SentAt); err != nil {
			return nil, fmt.Errorf("scan communication log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func scanCampaign(row rowScanner, c *domain.Campaign) error {
	return row.Scan(&c.ID, &c.Name, &c.SegmentID, &c.Message,
		&c.Stats.Sent, &c.Stats.Failed, &c.Stats.AudienceSize, &c.CreatedAt)
}
