package postgres

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

const campaignColumns = `
	id, user_id, instance_id, name, COALESCE(description, ''), message, COALESCE(template_id, ''), COALESCE(media_url, ''),
	status, settings, COALESCE(cursor, ''::bytea), COALESCE(status_reason, ''),
	scheduled_at, started_at, completed_at, created_at, updated_at`

type campaignRepo struct {
	db *DB
}

func NewCampaignRepository(db *DB) *campaignRepo {
	return &campaignRepo{db: db}
}

func (r *campaignRepo) Create(ctx context.Context, c model.Campaign) (model.Campaign, error) {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return model.Campaign{}, err
	}

	query := `
		INSERT INTO campaigns (id, user_id, instance_id, name, description, message, template_id, media_url, status, settings, cursor, status_reason, scheduled_at, started_at, completed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err = r.db.Pool.Exec(ctx, query,
		c.ID, c.UserID, c.InstanceID, c.Name, nullIfEmpty(c.Description), c.Message, nullIfEmpty(c.TemplateID), nullIfEmpty(c.MediaURL),
		string(c.Status), settings, c.Cursor, nullIfEmpty(c.StatusReason),
		c.ScheduledAt, c.StartedAt, c.CompletedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return model.Campaign{}, err
	}

	return c, nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = $1`

	c, err := scanCampaign(r.db.Pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return model.Campaign{}, ErrNotFound
	}
	if err != nil {
		return model.Campaign{}, err
	}
	return c, nil
}

func (r *campaignRepo) ListByUser(ctx context.Context, userID string) ([]model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

func (r *campaignRepo) ListByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE status = $1 ORDER BY created_at`

	rows, err := r.db.Pool.Query(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

func (r *campaignRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE status = 'SCHEDULED' AND scheduled_at <= $1 ORDER BY scheduled_at`

	rows, err := r.db.Pool.Query(ctx, query, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

func (r *campaignRepo) Update(ctx context.Context, c model.Campaign) (model.Campaign, error) {
	c.UpdatedAt = time.Now()

	settings, err := json.Marshal(c.Settings)
	if err != nil {
		return model.Campaign{}, err
	}

	query := `
		UPDATE campaigns
		SET name = $2, description = $3, message = $4, template_id = $5, media_url = $6, instance_id = $7, settings = $8, scheduled_at = $9, updated_at = $10
		WHERE id = $1
		RETURNING created_at
	`

	err = r.db.Pool.QueryRow(ctx, query,
		c.ID, c.Name, nullIfEmpty(c.Description), c.Message, nullIfEmpty(c.TemplateID), nullIfEmpty(c.MediaURL), c.InstanceID, settings, c.ScheduledAt, c.UpdatedAt,
	).Scan(&c.CreatedAt)

	if err == pgx.ErrNoRows {
		return model.Campaign{}, ErrNotFound
	}
	if err != nil {
		return model.Campaign{}, err
	}

	return c, nil
}

func (r *campaignRepo) UpdateState(ctx context.Context, c model.Campaign) error {
	query := `
		UPDATE campaigns
		SET status = $2, status_reason = $3, cursor = $4, scheduled_at = $5, started_at = $6, completed_at = $7, updated_at = $8
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		c.ID, string(c.Status), nullIfEmpty(c.StatusReason), c.Cursor, c.ScheduledAt, c.StartedAt, c.CompletedAt, time.Now(),
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) SaveCursor(ctx context.Context, id string, cursor []byte) error {
	query := `UPDATE campaigns SET cursor = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.Pool.Exec(ctx, query, id, cursor, time.Now())
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM campaigns WHERE id = $1`
	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) CountStartedByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM campaigns WHERE user_id = $1 AND started_at IS NOT NULL`

	var count int
	if err := r.db.Pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanCampaign(row rowScanner) (model.Campaign, error) {
	var (
		c        model.Campaign
		settings []byte
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.InstanceID, &c.Name, &c.Description, &c.Message, &c.TemplateID, &c.MediaURL,
		&c.Status, &settings, &c.Cursor, &c.StatusReason,
		&c.ScheduledAt, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Campaign{}, err
	}
	if len(settings) > 0 {
		if err := json.Unmarshal(settings, &c.Settings); err != nil {
			return model.Campaign{}, err
		}
	}
	return c, nil
}

func collectCampaigns(rows pgx.Rows) ([]model.Campaign, error) {
	var campaigns []model.Campaign
	for rows.Next() {
		c, err := scanCampaign(rows)
		if err != nil {
			return nil, err
		}
		campaigns = append(campaigns, c)
	}
	return campaigns, rows.Err()
}
