package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

const campaignColumns = `
	id, user_id, instance_id, name, description, message, template_id, media_url,
	status, settings, cursor, status_reason,
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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Conn.ExecContext(ctx, query,
		c.ID, c.UserID, c.InstanceID, c.Name, c.Description, c.Message, c.TemplateID, c.MediaURL,
		string(c.Status), string(settings), c.Cursor, c.StatusReason,
		c.ScheduledAt, c.StartedAt, c.CompletedAt, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return model.Campaign{}, err
	}

	return c, nil
}

func (r *campaignRepo) GetByID(ctx context.Context, id string) (model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE id = ?`

	c, err := scanCampaign(r.db.Conn.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return model.Campaign{}, ErrNotFound
	}
	if err != nil {
		return model.Campaign{}, err
	}
	return c, nil
}

func (r *campaignRepo) ListByUser(ctx context.Context, userID string) ([]model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE user_id = ? ORDER BY created_at DESC`

	rows, err := r.db.Conn.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

func (r *campaignRepo) ListByStatus(ctx context.Context, status model.CampaignStatus) ([]model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE status = ? ORDER BY created_at`

	rows, err := r.db.Conn.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCampaigns(rows)
}

func (r *campaignRepo) ListDueScheduled(ctx context.Context, now time.Time) ([]model.Campaign, error) {
	query := `SELECT` + campaignColumns + ` FROM campaigns WHERE status = 'SCHEDULED' AND scheduled_at <= ? ORDER BY scheduled_at`

	rows, err := r.db.Conn.QueryContext(ctx, query, now)
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
		SET name = ?, description = ?, message = ?, template_id = ?, media_url = ?, instance_id = ?, settings = ?, scheduled_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Conn.ExecContext(ctx, query,
		c.Name, c.Description, c.Message, c.TemplateID, c.MediaURL, c.InstanceID, string(settings), c.ScheduledAt, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return model.Campaign{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return model.Campaign{}, err
	}
	if affected == 0 {
		return model.Campaign{}, ErrNotFound
	}

	return c, nil
}

func (r *campaignRepo) UpdateState(ctx context.Context, c model.Campaign) error {
	query := `
		UPDATE campaigns
		SET status = ?, status_reason = ?, cursor = ?, scheduled_at = ?, started_at = ?, completed_at = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Conn.ExecContext(ctx, query,
		string(c.Status), c.StatusReason, c.Cursor, c.ScheduledAt, c.StartedAt, c.CompletedAt, time.Now(), c.ID,
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) SaveCursor(ctx context.Context, id string, cursor []byte) error {
	query := `UPDATE campaigns SET cursor = ?, updated_at = ? WHERE id = ?`

	result, err := r.db.Conn.ExecContext(ctx, query, cursor, time.Now(), id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM campaigns WHERE id = ?`
	result, err := r.db.Conn.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *campaignRepo) CountStartedByUser(ctx context.Context, userID string) (int, error) {
	query := `SELECT COUNT(*) FROM campaigns WHERE user_id = ? AND started_at IS NOT NULL`

	var count int
	if err := r.db.Conn.QueryRowContext(ctx, query, userID).Scan(&count); err != nil {
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
		settings sql.NullString
	)
	err := row.Scan(
		&c.ID, &c.UserID, &c.InstanceID, &c.Name, &c.Description, &c.Message, &c.TemplateID, &c.MediaURL,
		&c.Status, &settings, &c.Cursor, &c.StatusReason,
		&c.ScheduledAt, &c.StartedAt, &c.CompletedAt, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return model.Campaign{}, err
	}
	if settings.Valid && settings.String != "" {
		if err := json.Unmarshal([]byte(settings.String), &c.Settings); err != nil {
			return model.Campaign{}, err
		}
	}
	return c, nil
}

func collectCampaigns(rows *sql.Rows) ([]model.Campaign, error) {
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
