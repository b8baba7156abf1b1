package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

type recipientRepo struct {
	db *DB
}

func NewRecipientRepository(db *DB) *recipientRepo {
	return &recipientRepo{db: db}
}

func (r *recipientRepo) BulkCreate(ctx context.Context, recipients []model.CampaignRecipient) error {
	if len(recipients) == 0 {
		return nil
	}

	tx, err := r.db.Conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	query := `
		INSERT INTO campaign_recipients (id, campaign_id, position, phone, variables, status, gateway_message_id, sent_at, error, retry_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i := range recipients {
		rec := &recipients[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		variables, err := json.Marshal(rec.Variables)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx,
			rec.ID, rec.CampaignID, rec.Position, rec.Phone, string(variables),
			string(rec.Status), rec.GatewayMessageID, rec.SentAt, rec.Error, rec.RetryCount,
		); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *recipientRepo) ListByCampaign(ctx context.Context, campaignID string) ([]model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, position, phone, variables, status, gateway_message_id, sent_at, error, retry_count
		FROM campaign_recipients
		WHERE campaign_id = ?
		ORDER BY position
	`

	rows, err := r.db.Conn.QueryContext(ctx, query, campaignID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipients []model.CampaignRecipient
	for rows.Next() {
		rec, err := scanRecipient(rows)
		if err != nil {
			return nil, err
		}
		recipients = append(recipients, rec)
	}
	return recipients, rows.Err()
}

func (r *recipientRepo) Update(ctx context.Context, rec model.CampaignRecipient) error {
	query := `
		UPDATE campaign_recipients
		SET status = ?, gateway_message_id = ?, sent_at = ?, error = ?, retry_count = ?
		WHERE id = ?
	`

	result, err := r.db.Conn.ExecContext(ctx, query,
		string(rec.Status), rec.GatewayMessageID, rec.SentAt, rec.Error, rec.RetryCount, rec.ID,
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

func (r *recipientRepo) GetByGatewayMessageID(ctx context.Context, gatewayMessageID string) (model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, position, phone, variables, status, gateway_message_id, sent_at, error, retry_count
		FROM campaign_recipients
		WHERE gateway_message_id = ?
	`

	rec, err := scanRecipient(r.db.Conn.QueryRowContext(ctx, query, gatewayMessageID))
	if err == sql.ErrNoRows {
		return model.CampaignRecipient{}, ErrNotFound
	}
	if err != nil {
		return model.CampaignRecipient{}, err
	}
	return rec, nil
}

func (r *recipientRepo) CountByStatus(ctx context.Context, campaignID string) (model.CampaignStats, error) {
	query := `
		SELECT status, COUNT(*)
		FROM campaign_recipients
		WHERE campaign_id = ?
		GROUP BY status
	`

	rows, err := r.db.Conn.QueryContext(ctx, query, campaignID)
	if err != nil {
		return model.CampaignStats{}, err
	}
	defer rows.Close()

	var stats model.CampaignStats
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return model.CampaignStats{}, err
		}
		stats.Total += count
		switch model.RecipientStatus(status) {
		case model.RecipientStatusPending:
			stats.Pending = count
		case model.RecipientStatusSent:
			stats.Sent = count
		case model.RecipientStatusDelivered:
			stats.Delivered = count
		case model.RecipientStatusRead:
			stats.Read = count
		case model.RecipientStatusFailed:
			stats.Failed = count
		}
	}
	return stats, rows.Err()
}

func (r *recipientRepo) DeleteByCampaign(ctx context.Context, campaignID string) error {
	query := `DELETE FROM campaign_recipients WHERE campaign_id = ?`
	_, err := r.db.Conn.ExecContext(ctx, query, campaignID)
	return err
}

func scanRecipient(row rowScanner) (model.CampaignRecipient, error) {
	var (
		rec       model.CampaignRecipient
		variables sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.CampaignID, &rec.Position, &rec.Phone, &variables,
		&rec.Status, &rec.GatewayMessageID, &rec.SentAt, &rec.Error, &rec.RetryCount,
	)
	if err != nil {
		return model.CampaignRecipient{}, err
	}
	if variables.Valid && variables.String != "" && variables.String != "null" {
		if err := json.Unmarshal([]byte(variables.String), &rec.Variables); err != nil {
			return model.CampaignRecipient{}, err
		}
	}
	return rec, nil
}
