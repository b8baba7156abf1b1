package postgres

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

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

	batch := &pgx.Batch{}
	query := `
		INSERT INTO campaign_recipients (id, campaign_id, position, phone, variables, status, gateway_message_id, sent_at, error, retry_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	for i := range recipients {
		rec := &recipients[i]
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		variables, err := json.Marshal(rec.Variables)
		if err != nil {
			return err
		}
		batch.Queue(query,
			rec.ID, rec.CampaignID, rec.Position, rec.Phone, variables,
			string(rec.Status), nullIfEmpty(rec.GatewayMessageID), rec.SentAt, nullIfEmpty(rec.Error), rec.RetryCount,
		)
	}

	results := r.db.Pool.SendBatch(ctx, batch)
	defer results.Close()

	for range recipients {
		if _, err := results.Exec(); err != nil {
			return err
		}
	}
	return nil
}

func (r *recipientRepo) ListByCampaign(ctx context.Context, campaignID string) ([]model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, position, phone, variables, status, COALESCE(gateway_message_id, ''), sent_at, COALESCE(error, ''), retry_count
		FROM campaign_recipients
		WHERE campaign_id = $1
		ORDER BY position
	`

	rows, err := r.db.Pool.Query(ctx, query, campaignID)
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
		SET status = $2, gateway_message_id = $3, sent_at = $4, error = $5, retry_count = $6
		WHERE id = $1
	`

	result, err := r.db.Pool.Exec(ctx, query,
		rec.ID, string(rec.Status), nullIfEmpty(rec.GatewayMessageID), rec.SentAt, nullIfEmpty(rec.Error), rec.RetryCount,
	)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *recipientRepo) GetByGatewayMessageID(ctx context.Context, gatewayMessageID string) (model.CampaignRecipient, error) {
	query := `
		SELECT id, campaign_id, position, phone, variables, status, COALESCE(gateway_message_id, ''), sent_at, COALESCE(error, ''), retry_count
		FROM campaign_recipients
		WHERE gateway_message_id = $1
	`

	rec, err := scanRecipient(r.db.Pool.QueryRow(ctx, query, gatewayMessageID))
	if err == pgx.ErrNoRows {
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
		WHERE campaign_id = $1
		GROUP BY status
	`

	rows, err := r.db.Pool.Query(ctx, query, campaignID)
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
	query := `DELETE FROM campaign_recipients WHERE campaign_id = $1`
	_, err := r.db.Pool.Exec(ctx, query, campaignID)
	return err
}

func scanRecipient(row rowScanner) (model.CampaignRecipient, error) {
	var (
		rec       model.CampaignRecipient
		variables []byte
	)
	err := row.Scan(
		&rec.ID, &rec.CampaignID, &rec.Position, &rec.Phone, &variables,
		&rec.Status, &rec.GatewayMessageID, &rec.SentAt, &rec.Error, &rec.RetryCount,
	)
	if err != nil {
		return model.CampaignRecipient{}, err
	}
	if len(variables) > 0 {
		if err := json.Unmarshal(variables, &rec.Variables); err != nil {
			return model.CampaignRecipient{}, err
		}
	}
	return rec, nil
}
