package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

type instanceRepo struct {
	db *DB
}

func NewInstanceRepository(db *DB) *instanceRepo {
	return &instanceRepo{db: db}
}

func (r *instanceRepo) Create(ctx context.Context, inst model.Instance) (model.Instance, error) {
	if inst.ID == "" {
		inst.ID = uuid.New().String()
	}
	now := time.Now()
	inst.CreatedAt = now
	inst.UpdatedAt = now

	query := `
		INSERT INTO instances (id, name, owner_user_id, status, webhook_url, webhook_secret, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.Pool.Exec(ctx, query,
		inst.ID, inst.Name, inst.OwnerUserID, string(inst.Status), nullIfEmpty(inst.WebhookURL), nullIfEmpty(inst.WebhookSecret), inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return model.Instance{}, err
	}

	return inst, nil
}

func (r *instanceRepo) GetByID(ctx context.Context, id string) (model.Instance, error) {
	query := `
		SELECT id, name, owner_user_id, status, COALESCE(webhook_url, ''), COALESCE(webhook_secret, ''), created_at, updated_at
		FROM instances
		WHERE id = $1
	`

	var inst model.Instance
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&inst.ID, &inst.Name, &inst.OwnerUserID, &inst.Status, &inst.WebhookURL, &inst.WebhookSecret, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err == pgx.ErrNoRows {
		return model.Instance{}, ErrNotFound
	}
	if err != nil {
		return model.Instance{}, err
	}

	return inst, nil
}

func (r *instanceRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Instance, error) {
	query := `
		SELECT id, name, owner_user_id, status, COALESCE(webhook_url, ''), COALESCE(webhook_secret, ''), created_at, updated_at
		FROM instances
		WHERE owner_user_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.db.Pool.Query(ctx, query, ownerUserID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var instances []model.Instance
	for rows.Next() {
		var inst model.Instance
		if err := rows.Scan(
			&inst.ID, &inst.Name, &inst.OwnerUserID, &inst.Status, &inst.WebhookURL, &inst.WebhookSecret, &inst.CreatedAt, &inst.UpdatedAt,
		); err != nil {
			return nil, err
		}

		instances = append(instances, inst)
	}

	return instances, rows.Err()
}

func (r *instanceRepo) Update(ctx context.Context, inst model.Instance) (model.Instance, error) {
	inst.UpdatedAt = time.Now()

	query := `
		UPDATE instances
		SET name = $2, status = $3, webhook_url = $4, webhook_secret = $5, updated_at = $6
		WHERE id = $1
		RETURNING created_at
	`

	err := r.db.Pool.QueryRow(ctx, query,
		inst.ID, inst.Name, string(inst.Status), nullIfEmpty(inst.WebhookURL), nullIfEmpty(inst.WebhookSecret), inst.UpdatedAt,
	).Scan(&inst.CreatedAt)

	if err == pgx.ErrNoRows {
		return model.Instance{}, ErrNotFound
	}
	if err != nil {
		return model.Instance{}, err
	}

	return inst, nil
}

func (r *instanceRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM instances WHERE id = $1`
	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
