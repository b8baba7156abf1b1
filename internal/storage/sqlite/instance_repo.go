package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Conn.ExecContext(ctx, query,
		inst.ID, inst.Name, inst.OwnerUserID, string(inst.Status), inst.WebhookURL, inst.WebhookSecret, inst.CreatedAt, inst.UpdatedAt,
	)
	if err != nil {
		return model.Instance{}, err
	}

	return inst, nil
}

func (r *instanceRepo) GetByID(ctx context.Context, id string) (model.Instance, error) {
	query := `
		SELECT id, name, owner_user_id, status, webhook_url, webhook_secret, created_at, updated_at
		FROM instances
		WHERE id = ?
	`

	var inst model.Instance
	err := r.db.Conn.QueryRowContext(ctx, query, id).Scan(
		&inst.ID, &inst.Name, &inst.OwnerUserID, &inst.Status, &inst.WebhookURL, &inst.WebhookSecret, &inst.CreatedAt, &inst.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return model.Instance{}, ErrNotFound
	}
	if err != nil {
		return model.Instance{}, err
	}

	return inst, nil
}

func (r *instanceRepo) ListByOwner(ctx context.Context, ownerUserID string) ([]model.Instance, error) {
	query := `
		SELECT id, name, owner_user_id, status, webhook_url, webhook_secret, created_at, updated_at
		FROM instances
		WHERE owner_user_id = ?
		ORDER BY created_at DESC
	`

	rows, err := r.db.Conn.QueryContext(ctx, query, ownerUserID)
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
		SET name = ?, status = ?, webhook_url = ?, webhook_secret = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Conn.ExecContext(ctx, query,
		inst.Name, string(inst.Status), inst.WebhookURL, inst.WebhookSecret, inst.UpdatedAt, inst.ID,
	)
	if err != nil {
		return model.Instance{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return model.Instance{}, err
	}
	if affected == 0 {
		return model.Instance{}, ErrNotFound
	}

	return inst, nil
}

func (r *instanceRepo) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM instances WHERE id = ?`
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
