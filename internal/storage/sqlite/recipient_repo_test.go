package sqlite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

func seedCampaignWithRecipients(t *testing.T, db *DB, n int) model.Campaign {
	t.Helper()
	ctx := context.Background()

	inst := seedInstance(t, db)
	campaign, err := NewCampaignRepository(db).Create(ctx, draftCampaign(inst.ID))
	require.NoError(t, err)

	recipients := make([]model.CampaignRecipient, n)
	for i := range recipients {
		recipients[i] = model.CampaignRecipient{
			CampaignID: campaign.ID,
			Position:   i,
			Phone:      fmt.Sprintf("+55119999900%02d", i),
			Variables:  map[string]string{"nome": "Ana"},
			Status:     model.RecipientStatusPending,
		}
	}
	require.NoError(t, NewRecipientRepository(db).BulkCreate(ctx, recipients))
	return campaign
}

func TestRecipientRepoBulkCreateAndList(t *testing.T) {
	db := newTestDB(t)
	campaign := seedCampaignWithRecipients(t, db, 3)
	repo := NewRecipientRepository(db)
	ctx := context.Background()

	recs, err := repo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	for i, rec := range recs {
		assert.Equal(t, i, rec.Position, "lista ordenada por posição")
		assert.NotEmpty(t, rec.ID)
		assert.Equal(t, model.RecipientStatusPending, rec.Status)
		assert.Equal(t, map[string]string{"nome": "Ana"}, rec.Variables)
	}
}

func TestRecipientRepoUpdateAndLookupByGatewayMessage(t *testing.T) {
	db := newTestDB(t)
	campaign := seedCampaignWithRecipients(t, db, 2)
	repo := NewRecipientRepository(db)
	ctx := context.Background()

	recs, err := repo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)

	sentAt := time.Now().UTC()
	rec := recs[0]
	rec.Status = model.RecipientStatusSent
	rec.GatewayMessageID = "wamid-1"
	rec.SentAt = &sentAt
	require.NoError(t, repo.Update(ctx, rec))

	got, err := repo.GetByGatewayMessageID(ctx, "wamid-1")
	require.NoError(t, err)
	assert.Equal(t, rec.ID, got.ID)
	assert.Equal(t, model.RecipientStatusSent, got.Status)
	require.NotNil(t, got.SentAt)
	assert.WithinDuration(t, sentAt, *got.SentAt, time.Second)

	_, err = repo.GetByGatewayMessageID(ctx, "wamid-desconhecido")
	assert.ErrorIs(t, err, ErrNotFound)

	missing := rec
	missing.ID = "nope"
	assert.ErrorIs(t, repo.Update(ctx, missing), ErrNotFound)
}

func TestRecipientRepoCountByStatus(t *testing.T) {
	db := newTestDB(t)
	campaign := seedCampaignWithRecipients(t, db, 4)
	repo := NewRecipientRepository(db)
	ctx := context.Background()

	recs, err := repo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)

	recs[0].Status = model.RecipientStatusSent
	recs[1].Status = model.RecipientStatusFailed
	require.NoError(t, repo.Update(ctx, recs[0]))
	require.NoError(t, repo.Update(ctx, recs[1]))

	stats, err := repo.CountByStatus(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Equal(t, model.CampaignStats{
		Total:   4,
		Pending: 2,
		Sent:    1,
		Failed:  1,
	}, stats)
}

func TestRecipientRepoDeleteByCampaign(t *testing.T) {
	db := newTestDB(t)
	campaign := seedCampaignWithRecipients(t, db, 2)
	repo := NewRecipientRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.DeleteByCampaign(ctx, campaign.ID))

	recs, err := repo.ListByCampaign(ctx, campaign.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}
