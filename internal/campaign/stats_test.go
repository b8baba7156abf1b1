package campaign

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/softwarePredador/WhatsAI2-sub000/internal/storage/model"
)

func TestStatsAggregatorPrimeAndSnapshot(t *testing.T) {
	recs := makeRecipients("c1", 4)
	recs[1].Status = model.RecipientStatusSent
	recs[2].Status = model.RecipientStatusFailed

	a := NewStatsAggregator()
	a.Prime("c1", recs)

	snap, ok := a.Snapshot("c1")
	require.True(t, ok)
	assert.Equal(t, model.CampaignStats{Total: 4, Pending: 2, Sent: 1, Failed: 1}, snap)
}

func TestStatsAggregatorRecordIsIdempotentPerRecipient(t *testing.T) {
	recs := makeRecipients("c1", 2)
	a := NewStatsAggregator()
	a.Prime("c1", recs)

	a.Record("c1", "r0", model.RecipientStatusSent)
	a.Record("c1", "r0", model.RecipientStatusSent)
	a.Record("c1", "r0", model.RecipientStatusDelivered)

	snap, ok := a.Snapshot("c1")
	require.True(t, ok)
	assert.Equal(t, model.CampaignStats{Total: 2, Pending: 1, Delivered: 1}, snap)
}

func TestStatsAggregatorIgnoresUnprimedCampaign(t *testing.T) {
	a := NewStatsAggregator()
	a.Record("fantasma", "r0", model.RecipientStatusSent)

	_, ok := a.Snapshot("fantasma")
	assert.False(t, ok, "snapshot parcial seria pior do que recontar do banco")
}

func TestStatsAggregatorForget(t *testing.T) {
	a := NewStatsAggregator()
	a.Prime("c1", makeRecipients("c1", 2))
	a.Forget("c1")

	_, ok := a.Snapshot("c1")
	assert.False(t, ok)
}

func TestStatsAggregatorTotalInvariant(t *testing.T) {
	recs := makeRecipients("c1", 5)
	a := NewStatsAggregator()
	a.Prime("c1", recs)

	a.Record("c1", "r0", model.RecipientStatusSent)
	a.Record("c1", "r1", model.RecipientStatusFailed)
	a.Record("c1", "r0", model.RecipientStatusRead)

	snap, ok := a.Snapshot("c1")
	require.True(t, ok)
	assert.Equal(t, snap.Total, snap.Pending+snap.Sent+snap.Delivered+snap.Read+snap.Failed)
	assert.Equal(t, 5, snap.Total)
}
