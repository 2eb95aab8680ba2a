package ingest

import (
	"context"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ramsey-B/laurel/pkg/models"
)

type fakeRecordStore struct {
	existing map[string]struct{} // keyed on supplierID:localID
	upserts  []models.FeedRecord
}

func newFakeRecordStore(existingLocalIDs ...string) *fakeRecordStore {
	existing := make(map[string]struct{}, len(existingLocalIDs))
	for _, id := range existingLocalIDs {
		existing[id] = struct{}{}
	}
	return &fakeRecordStore{existing: existing}
}

func (f *fakeRecordStore) UpsertFeedRecord(ctx context.Context, tenantID string, taxonomy models.Taxonomy, supplierID, supplierName string, feed models.FeedRecord) (bool, error) {
	f.upserts = append(f.upserts, feed)
	if _, ok := f.existing[feed.LocalID]; ok {
		return false, nil
	}
	f.existing[feed.LocalID] = struct{}{}
	return true, nil
}

func noopLogger() ectologger.Logger {
	return ectologger.NewEctoLogger(func(_ ectologger.EctoLogMessage) {})
}

func TestResync(t *testing.T) {
	store := newFakeRecordStore("n2")
	p := NewProcessor(noopLogger(), store)

	req := models.ResyncRequest{
		Taxonomy:     models.TaxonomyNationality,
		SupplierID:   "sup-1",
		SupplierName: "Supplier One",
		Records: []models.FeedRecord{
			{LocalID: "n1", Label: "Egyptian"},
			{LocalID: "n2", Label: "Saudi"},
			{LocalID: "n3", Label: "Qatari"},
		},
	}

	result, err := p.Resync(context.Background(), "t1", req)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Received)
	assert.Equal(t, 2, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 0, result.Dropped)
	assert.Len(t, store.upserts, 3)
}

func TestResyncDedupesOnLocalID(t *testing.T) {
	store := newFakeRecordStore()
	p := NewProcessor(noopLogger(), store)

	req := models.ResyncRequest{
		Taxonomy:   models.TaxonomyNationality,
		SupplierID: "sup-1",
		Records: []models.FeedRecord{
			{LocalID: "n1", Label: "Egyptian"},
			{LocalID: "n1", Label: "Egypt"},
			{LocalID: "n1", Label: "EGY"},
		},
	}

	result, err := p.Resync(context.Background(), "t1", req)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Received)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 2, result.Dropped)

	// first occurrence wins
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "Egyptian", store.upserts[0].Label)
}

func TestResyncDropsMalformedRows(t *testing.T) {
	store := newFakeRecordStore()
	p := NewProcessor(noopLogger(), store)

	req := models.ResyncRequest{
		Taxonomy:   models.TaxonomyNationality,
		SupplierID: "sup-1",
		Records: []models.FeedRecord{
			{LocalID: "", Label: "No Local ID"},
			{LocalID: "n1", Label: ""},
			{LocalID: "n2", Label: "Valid"},
		},
	}

	result, err := p.Resync(context.Background(), "t1", req)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Dropped)
	assert.Equal(t, 1, result.Created)
	require.Len(t, store.upserts, 1)
	assert.Equal(t, "n2", store.upserts[0].LocalID)
}

func TestResyncIsIdempotent(t *testing.T) {
	store := newFakeRecordStore()
	p := NewProcessor(noopLogger(), store)

	req := models.ResyncRequest{
		Taxonomy:   models.TaxonomyNationality,
		SupplierID: "sup-1",
		Records: []models.FeedRecord{
			{LocalID: "n1", Label: "Egyptian"},
			{LocalID: "n2", Label: "Saudi"},
		},
	}

	first, err := p.Resync(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, 2, first.Created)

	second, err := p.Resync(context.Background(), "t1", req)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Created)
	assert.Equal(t, 2, second.Updated)
}
