package interview

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvidenceStore_UpsertReplacesById(t *testing.T) {
	store := NewEvidenceStore()

	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_21", ChoiceID: ChoicePresent}))
	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_98", ChoiceID: ChoiceAbsent}))
	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_21", ChoiceID: ChoiceUnknown}))

	items := store.Items()
	assert.Len(t, items, 2)
	assert.Equal(t, EvidenceItem{ID: "s_98", ChoiceID: ChoiceAbsent}, items[0])
	assert.Equal(t, EvidenceItem{ID: "s_21", ChoiceID: ChoiceUnknown}, items[1])
}

func TestEvidenceStore_RepeatedUpsertIsIdempotent(t *testing.T) {
	store := NewEvidenceStore()
	item := EvidenceItem{ID: "p_7", ChoiceID: ChoicePresent, Source: SourceRedFlags}

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Upsert(item))
	}

	assert.Equal(t, []EvidenceItem{item}, store.Items())
}

func TestEvidenceStore_RejectsInvalidItems(t *testing.T) {
	tests := []struct {
		name  string
		item  EvidenceItem
		field string
	}{
		{"missing id", EvidenceItem{ChoiceID: ChoicePresent}, "id"},
		{"empty choice", EvidenceItem{ID: "s_1"}, "choice_id"},
		{"unknown choice", EvidenceItem{ID: "s_1", ChoiceID: "maybe"}, "choice_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := NewEvidenceStore()
			err := store.Upsert(tt.item)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
			assert.Zero(t, store.Len())
		})
	}
}

func TestEvidenceStore_UpsertBatchIsAllOrNothing(t *testing.T) {
	store := NewEvidenceStore()
	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_1", ChoiceID: ChoicePresent}))

	err := store.UpsertBatch([]EvidenceItem{
		{ID: "s_1", ChoiceID: ChoiceAbsent},
		{ID: "s_2", ChoiceID: "bogus"},
	})

	assert.True(t, IsValidation(err))
	assert.Equal(t, []EvidenceItem{{ID: "s_1", ChoiceID: ChoicePresent}}, store.Items())
}

func TestEvidenceStore_UpsertBatchAppendsInOrder(t *testing.T) {
	store := NewEvidenceStore()
	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_1", ChoiceID: ChoicePresent}))
	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_2", ChoiceID: ChoicePresent}))

	err := store.UpsertBatch([]EvidenceItem{
		{ID: "s_3", ChoiceID: ChoiceAbsent},
		{ID: "s_1", ChoiceID: ChoiceAbsent},
		{ID: "s_3", ChoiceID: ChoiceUnknown},
	})
	require.NoError(t, err)

	assert.Equal(t, []EvidenceItem{
		{ID: "s_2", ChoiceID: ChoicePresent},
		{ID: "s_3", ChoiceID: ChoiceUnknown},
		{ID: "s_1", ChoiceID: ChoiceAbsent},
	}, store.Items())
}

func TestEvidenceStore_Merge(t *testing.T) {
	store := NewEvidenceStore()

	err := store.Merge([]Mention{
		{ID: "s_21", Name: "Headache", ChoiceID: ChoicePresent, Initial: true},
		{ID: "s_156", Name: "Nausea"},
		{ID: "s_98", Name: "Fever", ChoiceID: ChoiceAbsent},
	})
	require.NoError(t, err)

	assert.Equal(t, []EvidenceItem{
		{ID: "s_21", ChoiceID: ChoicePresent, Source: SourceInitial},
		{ID: "s_156", ChoiceID: ChoicePresent},
		{ID: "s_98", ChoiceID: ChoiceAbsent},
	}, store.Items())

	item, ok := store.Get("s_156")
	assert.True(t, ok)
	assert.Equal(t, SourceDynamic, item.Source)
}

func TestEvidenceStore_ItemsReturnsCopy(t *testing.T) {
	store := NewEvidenceStore()
	require.NoError(t, store.Upsert(EvidenceItem{ID: "s_1", ChoiceID: ChoicePresent}))

	items := store.Items()
	items[0].ChoiceID = ChoiceAbsent

	got, _ := store.Get("s_1")
	assert.Equal(t, ChoicePresent, got.ChoiceID)
}

func TestEvidenceStore_ConcurrentUpserts(t *testing.T) {
	store := NewEvidenceStore()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.Upsert(EvidenceItem{ID: fmt.Sprintf("s_%d", i%10), ChoiceID: ChoicePresent})
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, store.Len())
}
