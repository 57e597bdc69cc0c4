package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunSessionStoreContract runs a suite of tests to verify that a SessionStore
// implementation adheres to the defined interface contract.
func RunSessionStoreContract(t *testing.T, store SessionStore) {
	ctx := context.Background()
	conversantID := "contract-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		session := domain.NewSession(conversantID, "+55 11 99999-0000")
		session.State = domain.StateAwaitingEditValue
		session.PendingEdit = domain.FieldLocation
		session.Record = domain.ComplaintRecord{
			Name:         "Alice",
			Neighborhood: "São João",
			ProblemType:  domain.ProblemInfrastructure,
			Location:     "Main St",
		}

		require.NoError(t, store.Save(ctx, conversantID, session), "Save should not return error")

		loaded, err := store.Load(ctx, conversantID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, session, loaded)
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		session := domain.NewSession(conversantID, "")
		session.State = domain.StateAwaitingDetails
		require.NoError(t, store.Save(ctx, conversantID, session))

		loaded, err := store.Load(ctx, conversantID)
		require.NoError(t, err)
		assert.Equal(t, domain.StateAwaitingDetails, loaded.State)
		assert.Empty(t, loaded.Record.Name)
	})

	t.Run("Loaded Copy Is Isolated", func(t *testing.T) {
		loaded, err := store.Load(ctx, conversantID)
		require.NoError(t, err)
		loaded.Record.Name = "mutated"

		again, err := store.Load(ctx, conversantID)
		require.NoError(t, err)
		assert.NotEqual(t, "mutated", again.Record.Name)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+conversantID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, conversantID, domain.NewSession(conversantID, "")))

		require.NoError(t, store.Delete(ctx, conversantID), "Delete should not return error")

		_, err := store.Load(ctx, conversantID)
		assert.ErrorIs(t, err, domain.ErrSessionNotFound, "Load after Delete should return ErrSessionNotFound")

		assert.NoError(t, store.Delete(ctx, conversantID), "Deleting twice should be a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := conversantID + "-1"
		id2 := conversantID + "-2"
		require.NoError(t, store.Save(ctx, id1, domain.NewSession(id1, "")))
		require.NoError(t, store.Save(ctx, id2, domain.NewSession(id2, "")))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
