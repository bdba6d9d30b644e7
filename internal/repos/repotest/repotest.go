// Package repotest contains the behaviour every repository implementation has to show. The tests of the
// implementations run these against their own repository
package repotest

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
)

// NewEvent returns a minimal valid event
func NewEvent(provider, providerEventID, name string) *models.Event {
	return &models.Event{
		ProviderName:    provider,
		ProviderEventID: providerEventID,
		Name:            name,
		IsActive:        models.Bool(true),
	}
}

// RunEventRepoTests runs the shared event repository tests. newRepo must return an empty repository
func RunEventRepoTests(t *testing.T, newRepo func(t *testing.T) repos.EventRepo, malformedID string) {
	t.Run("CreateAssignsID", func(t *testing.T) {
		repo := newRepo(t)
		ev := NewEvent("TicketMaster", "E1", "Show")
		require.NoError(t, repo.Create(ev))
		assert.NotEmpty(t, ev.ID)
		assert.False(t, ev.CreatedAt.IsZero())

		loaded, err := repo.GetByID(ev.ID)
		require.NoError(t, err)
		assert.Equal(t, ev.ID, loaded.ID)
		assert.Equal(t, "Show", loaded.Name)
		assert.Equal(t, models.Bool(true), loaded.IsActive)
	})

	t.Run("CreateRejectsDuplicateNaturalKey", func(t *testing.T) {
		repo := newRepo(t)
		require.NoError(t, repo.Create(NewEvent("TicketMaster", "E1", "Show")))
		dup := NewEvent("TicketMaster", "E1", "Show again")
		assert.Equal(t, repos.ErrEntityExists, repo.Create(dup))
		assert.Empty(t, dup.ID)
		// Same provider event ID at another provider is another event
		assert.NoError(t, repo.Create(NewEvent("Eventful", "E1", "Show")))
	})

	t.Run("CreateValidates", func(t *testing.T) {
		repo := newRepo(t)
		assert.Equal(t, repos.ErrMissingProviderEventID, repo.Create(NewEvent("TicketMaster", "", "Show")))
		assert.Equal(t, repos.ErrInvalidEntity, repo.Create(NewEvent("TicketMaster", "E1", "")))
		all, err := repo.All()
		require.NoError(t, err)
		assert.Empty(t, all)
	})

	t.Run("GetByProviderEventID", func(t *testing.T) {
		repo := newRepo(t)
		ev := NewEvent("TicketMaster", "E1", "Show")
		require.NoError(t, repo.Create(ev))
		loaded, err := repo.GetByProviderEventID("TicketMaster", "E1")
		require.NoError(t, err)
		assert.Equal(t, ev.ID, loaded.ID)
		_, err = repo.GetByProviderEventID("Eventful", "E1")
		assert.Equal(t, repos.ErrEntityNotExisting, err)
	})

	t.Run("ReplaceKeepsID", func(t *testing.T) {
		repo := newRepo(t)
		ev := NewEvent("TicketMaster", "E1", "Show")
		require.NoError(t, repo.Create(ev))
		id := ev.ID

		upd := NewEvent("TicketMaster", "E1", "Show (updated)")
		upd.IsActive = models.Bool(false)
		require.NoError(t, repo.Replace(id, upd))
		assert.Equal(t, id, upd.ID)

		loaded, err := repo.GetByID(id)
		require.NoError(t, err)
		assert.Equal(t, "Show (updated)", loaded.Name)
		assert.Equal(t, models.Bool(false), loaded.IsActive)
		assert.False(t, loaded.CreatedAt.IsZero())
		all, err := repo.All()
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("ReplaceFailures", func(t *testing.T) {
		repo := newRepo(t)
		ev := NewEvent("TicketMaster", "E1", "Show")
		require.NoError(t, repo.Create(ev))
		other := NewEvent("TicketMaster", "E2", "Other")
		require.NoError(t, repo.Create(other))

		assert.Equal(t, repos.ErrInvalidID, repo.Replace(malformedID, NewEvent("TicketMaster", "E1", "x")))
		assert.Equal(t, repos.ErrEntityNotExisting, repo.Replace(unknownID(ev.ID), NewEvent("TicketMaster", "E9", "x")))
		// Moving an event onto the natural key of another one is a conflict
		assert.Equal(t, repos.ErrEntityExists, repo.Replace(other.ID, NewEvent("TicketMaster", "E1", "Other")))
		assert.Equal(t, repos.ErrInvalidEntity, repo.Replace(ev.ID, NewEvent("TicketMaster", "E1", "")))
	})

	t.Run("GetByIDFailures", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.GetByID(malformedID)
		assert.Equal(t, repos.ErrInvalidID, err)
		ev := NewEvent("TicketMaster", "E1", "Show")
		require.NoError(t, repo.Create(ev))
		_, err = repo.GetByID(unknownID(ev.ID))
		assert.Equal(t, repos.ErrEntityNotExisting, err)
	})

	t.Run("FindAndDelete", func(t *testing.T) {
		repo := newRepo(t)
		var ids []string
		for i, name := range []string{"Rock Night", "Jazz Brunch", "Rock Festival"} {
			ev := NewEvent("TicketMaster", fmt.Sprintf("E%d", i), name)
			require.NoError(t, repo.Create(ev))
			ids = append(ids, ev.ID)
		}
		found, total, err := repo.Find("Rock", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, uint(2), total)
		assert.Len(t, found, 2)

		found, total, err = repo.Find("", 1, 1)
		require.NoError(t, err)
		assert.Equal(t, uint(3), total)
		assert.Len(t, found, 1)

		require.NoError(t, repo.Delete(ids[0]))
		loaded, err := repo.GetByID(ids[0])
		require.NoError(t, err)
		assert.True(t, loaded.IsDeleted)
		assert.NotNil(t, loaded.DeletedAt)

		_, total, err = repo.Find("Rock", 0, 10)
		require.NoError(t, err)
		assert.Equal(t, uint(1), total)
		all, err := repo.All()
		require.NoError(t, err)
		assert.Len(t, all, 3)

		assert.Equal(t, repos.ErrInvalidID, repo.Delete(malformedID))
	})

	t.Run("ConcurrentCreate", func(t *testing.T) {
		repo := newRepo(t)
		var wg sync.WaitGroup
		results := make(chan error, 10)
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results <- repo.Create(NewEvent("TicketMaster", "E1", "Show"))
			}()
		}
		wg.Wait()
		close(results)
		var created, conflicts int
		for err := range results {
			switch err {
			case nil:
				created++
			case repos.ErrEntityExists:
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}
		assert.Equal(t, 1, created)
		assert.Equal(t, 9, conflicts)
	})
}

// unknownID derives a well-formed ID that is not stored from a stored one
func unknownID(id string) string {
	last := id[len(id)-1]
	repl := byte('0')
	if last == '0' {
		repl = '1'
	}
	return id[:len(id)-1] + string(repl)
}

// RunLogRepoTests runs the shared log repository tests. newRepo must return an empty repository
func RunLogRepoTests(t *testing.T, newRepo func(t *testing.T) repos.LogRepo) {
	t.Run("CreateAndRecent", func(t *testing.T) {
		repo := newRepo(t)
		base := time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC)
		entries := []models.LogEntry{
			{Category: "system", Level: "info", Message: "first", CreatedAt: base},
			{Category: "event", Level: "error", Origin: "crawler", Message: "second", CreatedAt: base.Add(time.Second)},
			{Category: "statistics", Level: "info", Message: "third", CreatedAt: base.Add(2 * time.Second)},
			{Category: "event", Level: "info", Message: "fourth", CreatedAt: base.Add(3 * time.Second)},
		}
		for i := range entries {
			require.NoError(t, repo.Create(&entries[i]))
			assert.NotEmpty(t, entries[i].ID)
		}

		recent, err := repo.Recent("", 10)
		require.NoError(t, err)
		require.Len(t, recent, 4)
		assert.Equal(t, "fourth", recent[0].Message)
		assert.Equal(t, "first", recent[3].Message)

		recent, err = repo.Recent("event", 10)
		require.NoError(t, err)
		require.Len(t, recent, 2)
		assert.Equal(t, "fourth", recent[0].Message)
		assert.Equal(t, "crawler", recent[1].Origin)

		recent, err = repo.Recent("", 2)
		require.NoError(t, err)
		assert.Len(t, recent, 2)
	})
}
