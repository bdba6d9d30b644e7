package inmem

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derWhity/eventlink/internal/models"
	"github.com/derWhity/eventlink/internal/repos"
	"github.com/derWhity/eventlink/internal/repos/repotest"
)

func TestEventRepo(t *testing.T) {
	repotest.RunEventRepoTests(t, func(t *testing.T) repos.EventRepo {
		return New()
	}, "not-a-uuid")
}

func TestStoredEventIsDecoupled(t *testing.T) {
	repo := New()
	ev := repotest.NewEvent("TicketMaster", "E1", "Show")
	ev.Attractions = []models.Attraction{{
		Name:          "Band",
		ExternalLinks: map[string][]models.Link{models.PlatformWiki: {{URL: "https://wiki"}}},
	}}
	require.NoError(t, repo.Create(ev))

	ev.Attractions[0].Name = "Changed"
	ev.Attractions[0].ExternalLinks[models.PlatformWiki][0].URL = "changed"

	loaded, err := repo.GetByID(ev.ID)
	require.NoError(t, err)
	assert.Equal(t, "Band", loaded.Attractions[0].Name)
	assert.Equal(t, "https://wiki", loaded.Attractions[0].ExternalLinks[models.PlatformWiki][0].URL)
}
