package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trentd187/pub-golf/internal/database"
	"github.com/trentd187/pub-golf/internal/models"
)

func newTestStore(t *testing.T, retries int) (*Store, *gorm.DB) {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	return New(db, retries), db
}

func sampleGame(id string) *models.Game {
	return &models.Game{
		ID:        id,
		Title:     "Friday",
		HostUID:   "host",
		Holes:     []models.Hole{{HoleNumber: 1, Par: 3}, {HoleNumber: 2, Par: 4}},
		Players:   []models.Player{{UID: "host", Role: models.PlayerRoleHost, Strokes: []*int{nil, nil}}},
		Status:    models.GameStatusPending,
		CreatedAt: time.Now().UTC(),
	}
}

func TestCreateAndGetGame(t *testing.T) {
	s, _ := newTestStore(t, 5)
	ctx := context.Background()

	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	g, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.Equal(t, "Friday", g.Title)
	assert.Len(t, g.Holes, 2)
	assert.Len(t, g.Players[0].Strokes, 2)

	_, err = s.GetGame(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateGameBumpsVersion(t *testing.T) {
	s, db := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	g, err := s.UpdateGame(ctx, "g1", func(g *models.Game) error {
		g.Status = models.GameStatusActive
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.GameStatusActive, g.Status)

	var rec models.GameRecord
	require.NoError(t, db.First(&rec, "id = ?", "g1").Error)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, models.GameStatusActive, rec.Status)
}

func TestUpdateGameUnchangedSkipsWrite(t *testing.T) {
	s, db := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	g, err := s.UpdateGame(ctx, "g1", func(g *models.Game) error {
		g.Title = "ignored"
		return ErrUnchanged
	})
	require.NoError(t, err)
	assert.Equal(t, "Friday", g.Title)

	var rec models.GameRecord
	require.NoError(t, db.First(&rec, "id = ?", "g1").Error)
	assert.Equal(t, int64(1), rec.Version)
}

func TestUpdateGamePropagatesMutateError(t *testing.T) {
	s, _ := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	boom := errors.New("boom")
	_, err := s.UpdateGame(ctx, "g1", func(*models.Game) error { return boom })
	assert.ErrorIs(t, err, boom)

	_, err = s.UpdateGame(ctx, "missing", func(*models.Game) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateGameRejectsStatusRegression(t *testing.T) {
	s, _ := newTestStore(t, 5)
	ctx := context.Background()
	g := sampleGame("g1")
	g.Status = models.GameStatusFinished
	require.NoError(t, s.CreateGame(ctx, g))

	_, err := s.UpdateGame(ctx, "g1", func(g *models.Game) error {
		g.Status = models.GameStatusActive
		return nil
	})
	assert.Error(t, err)
}

func TestUpdateGameRetriesOnConflict(t *testing.T) {
	s, db := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	calls := 0
	g, err := s.UpdateGame(ctx, "g1", func(g *models.Game) error {
		calls++
		if calls == 1 {
			// Another writer sneaks in between our read and our write.
			require.NoError(t, db.Model(&models.GameRecord{}).Where("id = ?", "g1").Update("version", 7).Error)
		}
		g.Title = "after retry"
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, "after retry", g.Title)

	var rec models.GameRecord
	require.NoError(t, db.First(&rec, "id = ?", "g1").Error)
	assert.Equal(t, int64(8), rec.Version)
}

func TestUpdateGameGivesUp(t *testing.T) {
	s, db := newTestStore(t, 3)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	version := 1
	_, err := s.UpdateGame(ctx, "g1", func(g *models.Game) error {
		version += 10
		require.NoError(t, db.Model(&models.GameRecord{}).Where("id = ?", "g1").Update("version", version).Error)
		g.Title = "never"
		return nil
	})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestConcurrentUpdatesAreAllApplied(t *testing.T) {
	s, _ := newTestStore(t, 500)
	ctx := context.Background()
	g := sampleGame("g1")
	g.Holes = make([]models.Hole, 12)
	g.Players[0].Strokes = make([]*int, 12)
	require.NoError(t, s.CreateGame(ctx, g))

	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(slot int) {
			defer wg.Done()
			_, err := s.UpdateGame(ctx, "g1", func(g *models.Game) error {
				g.Players[0].Strokes[slot] = models.IntPtr(slot)
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	final, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	for i, v := range final.Players[0].Strokes {
		require.NotNil(t, v, "slot %d lost", i)
		assert.Equal(t, i, *v)
	}
}

func TestInvites(t *testing.T) {
	s, _ := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))

	now := time.Now().UTC()
	created, err := s.CreateInvites(ctx, []models.Invite{
		{ID: "i1", GameID: "g1", FromUID: "host", ToUID: "a", Status: models.InviteStatusPending, Version: 1, CreatedAt: now},
		{ID: "i2", GameID: "g1", FromUID: "host", ToUID: "b", Status: models.InviteStatusPending, Version: 1, CreatedAt: now},
	})
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "i1", created[0].ID)

	// Re-inviting "a" keeps the original row.
	again, err := s.CreateInvites(ctx, []models.Invite{
		{ID: "i3", GameID: "g1", FromUID: "host", ToUID: "a", Status: models.InviteStatusPending, Version: 1, CreatedAt: now},
	})
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, "i1", again[0].ID)

	inv, err := s.GetInvite(ctx, "i2")
	require.NoError(t, err)
	assert.Equal(t, "b", inv.ToUID)

	_, err = s.GetInvite(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	list, err := s.ListInvites(ctx, "a", "")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	list, err = s.ListInvites(ctx, "a", models.InviteStatusAccepted)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestUpdateInviteWritesBothDocuments(t *testing.T) {
	s, db := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))
	_, err := s.CreateInvites(ctx, []models.Invite{
		{ID: "i1", GameID: "g1", FromUID: "host", ToUID: "a", Status: models.InviteStatusPending, Version: 1, CreatedAt: time.Now().UTC()},
	})
	require.NoError(t, err)

	inv, g, err := s.UpdateInvite(ctx, "i1", func(inv *models.Invite, g *models.Game) error {
		inv.Status = models.InviteStatusAccepted
		g.Players = append(g.Players, models.Player{UID: "a", Role: models.PlayerRolePlayer, Strokes: g.EmptyStrokes()})
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, inv.Status)
	assert.Len(t, g.Players, 2)

	stored, err := s.GetGame(ctx, "g1")
	require.NoError(t, err)
	assert.True(t, stored.HasPlayer("a"))

	var rec models.Invite
	require.NoError(t, db.First(&rec, "id = ?", "i1").Error)
	assert.Equal(t, int64(2), rec.Version)
}

func TestUpdateInviteRollsBackOnError(t *testing.T) {
	s, _ := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, s.CreateGame(ctx, sampleGame("g1")))
	_, err := s.CreateInvites(ctx, []models.Invite{
		{ID: "i1", GameID: "g1", FromUID: "host", ToUID: "a", Status: models.InviteStatusPending, Version: 1, CreatedAt: time.Now().UTC()},
	})
	require.NoError(t, err)

	boom := errors.New("boom")
	_, _, err = s.UpdateInvite(ctx, "i1", func(inv *models.Invite, g *models.Game) error {
		inv.Status = models.InviteStatusAccepted
		return boom
	})
	assert.ErrorIs(t, err, boom)

	inv, err := s.GetInvite(ctx, "i1")
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, inv.Status)

	_, _, err = s.UpdateInvite(ctx, "missing", func(*models.Invite, *models.Game) error { return nil })
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDisplayName(t *testing.T) {
	s, db := newTestStore(t, 5)
	ctx := context.Background()
	require.NoError(t, db.Create(&models.User{UID: "u1", DisplayName: "Sam"}).Error)

	name, err := s.DisplayName(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Sam", name)

	name, err = s.DisplayName(ctx, "ghost")
	require.NoError(t, err)
	assert.Equal(t, "", name)
}
