package game

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/trentd187/pub-golf/internal/database"
	"github.com/trentd187/pub-golf/internal/models"
	"github.com/trentd187/pub-golf/internal/notify"
	"github.com/trentd187/pub-golf/internal/store"
)

var origin = models.Venue{
	Name:        "The Starting Block",
	Address:     "1 Market Square",
	Coordinates: &models.Coordinates{Lat: 51.5, Lng: -0.12},
}

// venues returns n distinct candidate pubs.
func venues(n int) []models.Venue {
	out := make([]models.Venue, n)
	for i := range out {
		out[i] = models.Venue{
			Name:        fmt.Sprintf("Pub %d", i+1),
			Address:     fmt.Sprintf("%d High Street", i+1),
			Coordinates: &models.Coordinates{Lat: 51.6 + float64(i)/100, Lng: -0.2},
		}
	}
	return out
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
	err  error
}

func (f *fakeNotifier) Notify(_ context.Context, n notify.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return f.err
}

type fixture struct {
	svc      *Service
	db       *gorm.DB
	notifier *fakeNotifier
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "game.db"))
	require.NoError(t, err)

	n := &fakeNotifier{}
	all := append([]Option{WithRand(rand.New(rand.NewSource(42)))}, opts...)
	return &fixture{
		svc:      NewService(store.New(db, 500), n, all...),
		db:       db,
		notifier: n,
	}
}

func (f *fixture) createGame(t *testing.T, holes int) *models.Game {
	t.Helper()
	g, err := f.svc.CreateGame(context.Background(), CreateGameInput{
		HostUID: "host",
		Title:   "Friday Crawl",
		Origin:  origin,
		Venues:  venues(holes),
	})
	require.NoError(t, err)
	return g
}

// join invites uid and accepts on their behalf.
func (f *fixture) join(t *testing.T, gameID, uid string) {
	t.Helper()
	ctx := context.Background()
	ids, err := f.svc.SendInvites(ctx, gameID, "host", []string{uid})
	require.NoError(t, err)
	require.Len(t, ids, 1)
	_, err = f.svc.RespondToInvite(ctx, ids[0], uid, ActionAccept)
	require.NoError(t, err)
}

func requireKind(t *testing.T, err error, want *Error) {
	t.Helper()
	require.Error(t, err)
	require.True(t, errors.Is(err, want), "got %v, want kind %s", err, want.Kind)
}

func requireStrokeInvariant(t *testing.T, g *models.Game) {
	t.Helper()
	for _, p := range g.Players {
		require.Len(t, p.Strokes, len(g.Holes), "player %s", p.UID)
	}
}
