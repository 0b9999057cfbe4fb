// Package game implements the Pub Golf engine: hole generation, score bookkeeping, the
// pending -> active -> finished lifecycle and the invite protocol.
//
// The Service holds no per-game state. Every mutation is a single conditional read-modify-write
// on the game document through the Store, so concurrent calls against the same game serialize
// on the document version: guards are always checked against the exact version being replaced.
package game

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/trentd187/pub-golf/internal/models"
	"github.com/trentd187/pub-golf/internal/notify"
	"github.com/trentd187/pub-golf/internal/store"
)

// DefaultTitle is used when a game is created without a title.
const DefaultTitle = "Pub Golf"

// Store is the document store the engine runs against. *store.Store implements it.
type Store interface {
	CreateGame(ctx context.Context, g *models.Game) error
	GetGame(ctx context.Context, id string) (*models.Game, error)
	UpdateGame(ctx context.Context, id string, mutate func(*models.Game) error) (*models.Game, error)

	CreateInvites(ctx context.Context, invites []models.Invite) ([]models.Invite, error)
	ListInvites(ctx context.Context, toUID string, status models.InviteStatus) ([]models.Invite, error)
	UpdateInvite(ctx context.Context, id string, mutate func(*models.Invite, *models.Game) error) (*models.Invite, *models.Game, error)

	DisplayName(ctx context.Context, uid string) (string, error)
}

// Notifier is the fire-and-forget notification gateway.
type Notifier interface {
	Notify(ctx context.Context, n notify.Notification) error
}

// Service is the game lifecycle controller and invite protocol.
type Service struct {
	store    Store
	notifier Notifier
	catalog  []models.Drink
	now      func() time.Time
	newID    func() string

	// rand.Rand is not safe for concurrent use.
	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithRand sets the random source used for par draws.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

// WithCatalog replaces the drink catalog.
func WithCatalog(catalog []models.Drink) Option {
	return func(s *Service) { s.catalog = catalog }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates the engine. notifier may be nil, in which case no notifications are sent.
func NewService(st Store, notifier Notifier, opts ...Option) *Service {
	s := &Service{
		store:    st,
		notifier: notifier,
		catalog:  DefaultCatalog,
		now:      func() time.Time { return time.Now().UTC() },
		newID:    uuid.NewString,
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateGameInput is everything needed to set up a new game.
type CreateGameInput struct {
	HostUID string
	Title   string
	Origin  models.Venue
	Venues  []models.Venue
}

// CreateGame builds the holes, seats the host and stores the new pending game.
func (s *Service) CreateGame(ctx context.Context, in CreateGameInput) (*models.Game, error) {
	if strings.TrimSpace(in.HostUID) == "" {
		return nil, validation("host uid is required")
	}

	s.rngMu.Lock()
	holes, err := GenerateHoles(in.Origin, in.Venues, s.catalog, s.rng)
	s.rngMu.Unlock()
	if err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		title = DefaultTitle
	}

	now := s.now()
	g := &models.Game{
		ID:      s.newID(),
		Title:   title,
		Origin:  in.Origin,
		HostUID: in.HostUID,
		Holes:   holes,
		Players: []models.Player{{
			UID:      in.HostUID,
			Role:     models.PlayerRoleHost,
			Name:     s.displayName(ctx, in.HostUID),
			JoinedAt: now,
		}},
		Status:    models.GameStatusPending,
		CreatedAt: now,
	}
	g = Recompute(g)

	if err := s.store.CreateGame(ctx, g); err != nil {
		return nil, err
	}

	log.Info().Str("game", g.ID).Str("host", g.HostUID).Int("holes", len(g.Holes)).Msg("game created")
	return g, nil
}

// GetGame returns a read-only snapshot. Pollers call this repeatedly.
func (s *Service) GetGame(ctx context.Context, gameID string) (*models.Game, error) {
	g, err := s.store.GetGame(ctx, gameID)
	if err != nil {
		return nil, gameErr(err)
	}
	return g, nil
}

// StartGame moves a game to active and clears every stroke card.
//
// Starting an already active game is allowed and clears the scores again.
func (s *Service) StartGame(ctx context.Context, gameID, callerUID string) (*models.Game, error) {
	g, err := s.store.UpdateGame(ctx, gameID, func(g *models.Game) error {
		if callerUID != g.HostUID {
			return permissionDenied("only the host can start the game")
		}
		if g.Status == models.GameStatusFinished {
			return invalidState("game is already finished")
		}

		g.Status = models.GameStatusActive
		for i := range g.Players {
			g.Players[i].Strokes = g.EmptyStrokes()
		}
		*g = *Recompute(g)
		return nil
	})
	if err != nil {
		return nil, gameErr(err)
	}

	log.Info().Str("game", gameID).Msg("game started")
	return g, nil
}

// RecordScore sets one player's strokes on one hole and recomputes totals.
func (s *Service) RecordScore(ctx context.Context, gameID, callerUID, playerUID string, holeNumber, strokes int) (*models.Game, error) {
	g, err := s.store.UpdateGame(ctx, gameID, func(g *models.Game) error {
		if callerUID != g.HostUID {
			return permissionDenied("only the host can record scores")
		}
		switch g.Status {
		case models.GameStatusActive:
		case models.GameStatusFinished:
			return invalidState("game is already finished")
		default:
			return invalidState("game has not started")
		}
		if holeNumber < 1 || holeNumber > len(g.Holes) {
			return validation("hole number must be between 1 and %d", len(g.Holes))
		}
		idx := g.PlayerIndex(playerUID)
		if idx < 0 {
			return validation("player %s is not in this game", playerUID)
		}
		if strokes < 0 {
			return validation("strokes must be zero or more")
		}

		p := &g.Players[idx]
		p.Strokes = fitStrokes(p.Strokes, len(g.Holes))
		p.Strokes[holeNumber-1] = models.IntPtr(strokes)
		*g = *Recompute(g)
		return nil
	})
	if err != nil {
		return nil, gameErr(err)
	}
	return g, nil
}

// FinishGame ends a pending or active game. There is no way back.
func (s *Service) FinishGame(ctx context.Context, gameID, callerUID string) (*models.Game, error) {
	g, err := s.store.UpdateGame(ctx, gameID, func(g *models.Game) error {
		if callerUID != g.HostUID {
			return permissionDenied("only the host can finish the game")
		}
		if g.Status == models.GameStatusFinished {
			return invalidState("game is already finished")
		}

		now := s.now()
		g.Status = models.GameStatusFinished
		g.FinishedAt = &now
		return nil
	})
	if err != nil {
		return nil, gameErr(err)
	}

	log.Info().Str("game", gameID).Msg("game finished")
	return g, nil
}

// Leaderboard returns the current standings of a game.
func (s *Service) Leaderboard(ctx context.Context, gameID string) ([]Standing, error) {
	g, err := s.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	return Leaderboard(g), nil
}

// displayName resolves the optional display name of uid. A lookup failure only costs the name.
func (s *Service) displayName(ctx context.Context, uid string) string {
	name, err := s.store.DisplayName(ctx, uid)
	if err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("display name lookup failed")
		return ""
	}
	return name
}

func gameErr(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return notFound("game not found")
	}
	return err
}
