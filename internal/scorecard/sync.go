package scorecard

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/trentd187/pub-golf/internal/models"
)

// DefaultInterval is how often an open game screen re-reads the game.
const DefaultInterval = 5 * time.Second

// API is the slice of the game service a scorecard talks to. Mutations act as the signed-in
// user; HTTPClient implements it.
type API interface {
	GetGame(ctx context.Context, gameID string) (*models.Game, error)
	StartGame(ctx context.Context, gameID string) (*models.Game, error)
	FinishGame(ctx context.Context, gameID string) (*models.Game, error)
	RecordScore(ctx context.Context, gameID, playerUID string, holeNumber, strokes int) (*models.Game, error)
}

// Snapshot is one observed version of the game plus the view derived for whoever is signed in
// at the time the snapshot is read.
type Snapshot struct {
	Game      *models.Game
	View      View
	FetchedAt time.Time
}

// ErrNoSnapshot is returned by Snapshot before the first successful fetch.
var ErrNoSnapshot = errors.New("scorecard: no snapshot yet")

// Sync keeps the local copy of one game fresh. The server never pushes, so Sync re-reads on a
// fixed interval while Run is active, on Refresh, and right after every mutation it issues.
type Sync struct {
	api      API
	gameID   string
	identity func() string
	interval time.Duration
	onUpdate func(Snapshot)

	mu        sync.Mutex
	game      *models.Game
	fetchedAt time.Time
	// Fetches are numbered when issued. A response only replaces the stored game if no
	// later-issued fetch has been stored yet.
	issued uint64
	stored uint64
}

// SyncOption configures a Sync.
type SyncOption func(*Sync)

// WithInterval sets the polling interval.
func WithInterval(d time.Duration) SyncOption {
	return func(s *Sync) { s.interval = d }
}

// WithUpdateHook registers fn to receive every snapshot that replaces the stored one.
func WithUpdateHook(fn func(Snapshot)) SyncOption {
	return func(s *Sync) { s.onUpdate = fn }
}

// NewSync creates a Sync for gameID. identity returns the uid of whoever is signed in right
// now, or "" when nobody is.
func NewSync(api API, gameID string, identity func() string, opts ...SyncOption) *Sync {
	s := &Sync{
		api:      api,
		gameID:   gameID,
		identity: identity,
		interval: DefaultInterval,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run polls until ctx is cancelled. The first fetch happens immediately. Fetch errors are
// logged and the loop carries on; the last good snapshot stays available.
func (s *Sync) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if _, err := s.Refresh(ctx); err != nil && ctx.Err() == nil {
			log.Warn().Err(err).Str("game", s.gameID).Msg("scorecard refresh failed")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Refresh fetches the game now. Pull-to-refresh calls this directly.
func (s *Sync) Refresh(ctx context.Context) (Snapshot, error) {
	seq := s.nextSeq()
	g, err := s.api.GetGame(ctx, s.gameID)
	if err != nil {
		return Snapshot{}, err
	}
	return s.store(seq, g), nil
}

// Snapshot returns the latest stored game with a view derived for the current identity.
func (s *Sync) Snapshot() (Snapshot, error) {
	s.mu.Lock()
	g, at := s.game, s.fetchedAt
	s.mu.Unlock()
	if g == nil {
		return Snapshot{}, ErrNoSnapshot
	}
	return s.snapshot(g, at), nil
}

// SubmitScore records the total of p for playerUID on holeNumber, then re-reads the game.
func (s *Sync) SubmitScore(ctx context.Context, playerUID string, holeNumber int, p Penalties) (Snapshot, error) {
	return s.mutate(ctx, func() (*models.Game, error) {
		return s.api.RecordScore(ctx, s.gameID, playerUID, holeNumber, p.Total())
	})
}

// Start starts the game, then re-reads it.
func (s *Sync) Start(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() (*models.Game, error) {
		return s.api.StartGame(ctx, s.gameID)
	})
}

// Finish ends the game, then re-reads it.
func (s *Sync) Finish(ctx context.Context) (Snapshot, error) {
	return s.mutate(ctx, func() (*models.Game, error) {
		return s.api.FinishGame(ctx, s.gameID)
	})
}

// mutate applies the server's answer to a mutation and follows it with a fresh read. If the
// follow-up read fails the mutation still succeeded, so its own answer is returned.
func (s *Sync) mutate(ctx context.Context, call func() (*models.Game, error)) (Snapshot, error) {
	seq := s.nextSeq()
	g, err := call()
	if err != nil {
		return Snapshot{}, err
	}
	snap := s.store(seq, g)

	fresh, err := s.Refresh(ctx)
	if err != nil {
		log.Warn().Err(err).Str("game", s.gameID).Msg("scorecard refresh after mutation failed")
		return snap, nil
	}
	return fresh, nil
}

func (s *Sync) nextSeq() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.issued++
	return s.issued
}

// store keeps g unless a later fetch already landed, and returns the snapshot now current.
func (s *Sync) store(seq uint64, g *models.Game) Snapshot {
	s.mu.Lock()
	if seq > s.stored {
		s.stored = seq
		s.game = g
		s.fetchedAt = time.Now()
	}
	current, at := s.game, s.fetchedAt
	replaced := current == g
	s.mu.Unlock()

	snap := s.snapshot(current, at)
	if replaced && s.onUpdate != nil {
		s.onUpdate(snap)
	}
	return snap
}

func (s *Sync) snapshot(g *models.Game, at time.Time) Snapshot {
	uid := ""
	if s.identity != nil {
		uid = s.identity()
	}
	return Snapshot{Game: g, View: Derive(g, uid), FetchedAt: at}
}
