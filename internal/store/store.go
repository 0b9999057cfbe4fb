// Package store persists Game documents, invites and users through GORM.
//
// Each game is a single JSON document in the games table next to a version column. Every
// mutation is an optimistic read-modify-write: read the row, apply the change in memory, then
// UPDATE ... WHERE id = ? AND version = ?. If another writer got there first the update touches
// no rows and the whole cycle runs again against the fresh document.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/trentd187/pub-golf/internal/models"
)

var (
	// ErrNotFound is returned when a game or invite does not exist.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict is returned when a mutation kept losing races until the retry budget ran out.
	ErrConflict = errors.New("store: too many concurrent modifications")
	// ErrUnchanged may be returned by a mutate func to leave the document as it is.
	ErrUnchanged = errors.New("store: unchanged")

	// errStale signals a lost compare-and-swap inside a transaction.
	errStale = errors.New("store: stale version")
)

// Store is the GORM-backed document store.
type Store struct {
	db         *gorm.DB
	maxRetries int
}

// New returns a Store retrying conflicting writes up to maxRetries times.
func New(db *gorm.DB, maxRetries int) *Store {
	if maxRetries <= 0 {
		maxRetries = 1
	}
	return &Store{db: db, maxRetries: maxRetries}
}

// CreateGame inserts a brand new game document at version 1.
func (s *Store) CreateGame(ctx context.Context, g *models.Game) error {
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}
	rec := models.GameRecord{
		ID:        g.ID,
		HostUID:   g.HostUID,
		Status:    g.Status,
		Version:   1,
		Data:      datatypes.JSON(data),
		CreatedAt: g.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		return fmt.Errorf("insert game: %w", err)
	}
	return nil
}

// GetGame returns the current snapshot of a game.
func (s *Store) GetGame(ctx context.Context, id string) (*models.Game, error) {
	_, g, err := loadGame(s.db.WithContext(ctx), id)
	return g, err
}

// UpdateGame runs mutate against the latest version of the game and stores the result.
//
// mutate receives a private copy and may run several times if the write loses a race, so it
// must derive everything from its argument. Returning ErrUnchanged skips the write and yields
// the current document; any other error aborts and is returned as is.
func (s *Store) UpdateGame(ctx context.Context, id string, mutate func(*models.Game) error) (*models.Game, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		db := s.db.WithContext(ctx)
		rec, current, err := loadGame(db, id)
		if err != nil {
			return nil, err
		}

		next := current.Clone()
		if err := mutate(next); err != nil {
			if errors.Is(err, ErrUnchanged) {
				return current, nil
			}
			return nil, err
		}

		err = swapGame(db, rec, next)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, errStale) {
			return nil, err
		}

		log.Debug().Str("game", id).Int("attempt", attempt+1).Msg("game write conflict, retrying")
		if err := backoff(ctx, attempt); err != nil {
			return nil, err
		}
	}

	log.Warn().Str("game", id).Int("retries", s.maxRetries).Msg("game write gave up after repeated conflicts")
	return nil, ErrConflict
}

// CreateInvites inserts invites, skipping (game, invitee) pairs that already have one, and returns
// the invite rows that now exist for every requested pair in request order.
func (s *Store) CreateInvites(ctx context.Context, invites []models.Invite) ([]models.Invite, error) {
	if len(invites) == 0 {
		return nil, nil
	}

	var existing []models.Invite
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&invites).Error; err != nil {
			return fmt.Errorf("insert invites: %w", err)
		}

		toUIDs := make([]string, 0, len(invites))
		for _, inv := range invites {
			toUIDs = append(toUIDs, inv.ToUID)
		}
		return tx.Where("game_id = ? AND to_uid IN ?", invites[0].GameID, toUIDs).Find(&existing).Error
	})
	if err != nil {
		return nil, err
	}

	byUID := make(map[string]models.Invite, len(existing))
	for _, inv := range existing {
		byUID[inv.ToUID] = inv
	}
	out := make([]models.Invite, 0, len(invites))
	for _, inv := range invites {
		if stored, ok := byUID[inv.ToUID]; ok {
			out = append(out, stored)
		}
	}
	return out, nil
}

// GetInvite returns one invite by id.
func (s *Store) GetInvite(ctx context.Context, id string) (*models.Invite, error) {
	var inv models.Invite
	err := s.db.WithContext(ctx).First(&inv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invite: %w", err)
	}
	return &inv, nil
}

// ListInvites returns invites addressed to toUID, newest first. An empty status means any.
func (s *Store) ListInvites(ctx context.Context, toUID string, status models.InviteStatus) ([]models.Invite, error) {
	query := s.db.WithContext(ctx).Where("to_uid = ?", toUID)
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var invites []models.Invite
	if err := query.Order("created_at DESC").Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("list invites: %w", err)
	}
	return invites, nil
}

// UpdateInvite applies mutate to an invite and its game in one transaction.
//
// Both documents are written with a version check; if either changed underneath, the
// transaction rolls back and the whole read-mutate-write cycle is retried. The game is only
// written when mutate actually changed it.
func (s *Store) UpdateInvite(ctx context.Context, id string, mutate func(*models.Invite, *models.Game) error) (*models.Invite, *models.Game, error) {
	for attempt := 0; attempt < s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		var (
			outInvite *models.Invite
			outGame   *models.Game
		)
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var inv models.Invite
			err := tx.First(&inv, "id = ?", id).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return fmt.Errorf("load invite: %w", err)
			}

			rec, current, err := loadGame(tx, inv.GameID)
			if err != nil {
				return err
			}

			nextInvite := inv
			nextGame := current.Clone()
			if err := mutate(&nextInvite, nextGame); err != nil {
				if errors.Is(err, ErrUnchanged) {
					outInvite, outGame = &inv, current
					return nil
				}
				return err
			}

			res := tx.Model(&models.Invite{}).
				Where("id = ? AND version = ?", inv.ID, inv.Version).
				Updates(map[string]any{
					"status":       nextInvite.Status,
					"responded_at": nextInvite.RespondedAt,
					"version":      inv.Version + 1,
				})
			if res.Error != nil {
				return fmt.Errorf("update invite: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return errStale
			}
			nextInvite.Version = inv.Version + 1

			changed, err := documentChanged(current, nextGame)
			if err != nil {
				return err
			}
			if changed {
				if err := swapGame(tx, rec, nextGame); err != nil {
					return err
				}
			}

			outInvite, outGame = &nextInvite, nextGame
			return nil
		})
		if err == nil {
			return outInvite, outGame, nil
		}
		if !errors.Is(err, errStale) {
			return nil, nil, err
		}

		log.Debug().Str("invite", id).Int("attempt", attempt+1).Msg("invite write conflict, retrying")
		if err := backoff(ctx, attempt); err != nil {
			return nil, nil, err
		}
	}

	log.Warn().Str("invite", id).Int("retries", s.maxRetries).Msg("invite write gave up after repeated conflicts")
	return nil, nil, ErrConflict
}

// DisplayName returns the synced display name for uid, or "" if the user was never seen.
func (s *Store) DisplayName(ctx context.Context, uid string) (string, error) {
	var user models.User
	err := s.db.WithContext(ctx).First(&user, "uid = ?", uid).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("load user: %w", err)
	}
	return user.DisplayName, nil
}

func loadGame(db *gorm.DB, id string) (*models.GameRecord, *models.Game, error) {
	var rec models.GameRecord
	err := db.First(&rec, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load game: %w", err)
	}

	var g models.Game
	if err := json.Unmarshal(rec.Data, &g); err != nil {
		return nil, nil, fmt.Errorf("decode game %s: %w", id, err)
	}
	return &rec, &g, nil
}

// swapGame writes next only if the row is still at rec.Version.
func swapGame(db *gorm.DB, rec *models.GameRecord, next *models.Game) error {
	if !rec.Status.CanMoveTo(next.Status) {
		return fmt.Errorf("store: game %s cannot move from %s to %s", rec.ID, rec.Status, next.Status)
	}

	data, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode game: %w", err)
	}

	res := db.Model(&models.GameRecord{}).
		Where("id = ? AND version = ?", rec.ID, rec.Version).
		Updates(map[string]any{
			"status":     next.Status,
			"version":    rec.Version + 1,
			"data":       datatypes.JSON(data),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return fmt.Errorf("update game: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return errStale
	}
	return nil
}

func documentChanged(before, after *models.Game) (bool, error) {
	a, err := json.Marshal(before)
	if err != nil {
		return false, err
	}
	b, err := json.Marshal(after)
	if err != nil {
		return false, err
	}
	return !bytes.Equal(a, b), nil
}

// backoff sleeps a short jittered interval that grows with the attempt number.
func backoff(ctx context.Context, attempt int) error {
	d := time.Duration(rand.Int63n(int64(attempt+1)*int64(2*time.Millisecond) + 1))
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
