// Package models defines the data structures of the Pub Golf engine.
//
// The data model represents a pub crawl scored like a round of golf:
//   - A Game is one competition, stored as a single JSON document
//   - A Game holds a fixed list of Holes (venues) created up front
//   - Players record strokes (drinks/sips) per hole; totals are derived
//   - Invites let the host pull friends into the roster
//
// Game documents are persisted through GameRecord (one row per game with a version column used
// for optimistic concurrency). Invites and Users are plain tables.
package models

import (
	"time"

	// datatypes.JSON maps to JSONB on Postgres and JSON on sqlite.
	"gorm.io/datatypes"
)

// --- Enums ---

// GameStatus tracks the lifecycle of a game. It only ever moves forward.
type GameStatus string

const (
	GameStatusPending  GameStatus = "pending"  // Created, not started yet
	GameStatusActive   GameStatus = "active"   // Scores can be recorded
	GameStatusFinished GameStatus = "finished" // Terminal
)

// rank orders statuses so transitions can be checked for monotonicity.
func (s GameStatus) rank() int {
	switch s {
	case GameStatusPending:
		return 0
	case GameStatusActive:
		return 1
	case GameStatusFinished:
		return 2
	default:
		return -1
	}
}

// CanMoveTo reports whether next is the same status or a later one.
func (s GameStatus) CanMoveTo(next GameStatus) bool {
	return s.rank() >= 0 && next.rank() >= s.rank()
}

// PlayerRole controls what a participant may do within a game.
type PlayerRole string

const (
	PlayerRoleHost   PlayerRole = "host"   // Creator; sole authority for transitions and scores
	PlayerRolePlayer PlayerRole = "player" // Joined through an invite
)

// InviteStatus is set once, pending -> accepted|declined.
type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
)

// Valid reports whether s is one of the known invite statuses.
func (s InviteStatus) Valid() bool {
	switch s {
	case InviteStatusPending, InviteStatusAccepted, InviteStatusDeclined:
		return true
	}
	return false
}

// --- Document types ---

// Coordinates is a latitude/longitude pair in degrees.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Venue is a candidate stop supplied by the discovery step.
type Venue struct {
	Name        string       `json:"name"`
	Address     string       `json:"address"`
	Coordinates *Coordinates `json:"coordinates,omitempty"`
}

// Drink is a suggested drink for a hole.
type Drink struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Par  int    `json:"par"`
}

// Hole is one venue stop. Immutable once the game is created.
type Hole struct {
	HoleNumber   int          `json:"hole_number"` // 1-based, matches array position
	Name         string       `json:"name"`
	Address      string       `json:"address"`
	Coordinates  *Coordinates `json:"coordinates,omitempty"`
	Par          int          `json:"par"`    // 2..5
	Drinks       []Drink      `json:"drinks"` // up to 3, each with the hole's par
	WaterHazard  bool         `json:"water_hazard"`
	BunkerHazard bool         `json:"bunker_hazard"`
}

// Player is one participant, keyed by UID.
// Strokes is parallel to Game.Holes; a nil slot means no score recorded.
type Player struct {
	UID          string     `json:"uid"`
	Role         PlayerRole `json:"role"`
	Name         string     `json:"name,omitempty"`
	JoinedAt     time.Time  `json:"joined_at"`
	Strokes      []*int     `json:"strokes"`
	TotalStrokes *int       `json:"total_strokes"`
	ScoreToPar   *int       `json:"score_to_par"`
}

// Game is the single mutable document per competition.
type Game struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Origin     Venue      `json:"origin"`
	HostUID    string     `json:"host_uid"`
	Holes      []Hole     `json:"holes"`
	Players    []Player   `json:"players"`
	Status     GameStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	FinishedAt *time.Time `json:"finished_at"`
}

// TotalPar is the par of the full round.
func (g *Game) TotalPar() int {
	total := 0
	for _, h := range g.Holes {
		total += h.Par
	}
	return total
}

// PlayerIndex returns the position of uid in Players, or -1.
func (g *Game) PlayerIndex(uid string) int {
	for i := range g.Players {
		if g.Players[i].UID == uid {
			return i
		}
	}
	return -1
}

// HasPlayer reports whether uid is on the roster.
func (g *Game) HasPlayer(uid string) bool {
	return g.PlayerIndex(uid) >= 0
}

// EmptyStrokes returns an all-nil stroke card sized for the game's holes.
func (g *Game) EmptyStrokes() []*int {
	return make([]*int, len(g.Holes))
}

// Clone returns a deep copy so mutations never leak into a caller's snapshot.
func (g *Game) Clone() *Game {
	out := *g
	if g.Origin.Coordinates != nil {
		c := *g.Origin.Coordinates
		out.Origin.Coordinates = &c
	}
	if g.FinishedAt != nil {
		t := *g.FinishedAt
		out.FinishedAt = &t
	}
	out.Holes = make([]Hole, len(g.Holes))
	for i, h := range g.Holes {
		if h.Coordinates != nil {
			c := *h.Coordinates
			h.Coordinates = &c
		}
		h.Drinks = append([]Drink(nil), h.Drinks...)
		out.Holes[i] = h
	}
	out.Players = make([]Player, len(g.Players))
	for i, p := range g.Players {
		out.Players[i] = p.clone()
	}
	return &out
}

func (p Player) clone() Player {
	p.Strokes = cloneInts(p.Strokes)
	p.TotalStrokes = cloneInt(p.TotalStrokes)
	p.ScoreToPar = cloneInt(p.ScoreToPar)
	return p
}

func cloneInts(in []*int) []*int {
	if in == nil {
		return nil
	}
	out := make([]*int, len(in))
	for i, v := range in {
		out[i] = cloneInt(v)
	}
	return out
}

func cloneInt(v *int) *int {
	if v == nil {
		return nil
	}
	n := *v
	return &n
}

// IntPtr is a small helper for building stroke cards.
func IntPtr(n int) *int {
	return &n
}

// --- Tables ---

// GameRecord is the row holding one Game document.
// Version is bumped on every write; a write only lands if the version it read is still current.
type GameRecord struct {
	ID        string         `gorm:"primaryKey;size:36"`
	HostUID   string         `gorm:"size:128;not null;index"`
	Status    GameStatus     `gorm:"size:16;not null"`
	Version   int64          `gorm:"not null"`
	Data      datatypes.JSON `gorm:"not null"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName keeps the table name independent of the Go type name.
func (GameRecord) TableName() string { return "games" }

// Invite is one standing offer for ToUID to join GameID.
// The unique index prevents two invite rows for the same (game, invitee) pair.
type Invite struct {
	ID          string       `gorm:"primaryKey;size:36" json:"id"`
	GameID      string       `gorm:"size:36;not null;uniqueIndex:idx_invites_game_to" json:"game_id"`
	FromUID     string       `gorm:"size:128;not null" json:"from_uid"`
	ToUID       string       `gorm:"size:128;not null;uniqueIndex:idx_invites_game_to;index" json:"to_uid"`
	Status      InviteStatus `gorm:"size:16;not null" json:"status"`
	Version     int64        `gorm:"not null" json:"-"`
	CreatedAt   time.Time    `json:"created_at"`
	RespondedAt *time.Time   `json:"responded_at"`
}

// User is the local copy of an identity, synced lazily from the bearer token on each request.
type User struct {
	UID         string `gorm:"primaryKey;size:128"` // Identity provider subject
	DisplayName string `gorm:"not null;default:''"`
	Email       string `gorm:"not null;default:''"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
