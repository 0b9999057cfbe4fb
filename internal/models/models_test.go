package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGameStatusCanMoveTo(t *testing.T) {
	assert.True(t, GameStatusPending.CanMoveTo(GameStatusActive))
	assert.True(t, GameStatusPending.CanMoveTo(GameStatusFinished))
	assert.True(t, GameStatusActive.CanMoveTo(GameStatusActive))
	assert.True(t, GameStatusActive.CanMoveTo(GameStatusFinished))
	assert.False(t, GameStatusActive.CanMoveTo(GameStatusPending))
	assert.False(t, GameStatusFinished.CanMoveTo(GameStatusActive))
	assert.False(t, GameStatus("bogus").CanMoveTo(GameStatusActive))
}

func TestCloneIsDeep(t *testing.T) {
	now := time.Now()
	g := &Game{
		ID:         "g1",
		Origin:     Venue{Name: "Start", Coordinates: &Coordinates{Lat: 1, Lng: 2}},
		Holes:      []Hole{{HoleNumber: 1, Par: 3, Drinks: []Drink{{ID: "d", Par: 3}}}},
		Players:    []Player{{UID: "host", Strokes: []*int{IntPtr(4)}, TotalStrokes: IntPtr(4)}},
		FinishedAt: &now,
	}

	c := g.Clone()
	*c.Players[0].Strokes[0] = 9
	c.Players[0].Strokes = append(c.Players[0].Strokes, nil)
	c.Holes[0].Drinks[0].Name = "changed"
	c.Origin.Coordinates.Lat = 50

	assert.Equal(t, 4, *g.Players[0].Strokes[0])
	assert.Len(t, g.Players[0].Strokes, 1)
	assert.Equal(t, "", g.Holes[0].Drinks[0].Name)
	assert.Equal(t, 1.0, g.Origin.Coordinates.Lat)
}

func TestPlayerLookup(t *testing.T) {
	g := &Game{
		Holes:   make([]Hole, 3),
		Players: []Player{{UID: "a"}, {UID: "b"}},
	}
	assert.Equal(t, 1, g.PlayerIndex("b"))
	assert.Equal(t, -1, g.PlayerIndex("c"))
	assert.True(t, g.HasPlayer("a"))
	assert.Len(t, g.EmptyStrokes(), 3)
}

func TestInviteStatusValid(t *testing.T) {
	assert.True(t, InviteStatusAccepted.Valid())
	assert.False(t, InviteStatus("maybe").Valid())
}
