// Package scorecard is the client side of a game: it keeps a local copy of the game fresh by
// polling, derives what the game screen may offer the local user, and turns a hole's penalty
// breakdown into the single stroke total the server stores.
package scorecard

import "github.com/trentd187/pub-golf/internal/models"

// Stroke penalties added on top of the sips taken for a hole.
const (
	WaterPenalty     = 1
	BunkerPenalty    = 3
	SpillPenalty     = 3
	ViolationPenalty = 5
)

// Penalties is the breakdown of one player's hole as entered on the scorecard.
type Penalties struct {
	Base      int  // sips taken to finish the drink
	Water     bool // went to the toilet on a water hole
	Bunker    bool // sat down on a bunker hole
	Spill     bool
	Violation bool // flagged by the group for breaking a house rule
}

// Total is the stroke count submitted for the hole.
func (p Penalties) Total() int {
	total := p.Base
	if p.Water {
		total += WaterPenalty
	}
	if p.Bunker {
		total += BunkerPenalty
	}
	if p.Spill {
		total += SpillPenalty
	}
	if p.Violation {
		total += ViolationPenalty
	}
	return total
}

// Button labels for the host's lifecycle control.
const (
	LabelStart    = "Start Game"
	LabelEnd      = "End Game"
	LabelGameOver = "Game Over"
)

// View is what the game screen may show to the local user for one snapshot.
type View struct {
	IsHost        bool
	CanEditScores bool
	CanStart      bool
	CanFinish     bool
	ButtonLabel   string
	// EditableHole is the first hole still missing a score, or 0 when scores cannot be edited
	// or every card is complete.
	EditableHole int
}

// Derive computes the view for localUID. It reads only status and host identity, so it must
// be called again for every snapshot and every identity change.
func Derive(g *models.Game, localUID string) View {
	if g == nil {
		return View{}
	}

	v := View{IsHost: localUID != "" && localUID == g.HostUID}
	switch g.Status {
	case models.GameStatusPending:
		v.ButtonLabel = LabelStart
		v.CanStart = v.IsHost
		v.CanFinish = v.IsHost
	case models.GameStatusActive:
		v.ButtonLabel = LabelEnd
		v.CanFinish = v.IsHost
		v.CanEditScores = v.IsHost
	case models.GameStatusFinished:
		v.ButtonLabel = LabelGameOver
	}
	if !v.IsHost && g.Status != models.GameStatusFinished {
		v.ButtonLabel = ""
	}
	if v.CanEditScores {
		v.EditableHole = firstOpenHole(g)
	}
	return v
}

func firstOpenHole(g *models.Game) int {
	for i := range g.Holes {
		for _, p := range g.Players {
			if i >= len(p.Strokes) || p.Strokes[i] == nil {
				return i + 1
			}
		}
	}
	return 0
}
