package game

import (
	"sort"

	"github.com/trentd187/pub-golf/internal/models"
)

// Recompute derives every player's totals from their stroke cards and returns a new Game.
//
// Stroke cards are padded with nil or truncated to the number of holes. TotalStrokes is the sum
// of recorded strokes (nil when nothing is recorded) and ScoreToPar subtracts the par of the full
// round, even if only some holes have been played. Nothing but the players' score fields changes,
// and running it twice gives the same result as running it once.
func Recompute(g *models.Game) *models.Game {
	out := g.Clone()
	totalPar := out.TotalPar()

	for i := range out.Players {
		p := &out.Players[i]
		p.Strokes = fitStrokes(p.Strokes, len(out.Holes))

		recorded := 0
		sum := 0
		for _, s := range p.Strokes {
			if s != nil {
				recorded++
				sum += *s
			}
		}

		if recorded == 0 {
			p.TotalStrokes = nil
			p.ScoreToPar = nil
			continue
		}
		p.TotalStrokes = models.IntPtr(sum)
		p.ScoreToPar = models.IntPtr(sum - totalPar)
	}
	return out
}

// fitStrokes resizes a stroke card to n slots.
func fitStrokes(strokes []*int, n int) []*int {
	if len(strokes) == n {
		return strokes
	}
	out := make([]*int, n)
	copy(out, strokes)
	return out
}

// Standing is one row of the leaderboard.
type Standing struct {
	Position     int    `json:"position"`
	UID          string `json:"uid"`
	Name         string `json:"name,omitempty"`
	HolesPlayed  int    `json:"holes_played"`
	TotalStrokes *int   `json:"total_strokes"`
	ScoreToPar   *int   `json:"score_to_par"`
}

// Leaderboard ranks players by score to par, lowest first. Players without any strokes come
// last; ties share a position and are listed by name, then uid.
func Leaderboard(g *models.Game) []Standing {
	scored := Recompute(g)

	rows := make([]Standing, 0, len(scored.Players))
	for _, p := range scored.Players {
		played := 0
		for _, s := range p.Strokes {
			if s != nil {
				played++
			}
		}
		rows = append(rows, Standing{
			UID:          p.UID,
			Name:         p.Name,
			HolesPlayed:  played,
			TotalStrokes: p.TotalStrokes,
			ScoreToPar:   p.ScoreToPar,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if (a.ScoreToPar == nil) != (b.ScoreToPar == nil) {
			return a.ScoreToPar != nil
		}
		if a.ScoreToPar != nil && *a.ScoreToPar != *b.ScoreToPar {
			return *a.ScoreToPar < *b.ScoreToPar
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UID < b.UID
	})

	for i := range rows {
		switch {
		case i > 0 && sameScore(rows[i-1], rows[i]):
			rows[i].Position = rows[i-1].Position
		default:
			rows[i].Position = i + 1
		}
	}
	return rows
}

func sameScore(a, b Standing) bool {
	if a.ScoreToPar == nil || b.ScoreToPar == nil {
		return a.ScoreToPar == nil && b.ScoreToPar == nil
	}
	return *a.ScoreToPar == *b.ScoreToPar
}
