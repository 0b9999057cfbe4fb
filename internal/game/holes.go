package game

import (
	"math"
	"math/rand"
	"strings"

	"github.com/trentd187/pub-golf/internal/models"
)

const (
	// MaxHoles is the longest round a game can have.
	MaxHoles = 9
	// maxDrinksPerHole caps the drink suggestions on a hole.
	maxDrinksPerHole = 3
	// coordinateTolerance is how close (in degrees) a venue must be to the origin to count as it.
	coordinateTolerance = 1e-5
)

// Hazards sit at fixed positions in the round, whatever venue lands there.
var (
	waterHoles  = map[int]bool{3: true, 7: true}
	bunkerHoles = map[int]bool{5: true, 9: true}
)

// GenerateHoles turns the candidate venues into the fixed list of holes for a new game.
//
// Par is drawn at random for every hole, while drink suggestions rotate through the catalog by
// hole index. The same candidates therefore always yield the same venues and rotation, but not
// the same pars.
func GenerateHoles(origin models.Venue, candidates []models.Venue, catalog []models.Drink, rng *rand.Rand) ([]models.Hole, error) {
	venues := FilterVenues(origin, candidates)
	if len(venues) == 0 {
		return nil, validation("at least one valid venue other than the starting point is required")
	}
	if len(venues) > MaxHoles {
		venues = venues[:MaxHoles]
	}

	holes := make([]models.Hole, len(venues))
	for i, v := range venues {
		number := i + 1
		par := drawPar(rng)
		holes[i] = models.Hole{
			HoleNumber:   number,
			Name:         v.Name,
			Address:      v.Address,
			Coordinates:  copyCoordinates(v.Coordinates),
			Par:          par,
			Drinks:       pickDrinks(catalog, par, i),
			WaterHazard:  waterHoles[number],
			BunkerHazard: bunkerHoles[number],
		}
	}
	return holes, nil
}

// FilterVenues drops candidates the round must not visit: venues without an address, the
// device's "current location" placeholder, and anything that is the starting venue.
func FilterVenues(origin models.Venue, candidates []models.Venue) []models.Venue {
	out := make([]models.Venue, 0, len(candidates))
	for _, v := range candidates {
		if strings.TrimSpace(v.Address) == "" {
			continue
		}
		if isCurrentLocation(v.Name) || isCurrentLocation(v.Address) {
			continue
		}
		if sameVenue(origin, v) {
			continue
		}
		out = append(out, v)
	}
	return out
}

func isCurrentLocation(s string) bool {
	return strings.Contains(strings.ToLower(s), "current location")
}

func sameVenue(origin, v models.Venue) bool {
	if sameText(origin.Name, v.Name) || sameText(origin.Address, v.Address) {
		return true
	}
	if origin.Coordinates != nil && v.Coordinates != nil {
		return math.Abs(origin.Coordinates.Lat-v.Coordinates.Lat) <= coordinateTolerance &&
			math.Abs(origin.Coordinates.Lng-v.Coordinates.Lng) <= coordinateTolerance
	}
	return false
}

// sameText compares case-insensitively; blank values never match.
func sameText(a, b string) bool {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	return a != "" && strings.EqualFold(a, b)
}

// drawPar picks 2, 3, 4 or 5 with weights 20/30/30/20.
func drawPar(rng *rand.Rand) int {
	switch n := rng.Intn(100); {
	case n < 20:
		return 2
	case n < 50:
		return 3
	case n < 80:
		return 4
	default:
		return 5
	}
}

// pickDrinks takes up to three drinks with the given par, starting at the hole index and
// wrapping around. With no drink of that par the whole catalog is rotated instead; the
// suggestions still carry the hole's par.
func pickDrinks(catalog []models.Drink, par, index int) []models.Drink {
	pool := make([]models.Drink, 0, len(catalog))
	for _, d := range catalog {
		if d.Par == par {
			pool = append(pool, d)
		}
	}
	if len(pool) == 0 {
		pool = catalog
	}
	if len(pool) == 0 {
		return []models.Drink{}
	}

	n := min(maxDrinksPerHole, len(pool))
	out := make([]models.Drink, 0, n)
	for k := 0; k < n; k++ {
		d := pool[(index+k)%len(pool)]
		d.Par = par
		out = append(out, d)
	}
	return out
}

func copyCoordinates(c *models.Coordinates) *models.Coordinates {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}
