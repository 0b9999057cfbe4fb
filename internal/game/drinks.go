package game

import "github.com/trentd187/pub-golf/internal/models"

// DefaultCatalog is the drink list holes draw their suggestions from.
// A drink's par is the number of sips it should take.
var DefaultCatalog = []models.Drink{
	{ID: "tequila-shot", Name: "Tequila Shot", Par: 2},
	{ID: "jagerbomb", Name: "Jägerbomb", Par: 2},
	{ID: "sambuca", Name: "Sambuca", Par: 2},
	{ID: "house-wine", Name: "Glass of House Wine", Par: 3},
	{ID: "gin-tonic", Name: "Gin & Tonic", Par: 3},
	{ID: "vodka-lemonade", Name: "Vodka Lemonade", Par: 3},
	{ID: "cider", Name: "Half of Cider", Par: 3},
	{ID: "lager", Name: "Pint of Lager", Par: 4},
	{ID: "pale-ale", Name: "Pint of Pale Ale", Par: 4},
	{ID: "bitter", Name: "Pint of Bitter", Par: 4},
	{ID: "stout", Name: "Pint of Stout", Par: 5},
	{ID: "snakebite", Name: "Snakebite", Par: 5},
	{ID: "pitcher-share", Name: "Pitcher Share", Par: 5},
}
