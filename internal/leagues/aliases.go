package leagues

// leagueAliases maps a normalised league name to other names it is known by.
// Lookups run in both directions, so each pair only needs one entry.
var leagueAliases = map[string][]string{
	"english premier league": {
		"epl", "premier league", "barclays premier league", "england premier league",
	},
	"la liga": {
		"laliga", "la liga ea sports", "spanish la liga", "primera division", "laliga santander",
	},
	"serie a": {
		"italian serie a", "serie a tim", "calcio serie a",
	},
	"bundesliga": {
		"german bundesliga", "1. bundesliga",
	},
	"ligue 1": {
		"french ligue 1", "ligue 1 mcdonald's", "ligue 1 uber eats",
	},
	"ghana premier league": {
		"gpl", "betpawa premier league", "ghana pl",
	},
	"uefa champions league": {
		"ucl", "champions league",
	},
	"major league soccer": {
		"mls",
	},
	"national basketball association": {
		"nba",
	},
	"national football league": {
		"nfl",
	},
	"africa cup of nations": {
		"afcon", "african cup of nations",
	},
	"international": {
		"national teams", "national team", "internationals",
	},
}
