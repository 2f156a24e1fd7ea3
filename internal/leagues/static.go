package leagues

import "github.com/angelmondragon/kitstore-backend/pkg/enums"

// StaticLeague is a league compiled into the binary.
type StaticLeague struct {
	ID      string
	Name    string
	Sport   enums.Sport
	Country string
	LogoURL string
}

// StaticTeam is a team compiled into the binary.
type StaticTeam struct {
	ID       string
	Name     string
	Sport    enums.Sport
	LeagueID string
	LogoURL  string
}

const logoBase = "/static/logos/"

var staticLeagues = []StaticLeague{
	{ID: "epl", Name: "English Premier League", Sport: enums.SportFootball, Country: "England", LogoURL: logoBase + "epl.png"},
	{ID: "laliga", Name: "La Liga", Sport: enums.SportFootball, Country: "Spain", LogoURL: logoBase + "laliga.png"},
	{ID: "seriea", Name: "Serie A", Sport: enums.SportFootball, Country: "Italy", LogoURL: logoBase + "seriea.png"},
	{ID: "bundesliga", Name: "Bundesliga", Sport: enums.SportFootball, Country: "Germany", LogoURL: logoBase + "bundesliga.png"},
	{ID: "ligue1", Name: "Ligue 1", Sport: enums.SportFootball, Country: "France", LogoURL: logoBase + "ligue1.png"},
	{ID: "gpl", Name: "Ghana Premier League", Sport: enums.SportFootball, Country: "Ghana", LogoURL: logoBase + "gpl.png"},
	{ID: "international", Name: "International", Sport: enums.SportFootball, Country: "", LogoURL: logoBase + "fifa.png"},
	{ID: "nba", Name: "National Basketball Association", Sport: enums.SportBasketball, Country: "USA", LogoURL: logoBase + "nba.png"},
	{ID: "nfl", Name: "National Football League", Sport: enums.SportAmerican, Country: "USA", LogoURL: logoBase + "nfl.png"},
}

var staticTeams = []StaticTeam{
	{ID: "arsenal", Name: "Arsenal", Sport: enums.SportFootball, LeagueID: "epl"},
	{ID: "chelsea", Name: "Chelsea", Sport: enums.SportFootball, LeagueID: "epl"},
	{ID: "liverpool", Name: "Liverpool", Sport: enums.SportFootball, LeagueID: "epl"},
	{ID: "manchester-city", Name: "Manchester City", Sport: enums.SportFootball, LeagueID: "epl"},
	{ID: "manchester-united", Name: "Manchester United", Sport: enums.SportFootball, LeagueID: "epl"},
	{ID: "tottenham", Name: "Tottenham Hotspur", Sport: enums.SportFootball, LeagueID: "epl"},
	{ID: "real-madrid", Name: "Real Madrid", Sport: enums.SportFootball, LeagueID: "laliga"},
	{ID: "barcelona", Name: "FC Barcelona", Sport: enums.SportFootball, LeagueID: "laliga"},
	{ID: "atletico-madrid", Name: "Atletico Madrid", Sport: enums.SportFootball, LeagueID: "laliga"},
	{ID: "juventus", Name: "Juventus", Sport: enums.SportFootball, LeagueID: "seriea"},
	{ID: "ac-milan", Name: "AC Milan", Sport: enums.SportFootball, LeagueID: "seriea"},
	{ID: "inter", Name: "Inter Milan", Sport: enums.SportFootball, LeagueID: "seriea"},
	{ID: "bayern", Name: "Bayern Munich", Sport: enums.SportFootball, LeagueID: "bundesliga"},
	{ID: "dortmund", Name: "Borussia Dortmund", Sport: enums.SportFootball, LeagueID: "bundesliga"},
	{ID: "psg", Name: "Paris Saint-Germain", Sport: enums.SportFootball, LeagueID: "ligue1"},
	{ID: "hearts-of-oak", Name: "Accra Hearts of Oak", Sport: enums.SportFootball, LeagueID: "gpl"},
	{ID: "asante-kotoko", Name: "Asante Kotoko", Sport: enums.SportFootball, LeagueID: "gpl"},
	{ID: "black-stars", Name: "Ghana Black Stars", Sport: enums.SportFootball, LeagueID: "international"},
	{ID: "lakers", Name: "Los Angeles Lakers", Sport: enums.SportBasketball, LeagueID: "nba"},
	{ID: "warriors", Name: "Golden State Warriors", Sport: enums.SportBasketball, LeagueID: "nba"},
	{ID: "chiefs", Name: "Kansas City Chiefs", Sport: enums.SportAmerican, LeagueID: "nfl"},
}

func staticLeagueByID(id string) (StaticLeague, bool) {
	for _, l := range staticLeagues {
		if l.ID == id {
			return l, true
		}
	}
	return StaticLeague{}, false
}

func staticTeamByID(id string) (StaticTeam, bool) {
	for _, t := range staticTeams {
		if t.ID == id {
			return t, true
		}
	}
	return StaticTeam{}, false
}

func staticCandidates(sport enums.Sport) []Candidate {
	out := make([]Candidate, 0, len(staticLeagues))
	for _, l := range staticLeagues {
		if sport == "" || l.Sport == sport {
			out = append(out, Candidate{ID: l.ID, Name: l.Name})
		}
	}
	return out
}

// StaticTeams returns the built-in team catalog.
func StaticTeams() []StaticTeam {
	out := make([]StaticTeam, len(staticTeams))
	copy(out, staticTeams)
	return out
}
