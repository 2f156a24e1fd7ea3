package leagues

import "strings"

// MatchKind ranks how a league label matched a candidate name.
type MatchKind int

const (
	MatchNone MatchKind = iota
	MatchContains
	MatchAlias
	MatchExact
)

const (
	premierLeague = "premier league"
	ghana         = "ghana"
)

// Normalize lowercases s and collapses runs of whitespace to one space.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Matches reports whether a team's free-text league label refers to the
// custom league named customLeagueName.
func Matches(teamLeague, customLeagueName string) bool {
	return Match(teamLeague, customLeagueName) != MatchNone
}

// Match classifies the relation between two league labels.
func Match(a, b string) MatchKind {
	na, nb := Normalize(a), Normalize(b)
	if na == "" || nb == "" {
		return MatchNone
	}
	if na == nb {
		return MatchExact
	}
	if isAlias(na, nb) || isAlias(nb, na) {
		return MatchAlias
	}
	if strings.Contains(na, nb) || strings.Contains(nb, na) {
		if premierLeagueConflict(na, nb) {
			return MatchNone
		}
		return MatchContains
	}
	return MatchNone
}

// Ghana Premier League must not swallow plain "Premier League" or vice versa.
func premierLeagueConflict(a, b string) bool {
	if !strings.Contains(a, premierLeague) || !strings.Contains(b, premierLeague) {
		return false
	}
	return strings.Contains(a, ghana) != strings.Contains(b, ghana)
}

func isAlias(name, candidate string) bool {
	for _, alias := range leagueAliases[name] {
		if alias == candidate {
			return true
		}
	}
	return false
}

// Candidate is a league a label can resolve to.
type Candidate struct {
	ID     string
	Name   string
	Custom bool
}

// Resolve picks the candidate whose name best matches label. Exact matches win
// over alias matches, which win over containment; ties keep list order.
func Resolve(label string, candidates []Candidate) (Candidate, bool) {
	best := MatchNone
	var picked Candidate
	for _, c := range candidates {
		kind := Match(label, c.Name)
		if kind > best {
			best = kind
			picked = c
			if kind == MatchExact {
				break
			}
		}
	}
	return picked, best != MatchNone
}
