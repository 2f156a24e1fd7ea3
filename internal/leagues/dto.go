package leagues

import (
	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
)

const (
	SourceStatic = "static"
	SourceCustom = "custom"
)

// LeagueDTO is a league as listed to clients. Custom leagues linked to a
// static league are folded into it and listed under CustomLeagueIDs.
type LeagueDTO struct {
	ID              string      `json:"id"`
	Name            string      `json:"name"`
	Sport           enums.Sport `json:"sport"`
	Country         string      `json:"country,omitempty"`
	LogoURL         string      `json:"logoUrl,omitempty"`
	Source          string      `json:"source"`
	CustomLeagueIDs []string    `json:"customLeagueIds,omitempty"`
}

// TeamDTO is a static or custom team.
type TeamDTO struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Sport      enums.Sport `json:"sport"`
	LeagueID   string      `json:"leagueId,omitempty"`
	LeagueName string      `json:"leagueName,omitempty"`
	LogoURL    string      `json:"logoUrl,omitempty"`
	Source     string      `json:"source"`
}

// TeamDetailDTO is a team with its active products.
type TeamDetailDTO struct {
	TeamDTO
	Products []products.ProductDTO `json:"products"`
}

type CreateLeagueInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Sport   string `json:"sport" validate:"required"`
	Country string `json:"country" validate:"max=80"`
	LogoURL string `json:"logoUrl" validate:"omitempty,url"`
}

type UpdateLeagueInput struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=120"`
	Country *string `json:"country,omitempty" validate:"omitempty,max=80"`
	LogoURL *string `json:"logoUrl,omitempty" validate:"omitempty,url"`
}

type CreateTeamInput struct {
	Name    string `json:"name" validate:"required,max=120"`
	Sport   string `json:"sport" validate:"required"`
	League  string `json:"league" validate:"required,max=120"`
	LogoURL string `json:"logoUrl" validate:"omitempty,url"`
}

type UpdateTeamInput struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=120"`
	League  *string `json:"league,omitempty" validate:"omitempty,max=120"`
	LogoURL *string `json:"logoUrl,omitempty" validate:"omitempty,url"`
}

func staticLeagueDTO(l StaticLeague) LeagueDTO {
	return LeagueDTO{ID: l.ID, Name: l.Name, Sport: l.Sport, Country: l.Country, LogoURL: l.LogoURL, Source: SourceStatic}
}

func customLeagueDTO(l models.CustomLeague) LeagueDTO {
	return LeagueDTO{ID: l.ID.String(), Name: l.Name, Sport: l.Sport, Country: l.Country, LogoURL: l.LogoURL, Source: SourceCustom}
}

func staticTeamDTO(t StaticTeam) TeamDTO {
	dto := TeamDTO{ID: t.ID, Name: t.Name, Sport: t.Sport, LeagueID: t.LeagueID, LogoURL: t.LogoURL, Source: SourceStatic}
	if l, ok := staticLeagueByID(t.LeagueID); ok {
		dto.LeagueName = l.Name
	}
	return dto
}

func customTeamDTO(t models.CustomTeam) TeamDTO {
	dto := TeamDTO{ID: t.ID.String(), Name: t.Name, Sport: t.Sport, LeagueName: t.League, LogoURL: t.LogoURL, Source: SourceCustom}
	switch {
	case t.CustomLeagueID != nil:
		dto.LeagueID = t.CustomLeagueID.String()
	case t.StaticLeagueID != nil:
		dto.LeagueID = *t.StaticLeagueID
	}
	return dto
}
