package leagues

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/internal/products"
	"github.com/angelmondragon/kitstore-backend/pkg/db"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

const defaultCacheTTL = 5 * time.Minute

// Service is the league and team catalog.
type Service interface {
	ListLeagues(ctx context.Context, sport enums.Sport) ([]LeagueDTO, error)
	ListTeams(ctx context.Context, sport enums.Sport) ([]TeamDTO, error)
	GetTeam(ctx context.Context, teamID string) (*TeamDetailDTO, error)

	CreateLeague(ctx context.Context, input CreateLeagueInput) (*LeagueDTO, error)
	UpdateLeague(ctx context.Context, id uuid.UUID, input UpdateLeagueInput) (*LeagueDTO, error)
	DeleteLeague(ctx context.Context, id uuid.UUID) error
	CreateTeam(ctx context.Context, input CreateTeamInput) (*TeamDTO, error)
	UpdateTeam(ctx context.Context, id uuid.UUID, input UpdateTeamInput) (*TeamDTO, error)
	DeleteTeam(ctx context.Context, id uuid.UUID) error

	// LinkUnlinkedTeams resolves league links for up to limit teams that have none.
	LinkUnlinkedTeams(ctx context.Context, limit int) (int, error)
}

type productLister interface {
	ListByTeam(ctx context.Context, teamID string) ([]products.ProductDTO, error)
}

// ServiceParams bundles league service dependencies. Cache is optional.
type ServiceParams struct {
	Repo     *Repository
	Products productLister
	Cache    CacheStore
	CacheTTL time.Duration
	Logger   *logger.Logger
}

type service struct {
	repo     *Repository
	products productLister
	cache    *leagueCache
	logg     *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("league repository required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product lister required")
	}
	svc := &service{repo: params.Repo, products: params.Products, logg: params.Logger}
	if params.Cache != nil {
		ttl := params.CacheTTL
		if ttl <= 0 {
			ttl = defaultCacheTTL
		}
		svc.cache = &leagueCache{store: params.Cache, ttl: ttl}
	}
	return svc, nil
}

func (s *service) ListLeagues(ctx context.Context, sport enums.Sport) ([]LeagueDTO, error) {
	cached, ok, err := s.cache.get(ctx, sport)
	if err != nil {
		s.warn(ctx, "league cache read failed", err)
	}
	if ok {
		return cached, nil
	}

	custom, err := s.repo.ListLeagues(ctx, sport)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list custom leagues")
	}

	out := make([]LeagueDTO, 0, len(staticLeagues)+len(custom))
	index := make(map[string]int, len(staticLeagues))
	for _, l := range staticLeagues {
		if sport != "" && l.Sport != sport {
			continue
		}
		index[l.ID] = len(out)
		out = append(out, staticLeagueDTO(l))
	}
	for _, l := range custom {
		if l.StaticLeagueID != nil {
			if i, ok := index[*l.StaticLeagueID]; ok {
				out[i].CustomLeagueIDs = append(out[i].CustomLeagueIDs, l.ID.String())
				continue
			}
		}
		out = append(out, customLeagueDTO(l))
	}

	if err := s.cache.put(ctx, sport, out); err != nil {
		s.warn(ctx, "league cache write failed", err)
	}
	return out, nil
}

func (s *service) ListTeams(ctx context.Context, sport enums.Sport) ([]TeamDTO, error) {
	custom, err := s.repo.ListTeams(ctx, sport)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list custom teams")
	}
	out := make([]TeamDTO, 0, len(staticTeams)+len(custom))
	for _, t := range staticTeams {
		if sport == "" || t.Sport == sport {
			out = append(out, staticTeamDTO(t))
		}
	}
	for _, t := range custom {
		out = append(out, customTeamDTO(t))
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out, nil
}

func (s *service) GetTeam(ctx context.Context, teamID string) (*TeamDetailDTO, error) {
	teamID = strings.TrimSpace(teamID)
	var team TeamDTO
	if st, ok := staticTeamByID(teamID); ok {
		team = staticTeamDTO(st)
	} else {
		id, err := uuid.Parse(teamID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
		}
		ct, err := s.loadTeam(ctx, id)
		if err != nil {
			return nil, err
		}
		team = customTeamDTO(*ct)
	}

	items, err := s.products.ListByTeam(ctx, team.ID)
	if err != nil {
		return nil, err
	}
	return &TeamDetailDTO{TeamDTO: team, Products: items}, nil
}

func (s *service) CreateLeague(ctx context.Context, input CreateLeagueInput) (*LeagueDTO, error) {
	sport, err := parseSport(input.Sport)
	if err != nil {
		return nil, err
	}
	league := &models.CustomLeague{
		Name:    strings.TrimSpace(input.Name),
		Sport:   sport,
		Country: strings.TrimSpace(input.Country),
		LogoURL: strings.TrimSpace(input.LogoURL),
	}
	league.StaticLeagueID = matchStaticLeague(league.Name, sport)
	if err := s.repo.CreateLeague(ctx, league); err != nil {
		return nil, leagueWriteError(err, league, "create league")
	}
	s.invalidate(ctx)
	dto := customLeagueDTO(*league)
	return &dto, nil
}

func (s *service) UpdateLeague(ctx context.Context, id uuid.UUID, input UpdateLeagueInput) (*LeagueDTO, error) {
	league, err := s.repo.FindLeague(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "league not found", "load league")
	}
	if input.Name != nil {
		league.Name = strings.TrimSpace(*input.Name)
		league.StaticLeagueID = matchStaticLeague(league.Name, league.Sport)
	}
	if input.Country != nil {
		league.Country = strings.TrimSpace(*input.Country)
	}
	if input.LogoURL != nil {
		league.LogoURL = strings.TrimSpace(*input.LogoURL)
	}
	if err := s.repo.SaveLeague(ctx, league); err != nil {
		return nil, leagueWriteError(err, league, "update league")
	}
	s.invalidate(ctx)
	dto := customLeagueDTO(*league)
	return &dto, nil
}

func (s *service) DeleteLeague(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeleteLeague(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete league")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "league not found")
	}
	s.invalidate(ctx)
	return nil
}

func (s *service) CreateTeam(ctx context.Context, input CreateTeamInput) (*TeamDTO, error) {
	sport, err := parseSport(input.Sport)
	if err != nil {
		return nil, err
	}
	team := &models.CustomTeam{
		Name:    strings.TrimSpace(input.Name),
		Sport:   sport,
		League:  strings.TrimSpace(input.League),
		LogoURL: strings.TrimSpace(input.LogoURL),
	}
	if err := s.resolveTeamLinks(ctx, team); err != nil {
		return nil, err
	}
	if err := s.repo.CreateTeam(ctx, team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create team")
	}
	dto := customTeamDTO(*team)
	return &dto, nil
}

func (s *service) UpdateTeam(ctx context.Context, id uuid.UUID, input UpdateTeamInput) (*TeamDTO, error) {
	team, err := s.loadTeam(ctx, id)
	if err != nil {
		return nil, err
	}
	if input.Name != nil {
		team.Name = strings.TrimSpace(*input.Name)
	}
	if input.LogoURL != nil {
		team.LogoURL = strings.TrimSpace(*input.LogoURL)
	}
	if input.League != nil {
		team.League = strings.TrimSpace(*input.League)
		if err := s.resolveTeamLinks(ctx, team); err != nil {
			return nil, err
		}
	}
	if err := s.repo.SaveTeam(ctx, team); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update team")
	}
	dto := customTeamDTO(*team)
	return &dto, nil
}

func (s *service) DeleteTeam(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.DeleteTeam(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete team")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "team not found")
	}
	return nil
}

func (s *service) LinkUnlinkedTeams(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = 100
	}
	teams, err := s.repo.ListUnlinkedTeams(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("list unlinked teams: %w", err)
	}
	linked := 0
	for i := range teams {
		team := &teams[i]
		if err := s.resolveTeamLinks(ctx, team); err != nil {
			return linked, err
		}
		if !team.Linked() {
			continue
		}
		if err := s.repo.SetTeamLinks(ctx, team.ID, team.CustomLeagueID, team.StaticLeagueID); err != nil {
			return linked, fmt.Errorf("link team %s: %w", team.ID, err)
		}
		linked++
	}
	return linked, nil
}

// resolveTeamLinks matches the team's free-text league against custom leagues
// of the same sport first, then static leagues.
func (s *service) resolveTeamLinks(ctx context.Context, team *models.CustomTeam) error {
	team.CustomLeagueID = nil
	team.StaticLeagueID = nil
	if team.League == "" {
		return nil
	}

	custom, err := s.repo.ListLeagues(ctx, team.Sport)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list custom leagues")
	}
	byID := make(map[string]models.CustomLeague, len(custom))
	candidates := make([]Candidate, 0, len(custom)+len(staticLeagues))
	for _, l := range custom {
		byID[l.ID.String()] = l
		candidates = append(candidates, Candidate{ID: l.ID.String(), Name: l.Name, Custom: true})
	}
	candidates = append(candidates, staticCandidates(team.Sport)...)

	picked, ok := Resolve(team.League, candidates)
	if !ok {
		return nil
	}
	if !picked.Custom {
		id := picked.ID
		team.StaticLeagueID = &id
		return nil
	}
	league := byID[picked.ID]
	id := league.ID
	team.CustomLeagueID = &id
	team.StaticLeagueID = league.StaticLeagueID
	return nil
}

func (s *service) loadTeam(ctx context.Context, id uuid.UUID) (*models.CustomTeam, error) {
	team, err := s.repo.FindTeam(ctx, id)
	if err != nil {
		return nil, notFoundOr(err, "team not found", "load team")
	}
	return team, nil
}

func (s *service) invalidate(ctx context.Context) {
	if err := s.cache.invalidate(ctx); err != nil {
		s.warn(ctx, "league cache invalidation failed", err)
	}
}

func (s *service) warn(ctx context.Context, msg string, err error) {
	if s.logg == nil {
		return
	}
	s.logg.Warn(s.logg.WithField(ctx, "error", err.Error()), msg)
}

func matchStaticLeague(name string, sport enums.Sport) *string {
	picked, ok := Resolve(name, staticCandidates(sport))
	if !ok {
		return nil
	}
	id := picked.ID
	return &id
}

func parseSport(raw string) (enums.Sport, error) {
	sport, err := enums.ParseSport(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid sport")
	}
	return sport, nil
}

// leagueWriteError maps the (sport, lower(name)) unique index to a conflict.
func leagueWriteError(err error, league *models.CustomLeague, op string) error {
	if db.IsUniqueViolation(err, "") {
		return pkgerrors.Wrap(pkgerrors.CodeConflict, err, fmt.Sprintf("%s league %q already exists", league.Sport, league.Name))
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}

func notFoundOr(err error, notFound, op string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, op)
}
