package leagues

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	"github.com/angelmondragon/kitstore-backend/pkg/enums"
)

// Repository persists custom leagues and teams.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) CreateLeague(ctx context.Context, league *models.CustomLeague) error {
	return r.db.WithContext(ctx).Create(league).Error
}

func (r *Repository) SaveLeague(ctx context.Context, league *models.CustomLeague) error {
	return r.db.WithContext(ctx).Save(league).Error
}

func (r *Repository) FindLeague(ctx context.Context, id uuid.UUID) (*models.CustomLeague, error) {
	var league models.CustomLeague
	if err := r.db.WithContext(ctx).First(&league, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &league, nil
}

// ListLeagues returns custom leagues, optionally for one sport, by name.
func (r *Repository) ListLeagues(ctx context.Context, sport enums.Sport) ([]models.CustomLeague, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if sport != "" {
		query = query.Where("sport = ?", sport)
	}
	var rows []models.CustomLeague
	return rows, query.Find(&rows).Error
}

// DeleteLeague removes a league and clears the link on its teams.
func (r *Repository) DeleteLeague(ctx context.Context, id uuid.UUID) (bool, error) {
	if err := r.db.WithContext(ctx).
		Model(&models.CustomTeam{}).
		Where("custom_league_id = ?", id).
		UpdateColumn("custom_league_id", nil).Error; err != nil {
		return false, err
	}
	res := r.db.WithContext(ctx).Delete(&models.CustomLeague{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

func (r *Repository) CreateTeam(ctx context.Context, team *models.CustomTeam) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *Repository) SaveTeam(ctx context.Context, team *models.CustomTeam) error {
	return r.db.WithContext(ctx).Save(team).Error
}

func (r *Repository) FindTeam(ctx context.Context, id uuid.UUID) (*models.CustomTeam, error) {
	var team models.CustomTeam
	if err := r.db.WithContext(ctx).First(&team, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *Repository) ListTeams(ctx context.Context, sport enums.Sport) ([]models.CustomTeam, error) {
	query := r.db.WithContext(ctx).Order("name ASC")
	if sport != "" {
		query = query.Where("sport = ?", sport)
	}
	var rows []models.CustomTeam
	return rows, query.Find(&rows).Error
}

func (r *Repository) DeleteTeam(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.CustomTeam{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}

// ListUnlinkedTeams returns teams with neither league link, oldest first.
func (r *Repository) ListUnlinkedTeams(ctx context.Context, limit int) ([]models.CustomTeam, error) {
	var rows []models.CustomTeam
	err := r.db.WithContext(ctx).
		Where("custom_league_id IS NULL AND static_league_id IS NULL").
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

// SetTeamLinks stores the resolved league ids of a team.
func (r *Repository) SetTeamLinks(ctx context.Context, id uuid.UUID, customLeagueID *uuid.UUID, staticLeagueID *string) error {
	return r.db.WithContext(ctx).
		Model(&models.CustomTeam{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"custom_league_id": customLeagueID,
			"static_league_id": staticLeagueID,
		}).Error
}
