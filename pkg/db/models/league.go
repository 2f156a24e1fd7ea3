package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/kitstore-backend/pkg/enums"
)

// CustomLeague is an admin-managed league. StaticLeagueID links it to a
// built-in league of the same competition when one was matched at write time.
type CustomLeague struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Name           string      `gorm:"column:name;not null"`
	Sport          enums.Sport `gorm:"column:sport;type:text;not null"`
	Country        string      `gorm:"column:country;not null"`
	LogoURL        string      `gorm:"column:logo_url;not null"`
	StaticLeagueID *string     `gorm:"column:static_league_id"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (l *CustomLeague) BeforeCreate(*gorm.DB) error {
	ensureUUID(&l.ID)
	return nil
}

// CustomTeam is an admin-managed team. League keeps the free-text label as
// entered; CustomLeagueID and StaticLeagueID are the resolved links.
type CustomTeam struct {
	ID             uuid.UUID   `gorm:"column:id;type:uuid;primaryKey"`
	Name           string      `gorm:"column:name;not null"`
	Sport          enums.Sport `gorm:"column:sport;type:text;not null;index"`
	League         string      `gorm:"column:league;not null"`
	CustomLeagueID *uuid.UUID  `gorm:"column:custom_league_id;type:uuid;index"`
	StaticLeagueID *string     `gorm:"column:static_league_id"`
	LogoURL        string      `gorm:"column:logo_url;not null"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

func (t *CustomTeam) BeforeCreate(*gorm.DB) error {
	ensureUUID(&t.ID)
	return nil
}

// Linked reports whether the team points at any league.
func (t CustomTeam) Linked() bool {
	return t.CustomLeagueID != nil || t.StaticLeagueID != nil
}
