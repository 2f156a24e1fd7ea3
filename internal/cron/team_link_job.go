package cron

import (
	"context"
	"fmt"

	"github.com/angelmondragon/kitstore-backend/pkg/logger"
)

type teamLinker interface {
	LinkUnlinkedTeams(ctx context.Context, limit int) (int, error)
}

// NewTeamLinkJob backfills league links for teams created without one.
func NewTeamLinkJob(logg *logger.Logger, linker teamLinker, batch int) (Job, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if linker == nil {
		return nil, fmt.Errorf("leagues service required")
	}
	return &teamLinkJob{logg: logg, linker: linker, batch: batch}, nil
}

type teamLinkJob struct {
	logg   *logger.Logger
	linker teamLinker
	batch  int
}

func (j *teamLinkJob) Name() string { return "team_league_link" }

func (j *teamLinkJob) Run(ctx context.Context) error {
	linked, err := j.linker.LinkUnlinkedTeams(ctx, j.batch)
	if err != nil {
		return fmt.Errorf("link teams: %w", err)
	}
	j.logg.Info(j.logg.WithField(ctx, "linked", linked), "team league links refreshed")
	return nil
}
