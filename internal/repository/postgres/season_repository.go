package postgres

import (
	"clanManager/business/automation"
	"clanManager/domain"
	"context"
	"errors"

	"gorm.io/gorm"
)

type SeasonRepository struct {
	DB *gorm.DB
}

var _ automation.SeasonRepository = (*SeasonRepository)(nil)

func NewSeasonRepository(db *gorm.DB) *SeasonRepository {
	return &SeasonRepository{DB: db}
}

func (r *SeasonRepository) LatestSeason(ctx context.Context) (domain.Season, bool, error) {
	var season domain.Season

	err := r.DB.WithContext(ctx).Order("start_time DESC").Take(&season).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Season{}, false, nil
	}
	if err != nil {
		return domain.Season{}, false, err
	}

	return season, true, nil
}

func (r *SeasonRepository) CreateSeason(ctx context.Context, season *domain.Season) error {
	return r.DB.WithContext(ctx).Create(season).Error
}
