package postgres

import (
	"clanManager/business/prediction"
	"clanManager/domain"
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StandingRepository struct {
	DB *gorm.DB
}

var _ prediction.StandingRepository = (*StandingRepository)(nil)

func NewStandingRepository(db *gorm.DB) *StandingRepository {
	return &StandingRepository{DB: db}
}

func (r *StandingRepository) ListStandings(ctx context.Context, trackingClanID, seasonID uint) ([]domain.RiverRaceClan, error) {
	var standings []domain.RiverRaceClan

	err := r.DB.WithContext(ctx).
		Where("tracking_clan_id = ? AND season_id = ?", trackingClanID, seasonID).
		Find(&standings).Error
	if err != nil {
		return nil, err
	}

	return standings, nil
}

// SaveStanding updates a loaded standing or inserts a new one, merging with a
// row written concurrently for the same clan and season.
func (r *StandingRepository) SaveStanding(ctx context.Context, standing *domain.RiverRaceClan) error {
	if standing.ID != 0 {
		return r.DB.WithContext(ctx).Save(standing).Error
	}

	return r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "tracking_clan_id"}, {Name: "season_id"}, {Name: "tag"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name",
				"current_race_medals",
				"total_season_medals",
				"current_race_total_decks",
				"total_season_battle_decks",
				"battle_days",
				"last_updated",
			}),
		}).
		Create(standing).Error
}
