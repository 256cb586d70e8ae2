package postgres

import (
	"clanManager/business/anomaly"
	"clanManager/business/automation"
	"clanManager/business/battlestats"
	"clanManager/business/deckusage"
	"clanManager/business/member"
	"clanManager/business/prediction"
	"clanManager/business/strikes"
	"clanManager/domain"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type RaceRepository struct {
	DB *gorm.DB
}

var (
	_ deckusage.RaceRepository   = (*RaceRepository)(nil)
	_ strikes.RaceRepository     = (*RaceRepository)(nil)
	_ anomaly.RaceRepository     = (*RaceRepository)(nil)
	_ prediction.RaceRepository  = (*RaceRepository)(nil)
	_ battlestats.RaceRepository = (*RaceRepository)(nil)
	_ member.RaceRepository      = (*RaceRepository)(nil)
	_ automation.RaceRepository  = (*RaceRepository)(nil)
)

func NewRaceRepository(db *gorm.DB) *RaceRepository {
	return &RaceRepository{DB: db}
}

// RecentRace returns the nth most recent race of clanTag, 0 being the current one.
func (r *RaceRepository) RecentRace(ctx context.Context, clanTag string, n int) (domain.RiverRace, bool, error) {
	var race domain.RiverRace

	err := r.DB.WithContext(ctx).
		Joins("Clan").
		Where(`"Clan".tag = ?`, clanTag).
		Order("river_races.start_time DESC").
		Order("river_races.id DESC").
		Offset(n).
		Take(&race).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.RiverRace{}, false, nil
	}
	if err != nil {
		return domain.RiverRace{}, false, err
	}

	return race, true, nil
}

func (r *RaceRepository) CurrentRace(ctx context.Context, clanTag string) (domain.RiverRace, bool, error) {
	return r.RecentRace(ctx, clanTag, 0)
}

func (r *RaceRepository) UpdateRace(ctx context.Context, race *domain.RiverRace) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(race).Error
}

// CreateRace inserts race unless the clan already has one for that season
// and week, in which case race is filled with the stored row.
func (r *RaceRepository) CreateRace(ctx context.Context, race *domain.RiverRace) error {
	err := r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clan_id"}, {Name: "season_id"}, {Name: "week"}},
			DoNothing: true,
		}).
		Create(race).Error
	if err != nil {
		return err
	}
	if race.ID != 0 {
		return nil
	}

	return r.DB.WithContext(ctx).
		Where("clan_id = ? AND season_id = ? AND week = ?", race.ClanID, race.SeasonID, race.Week).
		Take(race).Error
}
