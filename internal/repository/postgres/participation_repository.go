package postgres

import (
	"clanManager/business/anomaly"
	"clanManager/business/automation"
	"clanManager/business/battlestats"
	"clanManager/business/deckusage"
	"clanManager/business/member"
	"clanManager/business/strikes"
	"clanManager/domain"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ParticipationRepository struct {
	DB *gorm.DB
}

var (
	_ deckusage.ParticipationRepository   = (*ParticipationRepository)(nil)
	_ strikes.ParticipationRepository     = (*ParticipationRepository)(nil)
	_ anomaly.ParticipationRepository     = (*ParticipationRepository)(nil)
	_ battlestats.ParticipationRepository = (*ParticipationRepository)(nil)
	_ member.ParticipationRepository      = (*ParticipationRepository)(nil)
	_ automation.ParticipationRepository  = (*ParticipationRepository)(nil)
)

func NewParticipationRepository(db *gorm.DB) *ParticipationRepository {
	return &ParticipationRepository{DB: db}
}

// ListByRace returns every record of the race with its affiliation and user loaded.
func (r *ParticipationRepository) ListByRace(ctx context.Context, raceID uint) ([]domain.ParticipationRecord, error) {
	var records []domain.ParticipationRecord

	err := r.DB.WithContext(ctx).
		Preload("Affiliation.User").
		Where("river_race_id = ?", raceID).
		Order("id").
		Find(&records).Error
	if err != nil {
		return nil, err
	}

	return records, nil
}

func (r *ParticipationRepository) FindByRaceAndTag(ctx context.Context, raceID uint, tag string) (domain.ParticipationRecord, bool, error) {
	var record domain.ParticipationRecord

	err := r.DB.WithContext(ctx).
		Preload("Affiliation.User").
		Joins("JOIN clan_affiliations ON clan_affiliations.id = river_race_user_data.clan_affiliation_id").
		Joins("JOIN users ON users.id = clan_affiliations.user_id").
		Where("river_race_user_data.river_race_id = ? AND users.tag = ?", raceID, tag).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ParticipationRecord{}, false, nil
	}
	if err != nil {
		return domain.ParticipationRecord{}, false, err
	}

	return record, true, nil
}

// Create starts tracking a member in a race. An existing record is left untouched.
func (r *ParticipationRepository) Create(ctx context.Context, record *domain.ParticipationRecord) error {
	return r.DB.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "clan_affiliation_id"}, {Name: "river_race_id"}},
			DoNothing: true,
		}).
		Create(record).Error
}

func (r *ParticipationRepository) Save(ctx context.Context, record *domain.ParticipationRecord) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(record).Error
}
