package postgres

import (
	"clanManager/business/automation"
	"clanManager/business/member"
	"clanManager/business/strikes"
	"clanManager/domain"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ClanRepository struct {
	DB *gorm.DB
}

var (
	_ strikes.ClanRepository    = (*ClanRepository)(nil)
	_ member.ClanRepository     = (*ClanRepository)(nil)
	_ automation.ClanRepository = (*ClanRepository)(nil)
)

func NewClanRepository(db *gorm.DB) *ClanRepository {
	return &ClanRepository{DB: db}
}

// UpsertClan inserts the clan or refreshes its name and returns the stored row.
func (r *ClanRepository) UpsertClan(ctx context.Context, tag, name string) (domain.Clan, error) {
	clan := domain.Clan{Tag: tag, Name: name}

	err := r.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "tag"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "updated_at"}),
		}).
		Create(&clan).Error
	if err != nil {
		return domain.Clan{}, err
	}

	return clan, nil
}

func (r *ClanRepository) PrimaryClanByTag(ctx context.Context, clanTag string) (domain.PrimaryClan, bool, error) {
	var primary domain.PrimaryClan

	err := r.DB.WithContext(ctx).
		Joins("Clan").
		Where(`"Clan".tag = ?`, clanTag).
		Take(&primary).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PrimaryClan{}, false, nil
	}
	if err != nil {
		return domain.PrimaryClan{}, false, err
	}

	return primary, true, nil
}

func (r *ClanRepository) ListPrimaryClans(ctx context.Context) ([]domain.PrimaryClan, error) {
	var primaries []domain.PrimaryClan

	if err := r.DB.WithContext(ctx).Preload("Clan").Order("id").Find(&primaries).Error; err != nil {
		return nil, err
	}

	return primaries, nil
}
