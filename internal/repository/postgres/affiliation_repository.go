package postgres

import (
	"clanManager/business/automation"
	"clanManager/business/member"
	"clanManager/domain"
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AffiliationRepository struct {
	DB *gorm.DB
}

var (
	_ member.AffiliationRepository     = (*AffiliationRepository)(nil)
	_ automation.AffiliationRepository = (*AffiliationRepository)(nil)
)

func NewAffiliationRepository(db *gorm.DB) *AffiliationRepository {
	return &AffiliationRepository{DB: db}
}

// ClearRoles marks every affiliation of the user as a former membership.
func (r *AffiliationRepository) ClearRoles(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).
		Model(&domain.ClanAffiliation{}).
		Where("user_id = ?", userID).
		Update("role", nil).Error
}

func (r *AffiliationRepository) FindAffiliation(ctx context.Context, userID, clanID uint) (domain.ClanAffiliation, bool, error) {
	var affiliation domain.ClanAffiliation

	err := r.DB.WithContext(ctx).
		Where("user_id = ? AND clan_id = ?", userID, clanID).
		Take(&affiliation).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ClanAffiliation{}, false, nil
	}
	if err != nil {
		return domain.ClanAffiliation{}, false, err
	}

	return affiliation, true, nil
}

func (r *AffiliationRepository) SaveAffiliation(ctx context.Context, affiliation *domain.ClanAffiliation) error {
	return r.DB.WithContext(ctx).Omit(clause.Associations).Save(affiliation).Error
}

func (r *AffiliationRepository) ListActive(ctx context.Context) ([]domain.ClanAffiliation, error) {
	var affiliations []domain.ClanAffiliation

	err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Clan").
		Where("role IS NOT NULL").
		Find(&affiliations).Error
	if err != nil {
		return nil, err
	}

	return affiliations, nil
}

func (r *AffiliationRepository) ListActiveByClan(ctx context.Context, clanID uint) ([]domain.ClanAffiliation, error) {
	var affiliations []domain.ClanAffiliation

	err := r.DB.WithContext(ctx).
		Preload("User").
		Where("clan_id = ? AND role IS NOT NULL", clanID).
		Find(&affiliations).Error
	if err != nil {
		return nil, err
	}

	return affiliations, nil
}
