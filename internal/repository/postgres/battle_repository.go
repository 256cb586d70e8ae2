package postgres

import (
	"clanManager/business/anomaly"
	"clanManager/business/battlestats"
	"clanManager/business/deckstats"
	"clanManager/domain"
	"context"
	"time"

	"gorm.io/gorm"
)

const battleBatchSize = 100

type BattleRepository struct {
	DB *gorm.DB
}

var (
	_ anomaly.BattleRepository     = (*BattleRepository)(nil)
	_ battlestats.BattleRepository = (*BattleRepository)(nil)
	_ deckstats.BattleRepository   = (*BattleRepository)(nil)
)

func NewBattleRepository(db *gorm.DB) *BattleRepository {
	return &BattleRepository{DB: db}
}

func (r *BattleRepository) CreateBattles(ctx context.Context, battles []domain.Battle) error {
	if len(battles) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).CreateInBatches(battles, battleBatchSize).Error
}

func (r *BattleRepository) ListByParticipation(ctx context.Context, participationID uint) ([]domain.Battle, error) {
	var battles []domain.Battle

	err := r.DB.WithContext(ctx).
		Where("participation_id = ?", participationID).
		Order("time").
		Find(&battles).Error
	if err != nil {
		return nil, err
	}

	return battles, nil
}

func (r *BattleRepository) PvPBattlesSince(ctx context.Context, clanTag string, since time.Time) ([]domain.DeckBattle, error) {
	var rows []domain.DeckBattle

	q := r.DB.WithContext(ctx).
		Table("battles").
		Select("battles.deck_key AS deck_key, battles.won AS won, users.name AS user_name").
		Joins("JOIN users ON users.id = battles.user_id").
		Where("battles.time >= ? AND battles.category IN ?", since.UTC(),
			[]domain.BattleCategory{domain.BattleRegular, domain.BattleDuel})
	if clanTag != "" {
		q = q.Joins("JOIN clans ON clans.id = battles.clan_id").Where("clans.tag = ?", clanTag)
	}

	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
