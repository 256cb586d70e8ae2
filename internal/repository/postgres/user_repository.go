package postgres

import (
	"clanManager/business/member"
	"clanManager/business/strikes"
	"clanManager/domain"
	"context"
	"errors"

	"gorm.io/gorm"
)

type UserRepository struct {
	DB *gorm.DB
}

var (
	_ strikes.UserRepository = (*UserRepository)(nil)
	_ member.UserRepository  = (*UserRepository)(nil)
)

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{
		DB: db,
	}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.DB.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}

	return nil
}

func (r *UserRepository) FindByTag(ctx context.Context, tag string) (domain.User, bool, error) {
	var user domain.User

	err := r.DB.WithContext(ctx).Where("tag = ?", tag).Take(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}

	return user, true, nil
}

func (r *UserRepository) Update(ctx context.Context, user *domain.User) error {
	res := r.DB.WithContext(ctx).Model(&domain.User{}).Where("id = ?", user.ID).
		Select("discord_id", "discord_name", "name", "strikes", "needs_update", "updated_at").
		Updates(user)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}

	return nil
}
