package repository

import (
	"context"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type UserRepository interface {
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)

	// CreditReward applies the reward at most once per (user, reward) pair.
	// ErrDuplicated means the reward was already applied; callers treat it as
	// success.
	CreditReward(ctx context.Context, userID, rewardID string, xp, reputation uint64) error

	SpendCreationPoints(ctx context.Context, userID string, points uint64) error
	RefundCreationPoints(ctx context.Context, userID string, points uint64) error
}

type userRepository struct{}

func NewUserRepository() *userRepository {
	return &userRepository{}
}

func (r *userRepository) Create(ctx context.Context, user *entity.User) error {
	return withRetry(ctx, func() error {
		return xcontext.DB(ctx).Create(user).Error
	})
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*entity.User, error) {
	var result entity.User
	err := withRetry(ctx, func() error {
		return xcontext.DB(ctx).Take(&result, "id=?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *userRepository) CreditReward(
	ctx context.Context, userID, rewardID string, xp, reputation uint64,
) error {
	// A replay of the whole transaction hits the processed_rewards primary
	// key, so retrying after a transient failure cannot double-credit.
	return withRetry(ctx, func() error {
		return xcontext.DB(ctx).Transaction(func(tx *gorm.DB) error {
			err := tx.Create(&entity.ProcessedReward{UserID: userID, RewardID: rewardID}).Error
			if err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicated
				}

				return err
			}

			credit := tx.Model(&entity.User{}).
				Where("id=?", userID).
				Updates(map[string]any{
					"experience": gorm.Expr("experience+?", xp),
					"reputation": gorm.Expr("reputation+?", reputation),
				})
			if credit.Error != nil {
				return credit.Error
			}

			if credit.RowsAffected == 0 {
				return gorm.ErrRecordNotFound
			}

			return nil
		})
	})
}

func (r *userRepository) SpendCreationPoints(
	ctx context.Context, userID string, points uint64,
) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.User{}).
			Where("id=? AND quest_creation_points>=?", userID, points).
			Update("quest_creation_points", gorm.Expr("quest_creation_points-?", points))

		return conditionalResult(tx)
	})
}

func (r *userRepository) RefundCreationPoints(
	ctx context.Context, userID string, points uint64,
) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.User{}).
			Where("id=?", userID).
			Update("quest_creation_points", gorm.Expr("quest_creation_points+?", points))

		return conditionalResult(tx)
	})
}
