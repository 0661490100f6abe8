package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type FailedRewardRepository interface {
	Create(ctx context.Context, record *entity.FailedReward) error
	GetByID(ctx context.Context, id int64) (*entity.FailedReward, error)

	// GetReclaimable returns records a worker may try to own: pending ones
	// and processing ones whose lease has expired, oldest first.
	GetReclaimable(ctx context.Context, now time.Time, limit int) ([]entity.FailedReward, error)

	// AcquireLease grants a soft, expiring claim on a record. It fails with
	// ErrPreconditionFailed if another worker holds an unexpired lease.
	AcquireLease(ctx context.Context, id int64, owner string, now, expiresAt time.Time) error
	MarkCompleted(ctx context.Context, id int64, owner string) error
	ReleaseForRetry(ctx context.Context, id int64, owner string) error
}

type failedRewardRepository struct{}

func NewFailedRewardRepository() *failedRewardRepository {
	return &failedRewardRepository{}
}

func (r *failedRewardRepository) Create(ctx context.Context, record *entity.FailedReward) error {
	return withRetry(ctx, func() error {
		return xcontext.DB(ctx).Create(record).Error
	})
}

func (r *failedRewardRepository) GetByID(ctx context.Context, id int64) (*entity.FailedReward, error) {
	var result entity.FailedReward
	err := withRetry(ctx, func() error {
		return xcontext.DB(ctx).Take(&result, "id=?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *failedRewardRepository) GetReclaimable(
	ctx context.Context, now time.Time, limit int,
) ([]entity.FailedReward, error) {
	var result []entity.FailedReward
	err := withRetry(ctx, func() error {
		result = result[:0]
		return xcontext.DB(ctx).
			Where("status=? OR (status=? AND lease_expires_at<?)",
				entity.FailedRewardPending, entity.FailedRewardProcessing, now).
			Order("id ASC").
			Limit(limit).
			Find(&result).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *failedRewardRepository) AcquireLease(
	ctx context.Context, id int64, owner string, now, expiresAt time.Time,
) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.FailedReward{}).
			Where("id=? AND (status=? OR (status=? AND lease_expires_at<?))",
				id, entity.FailedRewardPending, entity.FailedRewardProcessing, now).
			Updates(map[string]any{
				"status":           entity.FailedRewardProcessing,
				"lease_owner":      sql.NullString{String: owner, Valid: true},
				"lease_expires_at": sql.NullTime{Time: expiresAt, Valid: true},
			})

		return conditionalResult(tx)
	})
}

func (r *failedRewardRepository) MarkCompleted(ctx context.Context, id int64, owner string) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.FailedReward{}).
			Where("id=? AND status=? AND lease_owner=?",
				id, entity.FailedRewardProcessing, owner).
			Updates(map[string]any{
				"status":           entity.FailedRewardCompleted,
				"lease_owner":      sql.NullString{},
				"lease_expires_at": sql.NullTime{},
			})

		return conditionalResult(tx)
	})
}

func (r *failedRewardRepository) ReleaseForRetry(ctx context.Context, id int64, owner string) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.FailedReward{}).
			Where("id=? AND status=? AND lease_owner=?",
				id, entity.FailedRewardProcessing, owner).
			Updates(map[string]any{
				"status":           entity.FailedRewardPending,
				"lease_owner":      sql.NullString{},
				"lease_expires_at": sql.NullTime{},
				"retry_count":      gorm.Expr("retry_count+1"),
			})

		return conditionalResult(tx)
	})
}
