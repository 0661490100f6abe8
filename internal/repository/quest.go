package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type QuestFilter struct {
	Status      []entity.QuestStatusType
	CreatorID   string
	PerformerID string
}

type QuestRepository interface {
	Create(ctx context.Context, quest *entity.Quest) error
	GetByID(ctx context.Context, id string) (*entity.Quest, error)
	GetList(ctx context.Context, filter *QuestFilter, offset, limit int) ([]entity.Quest, error)

	// Every method below is a single conditional write. A return of
	// ErrPreconditionFailed means the quest was not in the expected state and
	// nothing was changed.
	Claim(ctx context.Context, questID, performerID string, now time.Time) error
	Abandon(ctx context.Context, questID, performerID string) error
	Submit(ctx context.Context, questID, performerID, text string, now time.Time) error
	Complete(ctx context.Context, questID string, now time.Time) error
	Dispute(ctx context.Context, questID, userID, reason string, now time.Time) error
	SoftDelete(ctx context.Context, questID, creatorID string) error
}

type questRepository struct{}

func NewQuestRepository() *questRepository {
	return &questRepository{}
}

func (r *questRepository) Create(ctx context.Context, quest *entity.Quest) error {
	return withRetry(ctx, func() error {
		return xcontext.DB(ctx).Create(quest).Error
	})
}

func (r *questRepository) GetByID(ctx context.Context, id string) (*entity.Quest, error) {
	var result entity.Quest
	err := withRetry(ctx, func() error {
		return xcontext.DB(ctx).Take(&result, "id=?", id).Error
	})
	if err != nil {
		return nil, err
	}

	return &result, nil
}

func (r *questRepository) GetList(
	ctx context.Context, filter *QuestFilter, offset, limit int,
) ([]entity.Quest, error) {
	var result []entity.Quest
	err := withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).Model(&entity.Quest{}).
			Offset(offset).
			Limit(limit).
			Order("created_at DESC")

		if len(filter.Status) > 0 {
			tx.Where("status IN (?)", filter.Status)
		}

		if filter.CreatorID != "" {
			tx.Where("creator_id=?", filter.CreatorID)
		}

		if filter.PerformerID != "" {
			tx.Where("performer_id=?", filter.PerformerID)
		}

		result = result[:0]
		return tx.Find(&result).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *questRepository) Claim(
	ctx context.Context, questID, performerID string, now time.Time,
) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.Quest{}).
			Where("id=? AND status=? AND performer_id IS NULL AND creator_id<>?",
				questID, entity.QuestOpen, performerID).
			Updates(map[string]any{
				"status":       entity.QuestClaimed,
				"performer_id": performerID,
				"claimed_at":   sql.NullTime{Time: now, Valid: true},
			})

		return conditionalResult(tx)
	})
}

func (r *questRepository) Abandon(ctx context.Context, questID, performerID string) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.Quest{}).
			Where("id=? AND status=? AND performer_id=?",
				questID, entity.QuestClaimed, performerID).
			Updates(map[string]any{
				"status":       entity.QuestOpen,
				"performer_id": sql.NullString{},
				"claimed_at":   sql.NullTime{},
			})

		return conditionalResult(tx)
	})
}

func (r *questRepository) Submit(
	ctx context.Context, questID, performerID, text string, now time.Time,
) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.Quest{}).
			Where("id=? AND status=? AND performer_id=?",
				questID, entity.QuestClaimed, performerID).
			Updates(map[string]any{
				"status":          entity.QuestSubmitted,
				"submission_text": sql.NullString{String: text, Valid: true},
				"submitted_at":    sql.NullTime{Time: now, Valid: true},
			})

		return conditionalResult(tx)
	})
}

func (r *questRepository) Complete(ctx context.Context, questID string, now time.Time) error {
	// Both parties attest at most once and only requestor or performer may
	// attest, so a count of two means both roles are present.
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.Quest{}).
			Where("id=? AND status=? AND attestation_count>=?",
				questID, entity.QuestSubmitted, 2).
			Updates(map[string]any{
				"status":       entity.QuestComplete,
				"completed_at": sql.NullTime{Time: now, Valid: true},
			})

		return conditionalResult(tx)
	})
}

func (r *questRepository) Dispute(
	ctx context.Context, questID, userID, reason string, now time.Time,
) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Model(&entity.Quest{}).
			Where("id=? AND status=? AND (creator_id=? OR performer_id=?)",
				questID, entity.QuestSubmitted, userID, userID).
			Updates(map[string]any{
				"status":         entity.QuestDisputed,
				"dispute_reason": sql.NullString{String: reason, Valid: true},
			})

		return conditionalResult(tx)
	})
}

func (r *questRepository) SoftDelete(ctx context.Context, questID, creatorID string) error {
	return withRetry(ctx, func() error {
		tx := xcontext.DB(ctx).
			Where("id=? AND status=? AND creator_id=?", questID, entity.QuestOpen, creatorID).
			Delete(&entity.Quest{})

		return conditionalResult(tx)
	})
}

func conditionalResult(tx *gorm.DB) error {
	if tx.Error != nil {
		return tx.Error
	}

	if tx.RowsAffected == 0 {
		return ErrPreconditionFailed
	}

	return nil
}
