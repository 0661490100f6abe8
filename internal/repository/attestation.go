package repository

import (
	"context"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"gorm.io/gorm"
)

type AttestationRepository interface {
	// Add appends an attestation if and only if the quest is still submitted
	// and this user has not attested before. ErrDuplicated reports a repeat
	// attester, ErrPreconditionFailed a quest that left the submitted state.
	Add(ctx context.Context, attestation *entity.Attestation) error
	GetByQuestID(ctx context.Context, questID string) ([]entity.Attestation, error)
}

type attestationRepository struct{}

func NewAttestationRepository() *attestationRepository {
	return &attestationRepository{}
}

func (r *attestationRepository) Add(ctx context.Context, attestation *entity.Attestation) error {
	// The insert and the guarded counter bump commit together. If the status
	// guard matches no row the transaction rolls back and the inserted row
	// never becomes visible.
	return withRetry(ctx, func() error {
		return xcontext.DB(ctx).Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(attestation).Error; err != nil {
				if isUniqueViolation(err) {
					return ErrDuplicated
				}

				return err
			}

			guard := tx.Model(&entity.Quest{}).
				Where("id=? AND status=?", attestation.QuestID, entity.QuestSubmitted).
				Update("attestation_count", gorm.Expr("attestation_count+1"))
			if guard.Error != nil {
				return guard.Error
			}

			if guard.RowsAffected == 0 {
				return ErrPreconditionFailed
			}

			return nil
		})
	})
}

func (r *attestationRepository) GetByQuestID(
	ctx context.Context, questID string,
) ([]entity.Attestation, error) {
	var result []entity.Attestation
	err := withRetry(ctx, func() error {
		result = result[:0]
		return xcontext.DB(ctx).
			Where("quest_id=?", questID).
			Order("created_at ASC").
			Find(&result).Error
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}
