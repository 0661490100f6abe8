package domain

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/peerquest-lab/backend/internal/domain/queststate"
	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/errorx"
	"gorm.io/gorm"
)

// attestationManager wraps the append-attestation, readiness check and
// complete calls into one logical operation. Completion is detected locally
// after a successful append and re-validated by the store, so concurrent
// attesters cannot complete a quest twice.
type attestationManager struct {
	questRepo       repository.QuestRepository
	attestationRepo repository.AttestationRepository
	ledger          *RewardLedger
}

func newAttestationManager(
	questRepo repository.QuestRepository,
	attestationRepo repository.AttestationRepository,
	ledger *RewardLedger,
) *attestationManager {
	return &attestationManager{
		questRepo:       questRepo,
		attestationRepo: attestationRepo,
		ledger:          ledger,
	}
}

func (m *attestationManager) Attest(
	ctx context.Context, questID, userID, signature string,
) (*entity.Quest, []entity.Attestation, error) {
	quest, err := m.questRepo.GetByID(ctx, questID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		return nil, nil, storeError(ctx, err, "Cannot get quest")
	}

	attestations, err := m.attestationRepo.GetByQuestID(ctx, questID)
	if err != nil {
		return nil, nil, storeError(ctx, err, "Cannot get attestations")
	}

	if err := queststate.CanAttest(quest, attestations, userID); err != nil {
		return nil, nil, err
	}

	attestation := &entity.Attestation{
		QuestID:   questID,
		UserID:    userID,
		Role:      queststate.RoleOf(quest, userID),
		CreatedAt: time.Now(),
	}
	if signature != "" {
		attestation.Signature = sql.NullString{String: signature, Valid: true}
	}

	if err := m.attestationRepo.Add(ctx, attestation); err != nil {
		return nil, nil, m.convertAddError(ctx, questID, userID, err)
	}

	attestations, err = m.attestationRepo.GetByQuestID(ctx, questID)
	if err != nil {
		return nil, nil, storeError(ctx, err, "Cannot get attestations after append")
	}

	if queststate.IsReadyForCompletion(attestations) {
		if err := m.complete(ctx, quest); err != nil {
			return nil, nil, err
		}
	}

	quest, err = m.questRepo.GetByID(ctx, questID)
	if err != nil {
		return nil, nil, storeError(ctx, err, "Cannot reload quest")
	}

	return quest, attestations, nil
}

func (m *attestationManager) complete(ctx context.Context, quest *entity.Quest) error {
	err := m.questRepo.Complete(ctx, quest.ID, time.Now())
	if errors.Is(err, repository.ErrPreconditionFailed) {
		// The concurrent attester won the completion, or the quest was
		// disputed in between. Either way there is nothing left to do here.
		return nil
	}

	if err != nil {
		return storeError(ctx, err, "Cannot complete quest "+quest.ID)
	}

	return m.ledger.CreditCompletion(ctx, quest)
}

func (m *attestationManager) convertAddError(
	ctx context.Context, questID, userID string, err error,
) error {
	if errors.Is(err, repository.ErrDuplicated) {
		return errorx.New(errorx.Conflict, "Already attested this quest")
	}

	if errors.Is(err, repository.ErrPreconditionFailed) {
		// The quest left the submitted state between our read and the write.
		quest, getErr := m.questRepo.GetByID(ctx, questID)
		if getErr == nil && quest.Status.IsTerminal() {
			return errorx.New(errorx.TerminalState,
				"Quest is %s and cannot be changed", quest.Status)
		}

		return errorx.New(errorx.Conflict, "Quest is not awaiting attestation")
	}

	return storeError(ctx, err, "Cannot add attestation of user "+userID)
}
