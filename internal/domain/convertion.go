package domain

import (
	"time"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/model"
)

func convertAttestation(a *entity.Attestation) model.Attestation {
	return model.Attestation{
		UserID:    a.UserID,
		Role:      string(a.Role),
		Signature: a.Signature.String,
		CreatedAt: a.CreatedAt.Format(time.RFC3339Nano),
	}
}

func convertQuest(quest *entity.Quest, attestations []entity.Attestation) model.Quest {
	result := model.Quest{
		ID:               quest.ID,
		CreatorID:        quest.CreatorID,
		PerformerID:      quest.PerformerID.String,
		Status:           string(quest.Status),
		Title:            quest.Title,
		Description:      string(quest.Description),
		SubmissionText:   quest.SubmissionText.String,
		RewardXP:         quest.RewardXP,
		RewardReputation: quest.RewardReputation,
		Attestations:     []model.Attestation{},
		DisputeReason:    quest.DisputeReason.String,
		CreatedAt:        quest.CreatedAt.Format(time.RFC3339Nano),
	}

	for i := range attestations {
		result.Attestations = append(result.Attestations, convertAttestation(&attestations[i]))
	}

	if quest.ClaimedAt.Valid {
		result.ClaimedAt = quest.ClaimedAt.Time.Format(time.RFC3339Nano)
	}

	if quest.SubmittedAt.Valid {
		result.SubmittedAt = quest.SubmittedAt.Time.Format(time.RFC3339Nano)
	}

	if quest.CompletedAt.Valid {
		result.CompletedAt = quest.CompletedAt.Time.Format(time.RFC3339Nano)
	}

	return result
}
