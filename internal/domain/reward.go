package domain

import (
	"context"
	"errors"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/peerquest-lab/backend/pkg/idutil"
	"github.com/peerquest-lab/backend/pkg/xcontext"
)

// RewardLedger credits experience and reputation when a quest completes. A
// credit applies at most once per (user, quest) even when the completion is
// replayed. When the store rejects a credit transiently, the reward is parked
// as a durable FailedReward record instead of being dropped, and the caller
// still observes a successful completion.
type RewardLedger struct {
	userRepo         repository.UserRepository
	failedRewardRepo repository.FailedRewardRepository
}

func NewRewardLedger(
	userRepo repository.UserRepository,
	failedRewardRepo repository.FailedRewardRepository,
) *RewardLedger {
	return &RewardLedger{
		userRepo:         userRepo,
		failedRewardRepo: failedRewardRepo,
	}
}

func (l *RewardLedger) CreditCompletion(ctx context.Context, quest *entity.Quest) error {
	if !quest.PerformerID.Valid {
		return errorx.New(errorx.Internal, "Completed quest has no performer")
	}

	if err := l.creditOrDefer(
		ctx, quest.PerformerID.String, quest.ID, quest.RewardXP, quest.RewardReputation,
	); err != nil {
		return err
	}

	return l.creditOrDefer(ctx, quest.CreatorID, quest.ID, 0, l.creatorReputation(ctx, quest))
}

// creatorReputation scales the requestor credit down from the performer
// reward, never below one point.
func (l *RewardLedger) creatorReputation(ctx context.Context, quest *entity.Quest) uint64 {
	divisor := xcontext.Configs(ctx).Quest.CreatorReputationDivisor
	if divisor == 0 {
		divisor = 1
	}

	reputation := quest.RewardReputation / divisor
	if reputation == 0 {
		reputation = 1
	}

	return reputation
}

func (l *RewardLedger) creditOrDefer(
	ctx context.Context, userID, questID string, xp, reputation uint64,
) error {
	err := l.userRepo.CreditReward(ctx, userID, questID, xp, reputation)
	if err == nil || errors.Is(err, repository.ErrDuplicated) {
		return nil
	}

	xcontext.Logger(ctx).Warnf("Cannot credit reward of quest %s to user %s, deferring: %v",
		questID, userID, err)

	record := &entity.FailedReward{
		SnowFlakeBase: entity.SnowFlakeBase{ID: idutil.NextID()},
		UserID:        userID,
		QuestID:       questID,
		XP:            xp,
		Reputation:    reputation,
		Status:        entity.FailedRewardPending,
	}

	if err := l.failedRewardRepo.Create(ctx, record); err != nil {
		return storeError(ctx, err,
			"Cannot defer reward of quest "+questID+" to user "+userID)
	}

	return nil
}
