package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/idutil"
	"github.com/peerquest-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type failingUserRepo struct {
	repository.UserRepository
}

func (r *failingUserRepo) CreditReward(
	ctx context.Context, userID, rewardID string, xp, reputation uint64,
) error {
	return errors.New("store unavailable")
}

func insertPendingReward(t *testing.T, ctx context.Context, questID string) *entity.FailedReward {
	t.Helper()

	record := &entity.FailedReward{
		SnowFlakeBase: entity.SnowFlakeBase{ID: idutil.NextID()},
		UserID:        testutil.User2.ID,
		QuestID:       questID,
		XP:            100,
		Reputation:    10,
		Status:        entity.FailedRewardPending,
	}
	require.NoError(t, repository.NewFailedRewardRepository().Create(ctx, record))
	return record
}

func Test_FailedRewardRecoveryCronJob_creditsAndCompletes(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	failedRewardRepo := repository.NewFailedRewardRepository()
	userRepo := repository.NewUserRepository()
	record := insertPendingReward(t, ctx, "quest")

	job := NewFailedRewardRecoveryCronJob(failedRewardRepo, userRepo, time.Minute, time.Minute, 50)
	job.Do(ctx)

	got, err := failedRewardRepo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, entity.FailedRewardCompleted, got.Status)

	performer, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, performer.Experience)
	require.EqualValues(t, 10, performer.Reputation)

	// A second pass finds nothing to do and credits nothing twice.
	job.Do(ctx)
	performer, err = userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, performer.Experience)
}

func Test_FailedRewardRecoveryCronJob_alreadyCreditedRecord(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	failedRewardRepo := repository.NewFailedRewardRepository()
	userRepo := repository.NewUserRepository()
	record := insertPendingReward(t, ctx, "quest")

	// The original credit actually landed before the record was written.
	require.NoError(t, userRepo.CreditReward(ctx, testutil.User2.ID, "quest", 100, 10))

	job := NewFailedRewardRecoveryCronJob(failedRewardRepo, userRepo, time.Minute, time.Minute, 50)
	job.Do(ctx)

	got, err := failedRewardRepo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, entity.FailedRewardCompleted, got.Status)

	performer, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, performer.Experience)
}

func Test_FailedRewardRecoveryCronJob_retriesOnFailure(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	failedRewardRepo := repository.NewFailedRewardRepository()
	record := insertPendingReward(t, ctx, "quest")

	job := NewFailedRewardRecoveryCronJob(
		failedRewardRepo,
		&failingUserRepo{UserRepository: repository.NewUserRepository()},
		time.Minute, time.Minute, 50,
	)
	job.Do(ctx)

	got, err := failedRewardRepo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, entity.FailedRewardPending, got.Status)
	require.Equal(t, 1, got.RetryCount)
	require.False(t, got.LeaseOwner.Valid)
}

func Test_FailedRewardRecoveryCronJob_concurrentWorkers(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	failedRewardRepo := repository.NewFailedRewardRepository()
	userRepo := repository.NewUserRepository()
	record := insertPendingReward(t, ctx, "quest")

	jobA := NewFailedRewardRecoveryCronJob(failedRewardRepo, userRepo, time.Minute, time.Minute, 50)
	jobB := NewFailedRewardRecoveryCronJob(failedRewardRepo, userRepo, time.Minute, time.Minute, 50)

	var eg errgroup.Group
	eg.Go(func() error { jobA.Do(ctx); return nil })
	eg.Go(func() error { jobB.Do(ctx); return nil })
	require.NoError(t, eg.Wait())

	// The lease kept the workers from double processing: one completion,
	// one credit.
	got, err := failedRewardRepo.GetByID(ctx, record.ID)
	require.NoError(t, err)
	require.Equal(t, entity.FailedRewardCompleted, got.Status)

	performer, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, performer.Experience)
	require.EqualValues(t, 10, performer.Reputation)
}
