package cron

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/xcontext"
)

// FailedRewardRecoveryCronJob drains deferred reward credits oldest-first.
// Each record is claimed with a soft, expiring lease before processing, so
// two workers never retry the same credit at once and a crashed worker's
// claim becomes reclaimable after the lease expires.
type FailedRewardRecoveryCronJob struct {
	failedRewardRepo repository.FailedRewardRepository
	userRepo         repository.UserRepository

	workerID string
	interval time.Duration
	leaseTTL time.Duration
	batch    int
}

func NewFailedRewardRecoveryCronJob(
	failedRewardRepo repository.FailedRewardRepository,
	userRepo repository.UserRepository,
	interval, leaseTTL time.Duration,
	batch int,
) *FailedRewardRecoveryCronJob {
	return &FailedRewardRecoveryCronJob{
		failedRewardRepo: failedRewardRepo,
		userRepo:         userRepo,
		workerID:         uuid.NewString(),
		interval:         interval,
		leaseTTL:         leaseTTL,
		batch:            batch,
	}
}

func (job *FailedRewardRecoveryCronJob) Do(ctx context.Context) {
	now := time.Now()
	records, err := job.failedRewardRepo.GetReclaimable(ctx, now, job.batch)
	if err != nil {
		xcontext.Logger(ctx).Errorf("Cannot get reclaimable failed rewards: %v", err)
		return
	}

	for i := range records {
		job.process(ctx, &records[i])
	}
}

func (job *FailedRewardRecoveryCronJob) process(ctx context.Context, record *entity.FailedReward) {
	now := time.Now()
	err := job.failedRewardRepo.AcquireLease(
		ctx, record.ID, job.workerID, now, now.Add(job.leaseTTL))
	if err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			// Another worker owns this record.
			return
		}

		xcontext.Logger(ctx).Errorf("Cannot acquire lease of record %d: %v", record.ID, err)
		return
	}

	err = job.userRepo.CreditReward(ctx, record.UserID, record.QuestID, record.XP, record.Reputation)
	if err != nil && !errors.Is(err, repository.ErrDuplicated) {
		xcontext.Logger(ctx).Warnf("Cannot credit failed reward %d: %v", record.ID, err)
		err = job.failedRewardRepo.ReleaseForRetry(ctx, record.ID, job.workerID)
		if err != nil {
			xcontext.Logger(ctx).Errorf("Cannot release record %d for retry: %v", record.ID, err)
		}

		return
	}

	if err := job.failedRewardRepo.MarkCompleted(ctx, record.ID, job.workerID); err != nil {
		// The lease may have expired mid-flight. The credit itself is
		// idempotent, so another worker finishing this record is harmless.
		xcontext.Logger(ctx).Warnf("Cannot mark record %d completed: %v", record.ID, err)
	}
}

func (job *FailedRewardRecoveryCronJob) RunNow() bool {
	return true
}

func (job *FailedRewardRecoveryCronJob) Next() time.Time {
	return time.Now().Add(job.interval)
}
