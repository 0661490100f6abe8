package domain

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/model"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/peerquest-lab/backend/pkg/testutil"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func newTestQuestDomain() QuestDomain {
	return NewQuestDomain(
		repository.NewQuestRepository(),
		repository.NewAttestationRepository(),
		repository.NewUserRepository(),
		repository.NewFailedRewardRepository(),
		testutil.NewMockRedisClient(),
	)
}

func createOpenQuest(t *testing.T, ctx context.Context, d QuestDomain) model.Quest {
	t.Helper()

	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	resp, err := d.Create(creatorCtx, &model.CreateQuestRequest{
		Title:            "Fix the community fence",
		Description:      "The north gate fell over last storm",
		RewardXP:         100,
		RewardReputation: 10,
	})
	require.NoError(t, err)
	require.Equal(t, "open", resp.Quest.Status)

	return resp.Quest
}

func requireErrorCode(t *testing.T, err error, code errorx.Code) {
	t.Helper()
	var xerr errorx.Error
	require.True(t, errors.As(err, &xerr), "expected errorx.Error, got %v", err)
	require.Equal(t, code, xerr.Code)
}

func Test_questDomain_FullLifecycle(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	// Performer claims.
	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	claimResp, err := d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
	require.Equal(t, "claimed", claimResp.Quest.Status)
	require.Equal(t, testutil.User2.ID, claimResp.Quest.PerformerID)

	// Performer submits.
	submitResp, err := d.Submit(performerCtx, &model.SubmitQuestRequest{
		QuestID:        quest.ID,
		SubmissionText: "done",
	})
	require.NoError(t, err)
	require.Equal(t, "submitted", submitResp.Quest.Status)
	require.Equal(t, "done", submitResp.Quest.SubmissionText)

	// Requestor attests first; the quest stays submitted.
	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	attestResp, err := d.Attest(creatorCtx, &model.AttestQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
	require.Equal(t, "submitted", attestResp.Quest.Status)
	require.Len(t, attestResp.Quest.Attestations, 1)

	// Performer attests second; both roles are present, the quest completes.
	attestResp, err = d.Attest(performerCtx, &model.AttestQuestRequest{
		QuestID:   quest.ID,
		Signature: "sig-performer",
	})
	require.NoError(t, err)
	require.Equal(t, "complete", attestResp.Quest.Status)
	require.NotEmpty(t, attestResp.Quest.CompletedAt)

	userRepo := repository.NewUserRepository()
	performer, err := userRepo.GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, performer.Experience)
	require.EqualValues(t, 10, performer.Reputation)

	creator, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.EqualValues(t, 5, creator.Reputation)
}

func Test_questDomain_Create_validation(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()

	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.Create(creatorCtx, &model.CreateQuestRequest{Title: ""})
	requireErrorCode(t, err, errorx.BadRequest)

	ghostCtx := testutil.NewMockContextWithUserID(ctx, "ghost")
	_, err = d.Create(ghostCtx, &model.CreateQuestRequest{Title: "t"})
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_questDomain_Create_idempotent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()

	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	req := &model.CreateQuestRequest{
		IdempotencyKey: "retry-123",
		Title:          "Fix the community fence",
		RewardXP:       100,
	}

	first, err := d.Create(creatorCtx, req)
	require.NoError(t, err)

	// The retried request returns the cached quest without re-executing.
	second, err := d.Create(creatorCtx, req)
	require.NoError(t, err)
	require.Equal(t, first.Quest.ID, second.Quest.ID)

	quests, err := repository.NewQuestRepository().GetList(ctx, &repository.QuestFilter{}, 0, 10)
	require.NoError(t, err)
	require.Len(t, quests, 1)

	// Creation points were spent exactly once.
	creator, err := repository.NewUserRepository().GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.EqualValues(t, testutil.User1.QuestCreationPoints-1, creator.QuestCreationPoints)
}

func Test_questDomain_Claim_rules(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	// The requestor cannot claim its own quest.
	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err := d.Claim(creatorCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.PermissionDenied)

	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err = d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)

	// A second performer finds the quest already claimed.
	otherCtx := testutil.NewMockContextWithUserID(ctx, testutil.User3.ID)
	_, err = d.Claim(otherCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.Conflict)

	_, err = d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: "missing"})
	requireErrorCode(t, err, errorx.NotFound)
}

func Test_questDomain_Claim_concurrent(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	var success, conflict int64
	var eg errgroup.Group
	for _, userID := range []string{testutil.User2.ID, testutil.User3.ID} {
		userCtx := testutil.NewMockContextWithUserID(ctx, userID)
		eg.Go(func() error {
			_, err := d.Claim(userCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
			if err == nil {
				atomic.AddInt64(&success, 1)
				return nil
			}

			var xerr errorx.Error
			if errors.As(err, &xerr) && xerr.Code == errorx.Conflict {
				atomic.AddInt64(&conflict, 1)
				return nil
			}

			return err
		})
	}
	require.NoError(t, eg.Wait())

	require.EqualValues(t, 1, success)
	require.EqualValues(t, 1, conflict)
}

func Test_questDomain_Dispute_terminal(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err := d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
	_, err = d.Submit(performerCtx, &model.SubmitQuestRequest{QuestID: quest.ID, SubmissionText: "done"})
	require.NoError(t, err)

	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	disputeResp, err := d.Dispute(creatorCtx, &model.DisputeQuestRequest{
		QuestID: quest.ID,
		Reason:  "the fence is still broken",
	})
	require.NoError(t, err)
	require.Equal(t, "disputed", disputeResp.Quest.Status)

	// The disputed state is terminal: no attestation can land anymore.
	_, err = d.Attest(performerCtx, &model.AttestQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.TerminalState)

	// And no reward was distributed.
	performer, err := repository.NewUserRepository().GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, performer.Experience)
}

func Test_questDomain_Attest_rules(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err := d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)

	// Attesting before submission is a conflict.
	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err = d.Attest(creatorCtx, &model.AttestQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.Conflict)

	_, err = d.Submit(performerCtx, &model.SubmitQuestRequest{QuestID: quest.ID, SubmissionText: "done"})
	require.NoError(t, err)

	// A bystander has no say.
	otherCtx := testutil.NewMockContextWithUserID(ctx, testutil.User3.ID)
	_, err = d.Attest(otherCtx, &model.AttestQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.PermissionDenied)

	_, err = d.Attest(creatorCtx, &model.AttestQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)

	// Attesting twice yields a conflict and exactly one stored attestation.
	_, err = d.Attest(creatorCtx, &model.AttestQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.Conflict)

	attestations, err := repository.NewAttestationRepository().GetByQuestID(ctx, quest.ID)
	require.NoError(t, err)
	require.Len(t, attestations, 1)
}

func Test_questDomain_Attest_concurrentCompletion(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err := d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
	_, err = d.Submit(performerCtx, &model.SubmitQuestRequest{QuestID: quest.ID, SubmissionText: "done"})
	require.NoError(t, err)

	// Both parties attest at the same time. Both appends succeed and exactly
	// one completion wins; the loser treats it as a no-op.
	var eg errgroup.Group
	for _, userID := range []string{testutil.User1.ID, testutil.User2.ID} {
		userCtx := testutil.NewMockContextWithUserID(ctx, userID)
		eg.Go(func() error {
			_, err := d.Attest(userCtx, &model.AttestQuestRequest{QuestID: quest.ID})
			return err
		})
	}
	require.NoError(t, eg.Wait())

	getResp, err := d.Get(ctx, &model.GetQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
	require.Equal(t, "complete", getResp.Quest.Status)
	require.Len(t, getResp.Quest.Attestations, 2)

	// The reward applied exactly once despite the race.
	performer, err := repository.NewUserRepository().GetByID(ctx, testutil.User2.ID)
	require.NoError(t, err)
	require.EqualValues(t, 100, performer.Experience)
	require.EqualValues(t, 10, performer.Reputation)
}

func Test_questDomain_Abandon(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err := d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)

	abandonResp, err := d.Abandon(performerCtx, &model.AbandonQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
	require.Equal(t, "open", abandonResp.Quest.Status)
	require.Empty(t, abandonResp.Quest.PerformerID)

	// Someone else can pick it up again.
	otherCtx := testutil.NewMockContextWithUserID(ctx, testutil.User3.ID)
	_, err = d.Claim(otherCtx, &model.ClaimQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)
}

func Test_questDomain_Delete_refundsCreationPoints(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	userRepo := repository.NewUserRepository()
	creator, err := userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.EqualValues(t, testutil.User1.QuestCreationPoints-1, creator.QuestCreationPoints)

	// Only the requestor may delete.
	otherCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err = d.Delete(otherCtx, &model.DeleteQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.PermissionDenied)

	creatorCtx := testutil.NewMockContextWithUserID(ctx, testutil.User1.ID)
	_, err = d.Delete(creatorCtx, &model.DeleteQuestRequest{QuestID: quest.ID})
	require.NoError(t, err)

	_, err = d.Get(ctx, &model.GetQuestRequest{QuestID: quest.ID})
	requireErrorCode(t, err, errorx.NotFound)

	creator, err = userRepo.GetByID(ctx, testutil.User1.ID)
	require.NoError(t, err)
	require.EqualValues(t, testutil.User1.QuestCreationPoints, creator.QuestCreationPoints)
}

func Test_questDomain_GetList(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := newTestQuestDomain()
	quest := createOpenQuest(t, ctx, d)

	resp, err := d.GetList(ctx, &model.GetListQuestRequest{Status: "open"})
	require.NoError(t, err)
	require.Len(t, resp.Quests, 1)
	require.Equal(t, quest.ID, resp.Quests[0].ID)

	resp, err = d.GetList(ctx, &model.GetListQuestRequest{Status: "claimed"})
	require.NoError(t, err)
	require.Empty(t, resp.Quests)

	_, err = d.GetList(ctx, &model.GetListQuestRequest{Status: "bogus"})
	requireErrorCode(t, err, errorx.BadRequest)

	resp, err = d.GetList(ctx, &model.GetListQuestRequest{CreatorID: testutil.User1.ID})
	require.NoError(t, err)
	require.Len(t, resp.Quests, 1)

	_, err = d.GetList(ctx, &model.GetListQuestRequest{Limit: 1000})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = d.GetList(ctx, &model.GetListQuestRequest{Limit: -1})
	requireErrorCode(t, err, errorx.BadRequest)

	_, err = d.GetList(ctx, &model.GetListQuestRequest{Offset: -1})
	requireErrorCode(t, err, errorx.BadRequest)

	// Zero limit falls back to the default page size.
	resp, err = d.GetList(ctx, &model.GetListQuestRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Quests, 1)
}

// brokenQuestRepo keeps failing like a store whose retries ran out.
type brokenQuestRepo struct {
	repository.QuestRepository
}

func (r *brokenQuestRepo) GetByID(ctx context.Context, id string) (*entity.Quest, error) {
	return nil, fmt.Errorf("%w: database is locked", repository.ErrUnavailable)
}

func Test_questDomain_storeUnavailable(t *testing.T) {
	ctx := testutil.NewMockContext()
	testutil.CreateFixtureDb(ctx)
	d := NewQuestDomain(
		&brokenQuestRepo{repository.NewQuestRepository()},
		repository.NewAttestationRepository(),
		repository.NewUserRepository(),
		repository.NewFailedRewardRepository(),
		testutil.NewMockRedisClient(),
	)

	performerCtx := testutil.NewMockContextWithUserID(ctx, testutil.User2.ID)
	_, err := d.Claim(performerCtx, &model.ClaimQuestRequest{QuestID: "any"})
	requireErrorCode(t, err, errorx.Unavailable)

	_, err = d.Attest(performerCtx, &model.AttestQuestRequest{QuestID: "any"})
	requireErrorCode(t, err, errorx.Unavailable)
}
