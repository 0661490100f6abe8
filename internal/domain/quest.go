package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/peerquest-lab/backend/internal/common"
	"github.com/peerquest-lab/backend/internal/domain/queststate"
	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/internal/model"
	"github.com/peerquest-lab/backend/internal/repository"
	"github.com/peerquest-lab/backend/pkg/enum"
	"github.com/peerquest-lab/backend/pkg/errorx"
	"github.com/peerquest-lab/backend/pkg/xcontext"
	"github.com/peerquest-lab/backend/pkg/xredis"
	"gorm.io/gorm"
)

type QuestDomain interface {
	Create(context.Context, *model.CreateQuestRequest) (*model.CreateQuestResponse, error)
	Claim(context.Context, *model.ClaimQuestRequest) (*model.ClaimQuestResponse, error)
	Abandon(context.Context, *model.AbandonQuestRequest) (*model.AbandonQuestResponse, error)
	Submit(context.Context, *model.SubmitQuestRequest) (*model.SubmitQuestResponse, error)
	Attest(context.Context, *model.AttestQuestRequest) (*model.AttestQuestResponse, error)
	Dispute(context.Context, *model.DisputeQuestRequest) (*model.DisputeQuestResponse, error)
	Delete(context.Context, *model.DeleteQuestRequest) (*model.DeleteQuestResponse, error)
	Get(context.Context, *model.GetQuestRequest) (*model.GetQuestResponse, error)
	GetList(context.Context, *model.GetListQuestRequest) (*model.GetListQuestResponse, error)
}

type questDomain struct {
	questRepo        repository.QuestRepository
	attestationRepo  repository.AttestationRepository
	userRepo         repository.UserRepository
	failedRewardRepo repository.FailedRewardRepository

	idempotencyGuard   *common.IdempotencyGuard
	attestationManager *attestationManager
}

func NewQuestDomain(
	questRepo repository.QuestRepository,
	attestationRepo repository.AttestationRepository,
	userRepo repository.UserRepository,
	failedRewardRepo repository.FailedRewardRepository,
	redisClient xredis.Client,
) *questDomain {
	ledger := NewRewardLedger(userRepo, failedRewardRepo)
	return &questDomain{
		questRepo:          questRepo,
		attestationRepo:    attestationRepo,
		userRepo:           userRepo,
		failedRewardRepo:   failedRewardRepo,
		idempotencyGuard:   common.NewIdempotencyGuard(redisClient),
		attestationManager: newAttestationManager(questRepo, attestationRepo, ledger),
	}
}

func (d *questDomain) Create(
	ctx context.Context, req *model.CreateQuestRequest,
) (*model.CreateQuestResponse, error) {
	if req.Title == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty title")
	}

	creatorID := xcontext.RequestUserID(ctx)
	if req.IdempotencyKey == "" {
		return d.doCreate(ctx, creatorID, req)
	}

	key := "create-quest:" + creatorID + ":" + req.IdempotencyKey
	return common.DoIdempotent(ctx, d.idempotencyGuard, key,
		func(ctx context.Context) (*model.CreateQuestResponse, error) {
			return d.doCreate(ctx, creatorID, req)
		})
}

func (d *questDomain) doCreate(
	ctx context.Context, creatorID string, req *model.CreateQuestRequest,
) (*model.CreateQuestResponse, error) {
	if _, err := d.userRepo.GetByID(ctx, creatorID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found user")
		}

		return nil, storeError(ctx, err, "Cannot get creator")
	}

	cost := xcontext.Configs(ctx).Quest.CreationCost
	if err := d.userRepo.SpendCreationPoints(ctx, creatorID, cost); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, errorx.New(errorx.Conflict, "Not enough quest creation points")
		}

		return nil, storeError(ctx, err, "Cannot spend creation points")
	}

	quest := &entity.Quest{
		Base:             entity.Base{ID: uuid.NewString()},
		CreatorID:        creatorID,
		Status:           entity.QuestOpen,
		Title:            req.Title,
		Description:      []byte(req.Description),
		RewardXP:         req.RewardXP,
		RewardReputation: req.RewardReputation,
	}

	if err := d.questRepo.Create(ctx, quest); err != nil {
		// The spent points must not be lost with the quest.
		if refundErr := d.userRepo.RefundCreationPoints(ctx, creatorID, cost); refundErr != nil {
			xcontext.Logger(ctx).Errorf("Cannot refund creation points: %v", refundErr)
		}

		return nil, storeError(ctx, err, "Cannot create quest")
	}

	return &model.CreateQuestResponse{Quest: convertQuest(quest, nil)}, nil
}

func (d *questDomain) Claim(
	ctx context.Context, req *model.ClaimQuestRequest,
) (*model.ClaimQuestResponse, error) {
	performerID := xcontext.RequestUserID(ctx)
	quest, err := d.loadQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	if err := queststate.CanClaim(quest, performerID); err != nil {
		return nil, err
	}

	if err := d.questRepo.Claim(ctx, quest.ID, performerID, time.Now()); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, errorx.New(errorx.Conflict, "Quest was already claimed")
		}

		return nil, storeError(ctx, err, "Cannot claim quest")
	}

	quest, err = d.loadQuest(ctx, quest.ID)
	if err != nil {
		return nil, err
	}

	return &model.ClaimQuestResponse{Quest: convertQuest(quest, nil)}, nil
}

func (d *questDomain) Abandon(
	ctx context.Context, req *model.AbandonQuestRequest,
) (*model.AbandonQuestResponse, error) {
	performerID := xcontext.RequestUserID(ctx)
	quest, err := d.loadQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	if err := queststate.CanAbandon(quest, performerID); err != nil {
		return nil, err
	}

	if err := d.questRepo.Abandon(ctx, quest.ID, performerID); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, errorx.New(errorx.Conflict, "Quest is no longer claimed by you")
		}

		return nil, storeError(ctx, err, "Cannot abandon quest")
	}

	quest, err = d.loadQuest(ctx, quest.ID)
	if err != nil {
		return nil, err
	}

	return &model.AbandonQuestResponse{Quest: convertQuest(quest, nil)}, nil
}

func (d *questDomain) Submit(
	ctx context.Context, req *model.SubmitQuestRequest,
) (*model.SubmitQuestResponse, error) {
	if req.SubmissionText == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty submission")
	}

	performerID := xcontext.RequestUserID(ctx)
	quest, err := d.loadQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	if err := queststate.CanSubmit(quest, performerID); err != nil {
		return nil, err
	}

	err = d.questRepo.Submit(ctx, quest.ID, performerID, req.SubmissionText, time.Now())
	if err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, errorx.New(errorx.Conflict, "Quest is not awaiting submission")
		}

		return nil, storeError(ctx, err, "Cannot submit quest")
	}

	quest, err = d.loadQuest(ctx, quest.ID)
	if err != nil {
		return nil, err
	}

	return &model.SubmitQuestResponse{Quest: convertQuest(quest, nil)}, nil
}

func (d *questDomain) Attest(
	ctx context.Context, req *model.AttestQuestRequest,
) (*model.AttestQuestResponse, error) {
	userID := xcontext.RequestUserID(ctx)
	quest, attestations, err := d.attestationManager.Attest(ctx, req.QuestID, userID, req.Signature)
	if err != nil {
		return nil, err
	}

	return &model.AttestQuestResponse{Quest: convertQuest(quest, attestations)}, nil
}

func (d *questDomain) Dispute(
	ctx context.Context, req *model.DisputeQuestRequest,
) (*model.DisputeQuestResponse, error) {
	if req.Reason == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty dispute reason")
	}

	userID := xcontext.RequestUserID(ctx)
	quest, err := d.loadQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	if err := queststate.CanDispute(quest, userID); err != nil {
		return nil, err
	}

	if err := d.questRepo.Dispute(ctx, quest.ID, userID, req.Reason, time.Now()); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, errorx.New(errorx.Conflict, "Quest is no longer submitted")
		}

		return nil, storeError(ctx, err, "Cannot dispute quest")
	}

	quest, err = d.loadQuest(ctx, quest.ID)
	if err != nil {
		return nil, err
	}

	return &model.DisputeQuestResponse{Quest: convertQuest(quest, nil)}, nil
}

func (d *questDomain) Delete(
	ctx context.Context, req *model.DeleteQuestRequest,
) (*model.DeleteQuestResponse, error) {
	creatorID := xcontext.RequestUserID(ctx)
	quest, err := d.loadQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	if err := queststate.CanDelete(quest, creatorID); err != nil {
		return nil, err
	}

	if err := d.questRepo.SoftDelete(ctx, quest.ID, creatorID); err != nil {
		if errors.Is(err, repository.ErrPreconditionFailed) {
			return nil, errorx.New(errorx.Conflict, "Quest is no longer open")
		}

		return nil, storeError(ctx, err, "Cannot delete quest")
	}

	cost := xcontext.Configs(ctx).Quest.CreationCost
	if err := d.userRepo.RefundCreationPoints(ctx, creatorID, cost); err != nil {
		xcontext.Logger(ctx).Errorf("Cannot refund creation points: %v", err)
	}

	return &model.DeleteQuestResponse{}, nil
}

func (d *questDomain) Get(
	ctx context.Context, req *model.GetQuestRequest,
) (*model.GetQuestResponse, error) {
	quest, err := d.loadQuest(ctx, req.QuestID)
	if err != nil {
		return nil, err
	}

	attestations, err := d.attestationRepo.GetByQuestID(ctx, quest.ID)
	if err != nil {
		return nil, storeError(ctx, err, "Cannot get attestations")
	}

	return &model.GetQuestResponse{Quest: convertQuest(quest, attestations)}, nil
}

func (d *questDomain) GetList(
	ctx context.Context, req *model.GetListQuestRequest,
) (*model.GetListQuestResponse, error) {
	if req.Offset < 0 {
		return nil, errorx.New(errorx.BadRequest, "Not allow negative offset")
	}

	if req.Limit < 0 || req.Limit > 100 {
		return nil, errorx.New(errorx.BadRequest, "Limit must be between 0 and 100")
	}

	if req.Limit == 0 {
		req.Limit = 50
	}

	filter := &repository.QuestFilter{
		CreatorID:   req.CreatorID,
		PerformerID: req.PerformerID,
	}

	if req.Status != "" {
		status, err := enum.ToEnum[entity.QuestStatusType](req.Status)
		if err != nil {
			return nil, errorx.New(errorx.BadRequest, "Invalid status %s", req.Status)
		}

		filter.Status = []entity.QuestStatusType{status}
	}

	quests, err := d.questRepo.GetList(ctx, filter, req.Offset, req.Limit)
	if err != nil {
		return nil, storeError(ctx, err, "Cannot get quest list")
	}

	resp := &model.GetListQuestResponse{Quests: []model.Quest{}}
	for i := range quests {
		resp.Quests = append(resp.Quests, convertQuest(&quests[i], nil))
	}

	return resp, nil
}

func (d *questDomain) loadQuest(ctx context.Context, id string) (*entity.Quest, error) {
	if id == "" {
		return nil, errorx.New(errorx.BadRequest, "Not allow empty quest id")
	}

	quest, err := d.questRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errorx.New(errorx.NotFound, "Not found quest")
		}

		return nil, storeError(ctx, err, "Cannot get quest")
	}

	return quest, nil
}
