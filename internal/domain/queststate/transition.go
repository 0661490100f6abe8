// Package queststate holds the pure transition rules of the quest lifecycle:
// OPEN -> CLAIMED -> SUBMITTED -> {COMPLETE, DISPUTED}, with CLAIMED -> OPEN
// as the only backward edge. Every predicate is side-effect free; the store
// re-validates the same preconditions with conditional writes, so these
// checks only decide which typed error the caller sees.
package queststate

import (
	"github.com/peerquest-lab/backend/internal/entity"
	"github.com/peerquest-lab/backend/pkg/errorx"
	"golang.org/x/exp/slices"
)

func CanClaim(quest *entity.Quest, userID string) error {
	if err := notTerminal(quest); err != nil {
		return err
	}

	if quest.Status != entity.QuestOpen || quest.PerformerID.Valid {
		return errorx.New(errorx.Conflict, "Quest is not open for claiming")
	}

	if userID == quest.CreatorID {
		return errorx.New(errorx.PermissionDenied, "Cannot claim your own quest")
	}

	return nil
}

func CanAbandon(quest *entity.Quest, userID string) error {
	if err := notTerminal(quest); err != nil {
		return err
	}

	if quest.Status != entity.QuestClaimed {
		return errorx.New(errorx.Conflict, "Only a claimed quest can be abandoned")
	}

	if RoleOf(quest, userID) != entity.RolePerformer {
		return errorx.New(errorx.PermissionDenied, "Only the performer can abandon a quest")
	}

	return nil
}

func CanSubmit(quest *entity.Quest, userID string) error {
	if err := notTerminal(quest); err != nil {
		return err
	}

	if quest.Status != entity.QuestClaimed {
		return errorx.New(errorx.Conflict, "Quest is not awaiting submission")
	}

	if RoleOf(quest, userID) != entity.RolePerformer {
		return errorx.New(errorx.PermissionDenied, "Only the performer can submit")
	}

	return nil
}

func CanAttest(quest *entity.Quest, attestations []entity.Attestation, userID string) error {
	if err := notTerminal(quest); err != nil {
		return err
	}

	if quest.Status != entity.QuestSubmitted {
		return errorx.New(errorx.Conflict, "Quest is not awaiting attestation")
	}

	if RoleOf(quest, userID) == entity.RoleObserver {
		return errorx.New(errorx.PermissionDenied, "Only requestor or performer can attest")
	}

	if slices.ContainsFunc(attestations, func(a entity.Attestation) bool {
		return a.UserID == userID
	}) {
		return errorx.New(errorx.Conflict, "Already attested this quest")
	}

	return nil
}

func CanDispute(quest *entity.Quest, userID string) error {
	if err := notTerminal(quest); err != nil {
		return err
	}

	if quest.Status != entity.QuestSubmitted {
		return errorx.New(errorx.Conflict, "Only a submitted quest can be disputed")
	}

	if RoleOf(quest, userID) == entity.RoleObserver {
		return errorx.New(errorx.PermissionDenied, "Only requestor or performer can dispute")
	}

	return nil
}

func CanDelete(quest *entity.Quest, userID string) error {
	if err := notTerminal(quest); err != nil {
		return err
	}

	if quest.Status != entity.QuestOpen {
		return errorx.New(errorx.Conflict, "Only an open quest can be deleted")
	}

	if userID != quest.CreatorID {
		return errorx.New(errorx.PermissionDenied, "Only the requestor can delete a quest")
	}

	return nil
}

// IsReadyForCompletion reports whether both parties have attested.
func IsReadyForCompletion(attestations []entity.Attestation) bool {
	var requestor, performer bool
	for _, a := range attestations {
		switch a.Role {
		case entity.RoleRequestor:
			requestor = true
		case entity.RolePerformer:
			performer = true
		}
	}

	return requestor && performer
}

func notTerminal(quest *entity.Quest) error {
	if quest.Status.IsTerminal() {
		return errorx.New(errorx.TerminalState,
			"Quest is %s and cannot be changed", quest.Status)
	}

	return nil
}
