package queststate

import (
	"github.com/peerquest-lab/backend/internal/entity"
)

// RoleOf computes the caller's role for a quest. It is the single place role
// dispatch happens; everything downstream matches on the returned enum.
func RoleOf(quest *entity.Quest, userID string) entity.AttestationRole {
	switch {
	case userID == quest.CreatorID:
		return entity.RoleRequestor
	case quest.PerformerID.Valid && userID == quest.PerformerID.String:
		return entity.RolePerformer
	default:
		return entity.RoleObserver
	}
}
