package entity

import (
	"database/sql"
	"time"

	"github.com/peerquest-lab/backend/pkg/enum"
)

type AttestationRole string

var (
	RoleRequestor = enum.New(AttestationRole("requestor"))
	RolePerformer = enum.New(AttestationRole("performer"))
	RoleObserver  = enum.New(AttestationRole("observer"))
)

// Attestation rows form the attester set of a quest. The composite primary
// key rejects a second attestation by the same user at the store, no matter
// how the call was retried or raced.
type Attestation struct {
	QuestID string `gorm:"primaryKey"`
	UserID  string `gorm:"primaryKey"`

	Role      AttestationRole
	Signature sql.NullString
	CreatedAt time.Time
}
