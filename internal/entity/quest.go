package entity

import (
	"database/sql"

	"github.com/peerquest-lab/backend/pkg/enum"
)

type QuestStatusType string

var (
	QuestOpen      = enum.New(QuestStatusType("open"))
	QuestClaimed   = enum.New(QuestStatusType("claimed"))
	QuestSubmitted = enum.New(QuestStatusType("submitted"))
	QuestComplete  = enum.New(QuestStatusType("complete"))
	QuestDisputed  = enum.New(QuestStatusType("disputed"))
)

// IsTerminal reports whether no further transition is legal from this status.
func (s QuestStatusType) IsTerminal() bool {
	return s == QuestComplete || s == QuestDisputed
}

type Quest struct {
	Base

	CreatorID string
	Creator   User `gorm:"foreignKey:CreatorID"`

	PerformerID sql.NullString

	Status           QuestStatusType `gorm:"index"`
	Title            string
	Description      []byte `gorm:"type:longtext"`
	SubmissionText   sql.NullString
	RewardXP         uint64
	RewardReputation uint64

	// AttestationCount mirrors the number of attestation rows of this quest.
	// Every attestation append bumps it with a status guard in the same
	// database transaction, which is what serializes appends against a
	// concurrent dispute or completion.
	AttestationCount int

	ClaimedAt     sql.NullTime
	SubmittedAt   sql.NullTime
	CompletedAt   sql.NullTime
	DisputeReason sql.NullString
}
