package entity

import (
	"database/sql"

	"github.com/peerquest-lab/backend/pkg/enum"
)

type FailedRewardStatus string

var (
	FailedRewardPending    = enum.New(FailedRewardStatus("pending"))
	FailedRewardProcessing = enum.New(FailedRewardStatus("processing"))
	FailedRewardCompleted  = enum.New(FailedRewardStatus("completed"))
)

// FailedReward is a durable record of a reward credit that could not be
// applied when the quest completed. The snowflake id keeps the pending queue
// in creation order.
type FailedReward struct {
	SnowFlakeBase

	UserID  string
	User    User `gorm:"foreignKey:UserID"`
	QuestID string

	XP         uint64
	Reputation uint64

	Status         FailedRewardStatus `gorm:"index"`
	LeaseOwner     sql.NullString
	LeaseExpiresAt sql.NullTime
	RetryCount     int
}
