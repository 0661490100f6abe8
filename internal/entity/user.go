package entity

type User struct {
	Base
	Name string `gorm:"unique"`

	// Reputation is monotonic non-decreasing through this subsystem.
	Reputation          uint64
	Experience          uint64
	QuestCreationPoints uint64
}

// ProcessedReward rows form the processed-reward set of a user. The composite
// primary key makes crediting at-most-once: a replayed credit hits a
// duplicate key instead of applying twice.
type ProcessedReward struct {
	UserID   string `gorm:"primaryKey"`
	RewardID string `gorm:"primaryKey"`
}
