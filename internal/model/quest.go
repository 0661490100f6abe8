package model

type Attestation struct {
	UserID    string `json:"user_id"`
	Role      string `json:"role"`
	Signature string `json:"signature,omitempty"`
	CreatedAt string `json:"created_at"`
}

type Quest struct {
	ID               string        `json:"id"`
	CreatorID        string        `json:"creator_id"`
	PerformerID      string        `json:"performer_id,omitempty"`
	Status           string        `json:"status"`
	Title            string        `json:"title"`
	Description      string        `json:"description"`
	SubmissionText   string        `json:"submission_text,omitempty"`
	RewardXP         uint64        `json:"reward_xp"`
	RewardReputation uint64        `json:"reward_reputation"`
	Attestations     []Attestation `json:"attestations"`
	DisputeReason    string        `json:"dispute_reason,omitempty"`
	CreatedAt        string        `json:"created_at"`
	ClaimedAt        string        `json:"claimed_at,omitempty"`
	SubmittedAt      string        `json:"submitted_at,omitempty"`
	CompletedAt      string        `json:"completed_at,omitempty"`
}

type CreateQuestRequest struct {
	IdempotencyKey   string `json:"idempotency_key"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	RewardXP         uint64 `json:"reward_xp"`
	RewardReputation uint64 `json:"reward_reputation"`
}

type CreateQuestResponse struct {
	Quest Quest `json:"quest"`
}

type ClaimQuestRequest struct {
	QuestID string `json:"quest_id"`
}

type ClaimQuestResponse struct {
	Quest Quest `json:"quest"`
}

type AbandonQuestRequest struct {
	QuestID string `json:"quest_id"`
}

type AbandonQuestResponse struct {
	Quest Quest `json:"quest"`
}

type SubmitQuestRequest struct {
	QuestID        string `json:"quest_id"`
	SubmissionText string `json:"submission_text"`
}

type SubmitQuestResponse struct {
	Quest Quest `json:"quest"`
}

type AttestQuestRequest struct {
	QuestID   string `json:"quest_id"`
	Signature string `json:"signature"`
}

type AttestQuestResponse struct {
	Quest Quest `json:"quest"`
}

type DisputeQuestRequest struct {
	QuestID string `json:"quest_id"`
	Reason  string `json:"reason"`
}

type DisputeQuestResponse struct {
	Quest Quest `json:"quest"`
}

type DeleteQuestRequest struct {
	QuestID string `json:"quest_id"`
}

type DeleteQuestResponse struct{}

type GetQuestRequest struct {
	QuestID string `json:"quest_id"`
}

type GetQuestResponse struct {
	Quest Quest `json:"quest"`
}

type GetListQuestRequest struct {
	Status      string `json:"status"`
	CreatorID   string `json:"creator_id"`
	PerformerID string `json:"performer_id"`
	Offset      int    `json:"offset"`
	Limit       int    `json:"limit"`
}

type GetListQuestResponse struct {
	Quests []Quest `json:"quests"`
}
