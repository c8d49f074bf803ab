package types

// Addresses inside payloads are bech32 strings (learn1...).

type InitializeProgramPayload struct {
	TokenMint   string `json:"tokenMint"`
	TokenIssuer string `json:"tokenIssuer"`
}

type UpdateProgramConfigPayload struct {
	NewAuthority *string `json:"newAuthority,omitempty"`
	Paused       *bool   `json:"paused,omitempty"`
}

type RegisterCoursePayload struct {
	CourseID      string `json:"courseId"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	RewardAmount  uint64 `json:"rewardAmount"`
	RequiredScore uint8  `json:"requiredScore"`
}

type UpdateCoursePayload struct {
	CourseID      string  `json:"courseId"`
	Title         *string `json:"title,omitempty"`
	Description   *string `json:"description,omitempty"`
	RewardAmount  *uint64 `json:"rewardAmount,omitempty"`
	RequiredScore *uint8  `json:"requiredScore,omitempty"`
	Active        *bool   `json:"active,omitempty"`
}

type RegisterLearnerPayload struct {
	Name string `json:"name"`
}

type CompleteCoursePayload struct {
	Learner      string `json:"learner"`
	CourseID     string `json:"courseId"`
	Score        uint8  `json:"score"`
	EvidenceHash string `json:"evidenceHash"`
}

type InitializeMintPayload struct {
	Decimals  uint8  `json:"decimals"`
	SupplyCap uint64 `json:"supplyCap"`
}

type UpdateMintConfigPayload struct {
	NewAuthority *string `json:"newAuthority,omitempty"`
	SupplyCap    *uint64 `json:"supplyCap,omitempty"`
	Cooldown     *uint64 `json:"cooldown,omitempty"`
	Paused       *bool   `json:"paused,omitempty"`
}

type BurnTokensPayload struct {
	Amount uint64 `json:"amount"`
}
