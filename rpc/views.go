package rpc

import (
	"learnchain/core"
	"learnchain/core/types"
	"learnchain/crypto"
	"learnchain/native/learning"
	"learnchain/native/token"
)

// Views render 20-byte addresses as bech32 strings.

type ProgramConfigResult struct {
	Authority     string `json:"authority"`
	TokenMint     string `json:"tokenMint"`
	TokenIssuer   string `json:"tokenIssuer"`
	TotalCourses  uint64 `json:"totalCourses"`
	TotalLearners uint64 `json:"totalLearners"`
	Paused        bool   `json:"paused"`
	CreatedAt     uint64 `json:"createdAt"`
}

type CourseResult struct {
	ID             string `json:"id"`
	Address        string `json:"address"`
	Authority      string `json:"authority"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	RewardAmount   uint64 `json:"rewardAmount"`
	RequiredScore  uint8  `json:"requiredScore"`
	Active         bool   `json:"active"`
	CompletedCount uint64 `json:"completedCount"`
	CreatedAt      uint64 `json:"createdAt"`
}

type LearnerResult struct {
	Wallet           string `json:"wallet"`
	Name             string `json:"name"`
	TotalXP          uint64 `json:"totalXp"`
	CoursesCompleted uint64 `json:"coursesCompleted"`
	CreatedAt        uint64 `json:"createdAt"`
	LastActivity     uint64 `json:"lastActivity"`
}

type CompletionResult struct {
	Learner      string `json:"learner"`
	Course       string `json:"course"`
	CourseID     string `json:"courseId"`
	Status       string `json:"status"`
	Score        uint8  `json:"score"`
	EvidenceHash string `json:"evidenceHash,omitempty"`
	CompletedAt  uint64 `json:"completedAt"`
	XPEarned     uint64 `json:"xpEarned"`
	TokensEarned uint64 `json:"tokensEarned"`
}

type MintConfigResult struct {
	Mint              string `json:"mint"`
	Authority         string `json:"authority"`
	SupplyCap         uint64 `json:"supplyCap"`
	TotalMinted       uint64 `json:"totalMinted"`
	Remaining         uint64 `json:"remaining"`
	Decimals          uint8  `json:"decimals"`
	Paused            bool   `json:"paused"`
	LastMintTimestamp uint64 `json:"lastMintTimestamp"`
	MintCooldown      uint64 `json:"mintCooldown"`
	NextMintAt        uint64 `json:"nextMintAt,omitempty"`
}

type BalanceResult struct {
	Address string `json:"address"`
	Balance uint64 `json:"balance"`
	Supply  uint64 `json:"supply"`
}

type NonceResult struct {
	Address string `json:"address"`
	Nonce   uint64 `json:"nonce"`
}

type ReceiptResult struct {
	TxHash string         `json:"txHash"`
	Type   string         `json:"type"`
	From   string         `json:"from"`
	Nonce  uint64         `json:"nonce"`
	Result interface{}    `json:"result,omitempty"`
	Events []*types.Event `json:"events"`
}

func bech32(raw [20]byte) string {
	if raw == ([20]byte{}) {
		return ""
	}
	return crypto.FromRaw(raw).String()
}

func programResult(cfg *learning.ProgramConfig) ProgramConfigResult {
	return ProgramConfigResult{
		Authority:     bech32(cfg.Authority),
		TokenMint:     bech32(cfg.TokenMint),
		TokenIssuer:   bech32(cfg.TokenIssuer),
		TotalCourses:  cfg.TotalCourses,
		TotalLearners: cfg.TotalLearners,
		Paused:        cfg.Paused,
		CreatedAt:     cfg.CreatedAt,
	}
}

func courseResult(course *learning.Course) CourseResult {
	return CourseResult{
		ID:             course.ID,
		Address:        bech32(course.Address),
		Authority:      bech32(course.Authority),
		Title:          course.Title,
		Description:    course.Description,
		RewardAmount:   course.RewardAmount,
		RequiredScore:  course.RequiredScore,
		Active:         course.Active,
		CompletedCount: course.CompletedCount,
		CreatedAt:      course.CreatedAt,
	}
}

func learnerResult(learner *learning.Learner) LearnerResult {
	return LearnerResult{
		Wallet:           bech32(learner.Wallet),
		Name:             learner.Name,
		TotalXP:          learner.TotalXP,
		CoursesCompleted: learner.CoursesCompleted,
		CreatedAt:        learner.CreatedAt,
		LastActivity:     learner.LastActivity,
	}
}

func completionResult(record *learning.CompletionRecord) CompletionResult {
	return CompletionResult{
		Learner:      bech32(record.Learner),
		Course:       bech32(record.Course),
		CourseID:     record.CourseID,
		Status:       record.Status.String(),
		Score:        record.Score,
		EvidenceHash: record.EvidenceHash,
		CompletedAt:  record.CompletedAt,
		XPEarned:     record.XPEarned,
		TokensEarned: record.TokensEarned,
	}
}

func mintConfigResult(cfg *token.MintConfig) MintConfigResult {
	return MintConfigResult{
		Mint:              bech32(cfg.Mint),
		Authority:         bech32(cfg.Authority),
		SupplyCap:         cfg.SupplyCap,
		TotalMinted:       cfg.TotalMinted,
		Remaining:         cfg.Remaining(),
		Decimals:          cfg.Decimals,
		Paused:            cfg.Paused,
		LastMintTimestamp: cfg.LastMintTimestamp,
		MintCooldown:      cfg.MintCooldown,
		NextMintAt:        cfg.NextMintAt(),
	}
}

// renderValue converts a transition result into its view.
func renderValue(v interface{}) interface{} {
	switch r := v.(type) {
	case *learning.ProgramConfig:
		return programResult(r)
	case *learning.Course:
		return courseResult(r)
	case *learning.Learner:
		return learnerResult(r)
	case *learning.CompletionRecord:
		return completionResult(r)
	case *token.MintConfig:
		return mintConfigResult(r)
	default:
		return v
	}
}

func receiptResult(receipt *core.Receipt) ReceiptResult {
	evts := receipt.Events
	if evts == nil {
		evts = []*types.Event{}
	}
	return ReceiptResult{
		TxHash: receipt.TxHash,
		Type:   receipt.Type,
		From:   receipt.From,
		Nonce:  receipt.Nonce,
		Result: renderValue(receipt.Result),
		Events: evts,
	}
}
