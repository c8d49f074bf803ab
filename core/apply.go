package core

import (
	"fmt"

	"learnchain/core/types"
	"learnchain/crypto"
	"learnchain/native/learning"
	"learnchain/native/token"
)

func (n *Node) apply(e engines, from [20]byte, tx *types.Transaction) (any, error) {
	switch tx.Type {
	case types.TxTypeInitializeProgram:
		var payload types.InitializeProgramPayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		mint, err := optionalAddress(payload.TokenMint, n.mint)
		if err != nil {
			return nil, err
		}
		// The node only issues from its own mint.
		if mint != n.mint {
			return nil, fmt.Errorf("%w: program mint must be the node mint", learning.ErrTokenMintMismatch)
		}
		issuer, err := optionalAddress(payload.TokenIssuer, token.SignerAddress(mint))
		if err != nil {
			return nil, err
		}
		return e.learning.Initialize(from, mint, issuer)

	case types.TxTypeUpdateProgramConfig:
		var payload types.UpdateProgramConfigPayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		update := learning.ConfigUpdate{Paused: payload.Paused}
		if payload.NewAuthority != nil {
			addr, err := parseAddress(*payload.NewAuthority)
			if err != nil {
				return nil, err
			}
			update.Authority = &addr
		}
		return e.learning.UpdateConfig(from, update)

	case types.TxTypeRegisterCourse:
		var payload types.RegisterCoursePayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		return e.learning.RegisterCourse(from, learning.CourseParams{
			ID:            payload.CourseID,
			Title:         payload.Title,
			Description:   payload.Description,
			RewardAmount:  payload.RewardAmount,
			RequiredScore: payload.RequiredScore,
		})

	case types.TxTypeUpdateCourse:
		var payload types.UpdateCoursePayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		return e.learning.UpdateCourse(from, payload.CourseID, learning.CourseUpdate{
			Title:         payload.Title,
			Description:   payload.Description,
			RewardAmount:  payload.RewardAmount,
			RequiredScore: payload.RequiredScore,
			Active:        payload.Active,
		})

	case types.TxTypeRegisterLearner:
		var payload types.RegisterLearnerPayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		return e.learning.RegisterLearner(from, payload.Name)

	case types.TxTypeCompleteCourse:
		var payload types.CompleteCoursePayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		learner, err := optionalAddress(payload.Learner, from)
		if err != nil {
			return nil, err
		}
		return e.learning.CompleteCourse(from, learning.CompletionParams{
			Learner:      learner,
			CourseID:     payload.CourseID,
			Score:        payload.Score,
			EvidenceHash: payload.EvidenceHash,
		})

	case types.TxTypeInitializeMint:
		var payload types.InitializeMintPayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		return e.token.InitializeMint(from, payload.Decimals, payload.SupplyCap)

	case types.TxTypeUpdateMintConfig:
		var payload types.UpdateMintConfigPayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		update := token.MintConfigUpdate{
			SupplyCap: payload.SupplyCap,
			Cooldown:  payload.Cooldown,
			Paused:    payload.Paused,
		}
		if payload.NewAuthority != nil {
			addr, err := parseAddress(*payload.NewAuthority)
			if err != nil {
				return nil, err
			}
			update.Authority = &addr
		}
		return e.token.UpdateMintConfig(from, update)

	case types.TxTypeBurnTokens:
		var payload types.BurnTokensPayload
		if err := decode(tx, &payload); err != nil {
			return nil, err
		}
		balance, err := e.token.Burn(from, payload.Amount)
		if err != nil {
			return nil, err
		}
		return &BurnResult{Owner: crypto.FromRaw(from).String(), Amount: payload.Amount, Balance: balance}, nil

	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownTxType, tx.Type)
	}
}

func decode(tx *types.Transaction, out any) error {
	if err := tx.DecodePayload(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func parseAddress(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(value)
	if err != nil {
		return [20]byte{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return addr.Raw(), nil
}

func optionalAddress(value string, fallback [20]byte) ([20]byte, error) {
	if value == "" {
		return fallback, nil
	}
	return parseAddress(value)
}
