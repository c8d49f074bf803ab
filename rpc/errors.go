package rpc

import (
	"errors"
	"net/http"

	"learnchain/core"
	"learnchain/native/learning"
	"learnchain/native/token"
)

type errorClass struct {
	status int
	code   int
	errs   []error
}

// Order matters: the first class containing a matching sentinel wins.
var errorClasses = []errorClass{
	{http.StatusBadRequest, codeInvalidParams, []error{
		core.ErrNilTransaction,
		core.ErrInvalidChainID,
		core.ErrInvalidPayload,
		core.ErrUnknownTxType,
		learning.ErrInvalidTokenMint,
		learning.ErrInvalidAuthority,
		learning.ErrInvalidCourseID,
		learning.ErrCourseIDTooLong,
		learning.ErrCourseTitleTooLong,
		learning.ErrCourseDescriptionTooLong,
		learning.ErrInvalidRequiredScore,
		learning.ErrLearnerNameTooLong,
		learning.ErrScoreTooLow,
		learning.ErrInvalidScore,
		learning.ErrEvidenceHashTooLong,
		token.ErrInvalidAuthority,
		token.ErrInvalidSupplyCap,
		token.ErrInvalidAmount,
	}},
	{http.StatusForbidden, codeUnauthorized, []error{
		core.ErrInvalidSignature,
		learning.ErrUnauthorized,
		token.ErrUnauthorized,
		token.ErrMintAuthorityMismatch,
	}},
	{http.StatusNotFound, codeNotFound, []error{
		learning.ErrProgramNotInitialized,
		learning.ErrCourseNotFound,
		learning.ErrLearnerNotFound,
		token.ErrMintNotInitialized,
		token.ErrUnknownMint,
	}},
	{http.StatusConflict, codeConflict, []error{
		core.ErrInvalidNonce,
		learning.ErrProgramInitialized,
		learning.ErrProgramPaused,
		learning.ErrCourseExists,
		learning.ErrCourseInactive,
		learning.ErrLearnerExists,
		learning.ErrCourseAlreadyCompleted,
		learning.ErrTokenMintMismatch,
		token.ErrMintInitialized,
		token.ErrMintingPaused,
	}},
	{http.StatusUnprocessableEntity, codeCapacity, []error{
		token.ErrSupplyCapExceeded,
		token.ErrMintCooldownNotMet,
		token.ErrInsufficientBalance,
		token.ErrBalanceOverflow,
	}},
}

// classify maps a domain error to its HTTP status and JSON-RPC code.
func classify(err error) (int, int) {
	for _, class := range errorClasses {
		for _, target := range class.errs {
			if errors.Is(err, target) {
				return class.status, class.code
			}
		}
	}
	return http.StatusInternalServerError, codeServerError
}

func (c *codeRecorder) failErr(id interface{}, err error) {
	status, code := classify(err)
	c.fail(status, id, code, err.Error(), nil)
}
