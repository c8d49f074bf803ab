package learning

import "errors"

var (
	ErrNilState                 = errors.New("learning: state not configured")
	ErrMinterNotConfigured      = errors.New("learning: token minter not configured")
	ErrProgramInitialized       = errors.New("learning: program already initialized")
	ErrProgramNotInitialized    = errors.New("learning: program not initialized")
	ErrInvalidTokenMint         = errors.New("learning: invalid token mint")
	ErrInvalidAuthority         = errors.New("learning: invalid authority")
	ErrUnauthorized             = errors.New("learning: unauthorized")
	ErrProgramPaused            = errors.New("learning: program is paused")
	ErrInvalidCourseID          = errors.New("learning: invalid course id")
	ErrCourseIDTooLong          = errors.New("learning: course id too long")
	ErrCourseTitleTooLong       = errors.New("learning: course title too long")
	ErrCourseDescriptionTooLong = errors.New("learning: course description too long")
	ErrInvalidRequiredScore     = errors.New("learning: required score must be between 0 and 100")
	ErrCourseExists             = errors.New("learning: course already registered")
	ErrCourseNotFound           = errors.New("learning: course not found")
	ErrCourseInactive           = errors.New("learning: course is not active")
	ErrLearnerNameTooLong       = errors.New("learning: learner name too long")
	ErrLearnerExists            = errors.New("learning: learner already registered")
	ErrLearnerNotFound          = errors.New("learning: learner not found")
	ErrScoreTooLow              = errors.New("learning: score below required threshold")
	ErrInvalidScore             = errors.New("learning: score must be between 0 and 100")
	ErrEvidenceHashTooLong      = errors.New("learning: evidence hash too long")
	ErrCourseAlreadyCompleted   = errors.New("learning: course already completed")
	ErrTokenMintMismatch        = errors.New("learning: token mint mismatch")
)
