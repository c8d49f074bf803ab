package learning

import (
	"strconv"
	"strings"

	"learnchain/core/events"
	"learnchain/core/types"
	"learnchain/crypto"
)

const (
	// EventTypeProgramInitialized is emitted once when the program is created.
	EventTypeProgramInitialized = "learning.program.initialized"
	// EventTypeProgramUpdated is emitted when the authority changes the program.
	EventTypeProgramUpdated = "learning.program.updated"
	// EventTypeCourseRegistered is emitted for a new course.
	EventTypeCourseRegistered = "learning.course.registered"
	// EventTypeCourseUpdated is emitted when a course authority edits a course.
	EventTypeCourseUpdated = "learning.course.updated"
	// EventTypeLearnerRegistered is emitted for a new learner.
	EventTypeLearnerRegistered = "learning.learner.registered"
	// EventTypeCourseCompleted is emitted when a completion and its reward commit.
	EventTypeCourseCompleted = "learning.course.completed"
)

type eventEnvelope struct {
	evt *types.Event
}

func (e eventEnvelope) EventType() string {
	if e.evt == nil {
		return ""
	}
	return e.evt.Type
}

func (e eventEnvelope) Event() *types.Event { return e.evt }

// WrapEvent converts a raw event payload into the emitter-friendly envelope.
func WrapEvent(evt *types.Event) events.Event { return eventEnvelope{evt: evt} }

func addr(a [20]byte) string { return crypto.FromRaw(a).String() }

func u64(v uint64) string { return strconv.FormatUint(v, 10) }

// ProgramInitializedEvent describes the new program singleton.
func ProgramInitializedEvent(cfg *ProgramConfig) *types.Event {
	return &types.Event{
		Type: EventTypeProgramInitialized,
		Attributes: map[string]string{
			"authority":   addr(cfg.Authority),
			"tokenMint":   addr(cfg.TokenMint),
			"tokenIssuer": addr(cfg.TokenIssuer),
		},
	}
}

// ProgramUpdatedEvent lists the program state after an update.
func ProgramUpdatedEvent(cfg *ProgramConfig, fields []string) *types.Event {
	return &types.Event{
		Type: EventTypeProgramUpdated,
		Attributes: map[string]string{
			"authority": addr(cfg.Authority),
			"paused":    strconv.FormatBool(cfg.Paused),
			"fields":    strings.Join(fields, ","),
		},
	}
}

// CourseRegisteredEvent describes a newly registered course.
func CourseRegisteredEvent(course *Course) *types.Event {
	return &types.Event{
		Type: EventTypeCourseRegistered,
		Attributes: map[string]string{
			"courseId":      course.ID,
			"course":        addr(course.Address),
			"authority":     addr(course.Authority),
			"rewardAmount":  u64(course.RewardAmount),
			"requiredScore": strconv.Itoa(int(course.RequiredScore)),
		},
	}
}

// CourseUpdatedEvent lists the fields changed on a course.
func CourseUpdatedEvent(course *Course, fields []string) *types.Event {
	return &types.Event{
		Type: EventTypeCourseUpdated,
		Attributes: map[string]string{
			"courseId": course.ID,
			"active":   strconv.FormatBool(course.Active),
			"fields":   strings.Join(fields, ","),
		},
	}
}

// LearnerRegisteredEvent describes a newly registered learner.
func LearnerRegisteredEvent(learner *Learner) *types.Event {
	return &types.Event{
		Type: EventTypeLearnerRegistered,
		Attributes: map[string]string{
			"learner": addr(learner.Wallet),
			"name":    learner.Name,
		},
	}
}

// CourseCompletedEvent describes a committed completion.
func CourseCompletedEvent(record *CompletionRecord) *types.Event {
	return &types.Event{
		Type: EventTypeCourseCompleted,
		Attributes: map[string]string{
			"courseId":     record.CourseID,
			"course":       addr(record.Course),
			"learner":      addr(record.Learner),
			"score":        strconv.Itoa(int(record.Score)),
			"xpEarned":     u64(record.XPEarned),
			"tokensEarned": u64(record.TokensEarned),
		},
	}
}
