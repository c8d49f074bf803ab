package learning

import (
	"fmt"
	"time"

	"learnchain/core/events"
	"learnchain/core/types"
)

type engineState interface {
	LearningProgramGet() (*ProgramConfig, bool, error)
	LearningProgramPut(cfg *ProgramConfig) error
	LearningCourseGet(id string) (*Course, bool, error)
	LearningCoursePut(course *Course) error
	LearningLearnerGet(wallet [20]byte) (*Learner, bool, error)
	LearningLearnerPut(learner *Learner) error
	LearningCompletionGet(course [20]byte, learner [20]byte) (*CompletionRecord, bool, error)
	LearningCompletionPut(record *CompletionRecord) error
}

// Minter issues course rewards. The token issuance ledger implements it and
// applies its own pause, cooldown and cap checks.
type Minter interface {
	MintAddress() [20]byte
	MintReward(recipient [20]byte, amount uint64) error
}

// Engine owns the program configuration, the course and learner registries and
// the completion ledger.
type Engine struct {
	state   engineState
	minter  Minter
	emitter events.Emitter
	nowFn   func() int64
}

// NewEngine constructs a learning engine with default dependencies.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn: func() int64 {
			return time.Now().Unix()
		},
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetMinter configures the ledger that pays course rewards.
func (e *Engine) SetMinter(minter Minter) { e.minter = minter }

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

func (e *Engine) emit(evt *types.Event) {
	if e == nil || evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() uint64 {
	var ts int64
	if e == nil || e.nowFn == nil {
		ts = time.Now().Unix()
	} else {
		ts = e.nowFn()
	}
	if ts < 0 {
		return 0
	}
	return uint64(ts)
}

func (e *Engine) loadProgram() (*ProgramConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	cfg, ok, err := e.state.LearningProgramGet()
	if err != nil {
		return nil, err
	}
	if !ok || cfg == nil {
		return nil, ErrProgramNotInitialized
	}
	return cfg, nil
}

// Program returns the program configuration.
func (e *Engine) Program() (*ProgramConfig, error) {
	cfg, err := e.loadProgram()
	if err != nil {
		return nil, err
	}
	return cfg.Clone(), nil
}

// Initialize creates the program singleton with caller as its authority.
func (e *Engine) Initialize(caller, tokenMint, tokenIssuer [20]byte) (*ProgramConfig, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	if _, ok, err := e.state.LearningProgramGet(); err != nil {
		return nil, err
	} else if ok {
		return nil, ErrProgramInitialized
	}
	if tokenMint == ([20]byte{}) {
		return nil, ErrInvalidTokenMint
	}
	cfg := &ProgramConfig{
		Authority:   caller,
		TokenMint:   tokenMint,
		TokenIssuer: tokenIssuer,
		CreatedAt:   e.now(),
	}
	if err := e.state.LearningProgramPut(cfg); err != nil {
		return nil, err
	}
	e.emit(ProgramInitializedEvent(cfg))
	return cfg.Clone(), nil
}

// UpdateConfig applies the present fields of update. Only the current
// authority may call it.
func (e *Engine) UpdateConfig(caller [20]byte, update ConfigUpdate) (*ProgramConfig, error) {
	cfg, err := e.loadProgram()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Authority {
		return nil, ErrUnauthorized
	}
	if update.Authority != nil && *update.Authority == ([20]byte{}) {
		return nil, ErrInvalidAuthority
	}
	if update.Empty() {
		return cfg.Clone(), nil
	}
	var fields []string
	if update.Authority != nil {
		cfg.Authority = *update.Authority
		fields = append(fields, "authority")
	}
	if update.Paused != nil {
		cfg.Paused = *update.Paused
		fields = append(fields, "paused")
	}
	if err := e.state.LearningProgramPut(cfg); err != nil {
		return nil, err
	}
	e.emit(ProgramUpdatedEvent(cfg, fields))
	return cfg.Clone(), nil
}

// RegisterCourse adds a course owned by caller. Only the program authority
// registers courses.
func (e *Engine) RegisterCourse(caller [20]byte, params CourseParams) (*Course, error) {
	cfg, err := e.loadProgram()
	if err != nil {
		return nil, err
	}
	if caller != cfg.Authority {
		return nil, ErrUnauthorized
	}
	if err := validateCourseID(params.ID); err != nil {
		return nil, err
	}
	if err := validateCourseFields(&params.Title, &params.Description, &params.RequiredScore); err != nil {
		return nil, err
	}
	if _, exists, err := e.state.LearningCourseGet(params.ID); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrCourseExists
	}
	course := &Course{
		ID:            params.ID,
		Address:       CourseAddress(params.ID),
		Authority:     caller,
		Title:         params.Title,
		Description:   params.Description,
		RewardAmount:  params.RewardAmount,
		RequiredScore: params.RequiredScore,
		Active:        true,
		CreatedAt:     e.now(),
	}
	if err := e.state.LearningCoursePut(course); err != nil {
		return nil, err
	}
	cfg.TotalCourses = saturatingAdd(cfg.TotalCourses, 1)
	if err := e.state.LearningProgramPut(cfg); err != nil {
		return nil, err
	}
	e.emit(CourseRegisteredEvent(course))
	return course.Clone(), nil
}

// UpdateCourse applies the present fields of update after validating all of
// them.
func (e *Engine) UpdateCourse(caller [20]byte, id string, update CourseUpdate) (*Course, error) {
	if _, err := e.loadProgram(); err != nil {
		return nil, err
	}
	course, ok, err := e.state.LearningCourseGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || course == nil {
		return nil, ErrCourseNotFound
	}
	if caller != course.Authority {
		return nil, ErrUnauthorized
	}
	if err := validateCourseFields(update.Title, update.Description, update.RequiredScore); err != nil {
		return nil, err
	}
	if update.Empty() {
		return course.Clone(), nil
	}
	var fields []string
	if update.Title != nil {
		course.Title = *update.Title
		fields = append(fields, "title")
	}
	if update.Description != nil {
		course.Description = *update.Description
		fields = append(fields, "description")
	}
	if update.RewardAmount != nil {
		course.RewardAmount = *update.RewardAmount
		fields = append(fields, "rewardAmount")
	}
	if update.RequiredScore != nil {
		course.RequiredScore = *update.RequiredScore
		fields = append(fields, "requiredScore")
	}
	if update.Active != nil {
		course.Active = *update.Active
		fields = append(fields, "active")
	}
	if err := e.state.LearningCoursePut(course); err != nil {
		return nil, err
	}
	e.emit(CourseUpdatedEvent(course, fields))
	return course.Clone(), nil
}

// Course returns the course registered under id.
func (e *Engine) Course(id string) (*Course, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	course, ok, err := e.state.LearningCourseGet(id)
	if err != nil {
		return nil, err
	}
	if !ok || course == nil {
		return nil, ErrCourseNotFound
	}
	return course, nil
}

// RegisterLearner creates the learner profile for the caller's wallet.
func (e *Engine) RegisterLearner(caller [20]byte, name string) (*Learner, error) {
	cfg, err := e.loadProgram()
	if err != nil {
		return nil, err
	}
	if len(name) > MaxLearnerNameLength {
		return nil, ErrLearnerNameTooLong
	}
	if _, exists, err := e.state.LearningLearnerGet(caller); err != nil {
		return nil, err
	} else if exists {
		return nil, ErrLearnerExists
	}
	now := e.now()
	learner := &Learner{
		Wallet:       caller,
		Name:         name,
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := e.state.LearningLearnerPut(learner); err != nil {
		return nil, err
	}
	cfg.TotalLearners = saturatingAdd(cfg.TotalLearners, 1)
	if err := e.state.LearningProgramPut(cfg); err != nil {
		return nil, err
	}
	e.emit(LearnerRegisteredEvent(learner))
	return learner.Clone(), nil
}

// Learner returns the profile registered for wallet.
func (e *Engine) Learner(wallet [20]byte) (*Learner, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	learner, ok, err := e.state.LearningLearnerGet(wallet)
	if err != nil {
		return nil, err
	}
	if !ok || learner == nil {
		return nil, ErrLearnerNotFound
	}
	return learner, nil
}

// Completion returns the record for (learner, course id). A pair with no
// record is reported with status absent.
func (e *Engine) Completion(learner [20]byte, courseID string) (*CompletionRecord, error) {
	if e == nil || e.state == nil {
		return nil, ErrNilState
	}
	course := CourseAddress(courseID)
	record, ok, err := e.state.LearningCompletionGet(course, learner)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		return &CompletionRecord{Learner: learner, Course: course, CourseID: courseID, Status: CompletionAbsent}, nil
	}
	return record, nil
}

// CompleteCourse records a passing score and mints the course reward to the
// learner. Any failure, including a failed mint, leaves the caller responsible
// for discarding the staged writes.
func (e *Engine) CompleteCourse(caller [20]byte, params CompletionParams) (*CompletionRecord, error) {
	cfg, err := e.loadProgram()
	if err != nil {
		return nil, err
	}
	if cfg.Paused {
		return nil, ErrProgramPaused
	}
	course, ok, err := e.state.LearningCourseGet(params.CourseID)
	if err != nil {
		return nil, err
	}
	if !ok || course == nil {
		return nil, ErrCourseNotFound
	}
	learner, ok, err := e.state.LearningLearnerGet(params.Learner)
	if err != nil {
		return nil, err
	}
	if !ok || learner == nil {
		return nil, ErrLearnerNotFound
	}
	record, ok, err := e.state.LearningCompletionGet(course.Address, learner.Wallet)
	if err != nil {
		return nil, err
	}
	if !ok || record == nil {
		record = &CompletionRecord{Status: CompletionAbsent}
	}

	if !course.Active {
		return nil, ErrCourseInactive
	}
	if params.Score < course.RequiredScore {
		return nil, ErrScoreTooLow
	}
	if params.Score > MaxScore {
		return nil, ErrInvalidScore
	}
	if len(params.EvidenceHash) > MaxEvidenceHashLength {
		return nil, ErrEvidenceHashTooLong
	}
	if record.Completed() {
		return nil, ErrCourseAlreadyCompleted
	}
	if caller != learner.Wallet {
		return nil, ErrUnauthorized
	}
	if e.minter == nil {
		return nil, ErrMinterNotConfigured
	}
	if cfg.TokenMint != e.minter.MintAddress() {
		return nil, ErrTokenMintMismatch
	}

	now := e.now()
	xp := saturatingMul(uint64(params.Score), XPPerScorePoint)

	record.Learner = learner.Wallet
	record.Course = course.Address
	record.CourseID = course.ID
	record.Status = CompletionPending
	record.Score = params.Score
	record.EvidenceHash = params.EvidenceHash
	record.XPEarned = xp
	record.TokensEarned = course.RewardAmount
	if err := e.state.LearningCompletionPut(record); err != nil {
		return nil, err
	}

	learner.TotalXP = saturatingAdd(learner.TotalXP, xp)
	learner.CoursesCompleted = saturatingAdd(learner.CoursesCompleted, 1)
	learner.LastActivity = now
	if err := e.state.LearningLearnerPut(learner); err != nil {
		return nil, err
	}
	course.CompletedCount = saturatingAdd(course.CompletedCount, 1)
	if err := e.state.LearningCoursePut(course); err != nil {
		return nil, err
	}

	if err := e.minter.MintReward(learner.Wallet, course.RewardAmount); err != nil {
		return nil, fmt.Errorf("mint reward: %w", err)
	}

	record.Status = CompletionCompleted
	record.CompletedAt = now
	if err := e.state.LearningCompletionPut(record); err != nil {
		return nil, err
	}
	e.emit(CourseCompletedEvent(record))
	return record.Clone(), nil
}

func validateCourseID(id string) error {
	if len(id) == 0 {
		return ErrInvalidCourseID
	}
	if len(id) > MaxCourseIDLength {
		return ErrCourseIDTooLong
	}
	return nil
}

func validateCourseFields(title, description *string, requiredScore *uint8) error {
	if title != nil && len(*title) > MaxCourseTitleLength {
		return ErrCourseTitleTooLong
	}
	if description != nil && len(*description) > MaxCourseDescriptionLength {
		return ErrCourseDescriptionTooLong
	}
	if requiredScore != nil && *requiredScore > MaxScore {
		return ErrInvalidRequiredScore
	}
	return nil
}
