package state

import "learnchain/native/learning"

type storedProgramConfig struct {
	Authority     [20]byte
	TokenMint     [20]byte
	TokenIssuer   [20]byte
	TotalCourses  uint64
	TotalLearners uint64
	Paused        bool
	CreatedAt     uint64
}

type storedCourse struct {
	ID             string
	Address        [20]byte
	Authority      [20]byte
	Title          string
	Description    string
	RewardAmount   uint64
	RequiredScore  uint8
	Active         bool
	CompletedCount uint64
	CreatedAt      uint64
}

type storedLearner struct {
	Wallet           [20]byte
	Name             string
	TotalXP          uint64
	CoursesCompleted uint64
	CreatedAt        uint64
	LastActivity     uint64
}

type storedCompletion struct {
	Learner      [20]byte
	Course       [20]byte
	CourseID     string
	Status       uint8
	Score        uint8
	EvidenceHash string
	CompletedAt  uint64
	XPEarned     uint64
	TokensEarned uint64
}

// LearningProgramGet loads the program singleton.
func (m *Manager) LearningProgramGet() (*learning.ProgramConfig, bool, error) {
	var stored storedProgramConfig
	ok, err := m.getRLP(learningProgramKey(), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &learning.ProgramConfig{
		Authority:     stored.Authority,
		TokenMint:     stored.TokenMint,
		TokenIssuer:   stored.TokenIssuer,
		TotalCourses:  stored.TotalCourses,
		TotalLearners: stored.TotalLearners,
		Paused:        stored.Paused,
		CreatedAt:     stored.CreatedAt,
	}, true, nil
}

// LearningProgramPut stages the program singleton.
func (m *Manager) LearningProgramPut(cfg *learning.ProgramConfig) error {
	if cfg == nil {
		return nil
	}
	return m.putRLP(learningProgramKey(), &storedProgramConfig{
		Authority:     cfg.Authority,
		TokenMint:     cfg.TokenMint,
		TokenIssuer:   cfg.TokenIssuer,
		TotalCourses:  cfg.TotalCourses,
		TotalLearners: cfg.TotalLearners,
		Paused:        cfg.Paused,
		CreatedAt:     cfg.CreatedAt,
	})
}

// LearningCourseGet loads the course registered under id.
func (m *Manager) LearningCourseGet(id string) (*learning.Course, bool, error) {
	var stored storedCourse
	ok, err := m.getRLP(learningCourseKey(id), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &learning.Course{
		ID:             stored.ID,
		Address:        stored.Address,
		Authority:      stored.Authority,
		Title:          stored.Title,
		Description:    stored.Description,
		RewardAmount:   stored.RewardAmount,
		RequiredScore:  stored.RequiredScore,
		Active:         stored.Active,
		CompletedCount: stored.CompletedCount,
		CreatedAt:      stored.CreatedAt,
	}, true, nil
}

// LearningCoursePut stages a course record.
func (m *Manager) LearningCoursePut(course *learning.Course) error {
	if course == nil {
		return nil
	}
	return m.putRLP(learningCourseKey(course.ID), &storedCourse{
		ID:             course.ID,
		Address:        course.Address,
		Authority:      course.Authority,
		Title:          course.Title,
		Description:    course.Description,
		RewardAmount:   course.RewardAmount,
		RequiredScore:  course.RequiredScore,
		Active:         course.Active,
		CompletedCount: course.CompletedCount,
		CreatedAt:      course.CreatedAt,
	})
}

// LearningLearnerGet loads the learner registered for wallet.
func (m *Manager) LearningLearnerGet(wallet [20]byte) (*learning.Learner, bool, error) {
	var stored storedLearner
	ok, err := m.getRLP(learningLearnerKey(wallet), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &learning.Learner{
		Wallet:           stored.Wallet,
		Name:             stored.Name,
		TotalXP:          stored.TotalXP,
		CoursesCompleted: stored.CoursesCompleted,
		CreatedAt:        stored.CreatedAt,
		LastActivity:     stored.LastActivity,
	}, true, nil
}

// LearningLearnerPut stages a learner record.
func (m *Manager) LearningLearnerPut(learner *learning.Learner) error {
	if learner == nil {
		return nil
	}
	return m.putRLP(learningLearnerKey(learner.Wallet), &storedLearner{
		Wallet:           learner.Wallet,
		Name:             learner.Name,
		TotalXP:          learner.TotalXP,
		CoursesCompleted: learner.CoursesCompleted,
		CreatedAt:        learner.CreatedAt,
		LastActivity:     learner.LastActivity,
	})
}

// LearningCompletionGet loads the completion record for (course, learner).
func (m *Manager) LearningCompletionGet(course, learner [20]byte) (*learning.CompletionRecord, bool, error) {
	var stored storedCompletion
	ok, err := m.getRLP(learningCompletionKey(course, learner), &stored)
	if err != nil || !ok {
		return nil, false, err
	}
	return &learning.CompletionRecord{
		Learner:      stored.Learner,
		Course:       stored.Course,
		CourseID:     stored.CourseID,
		Status:       learning.CompletionStatus(stored.Status),
		Score:        stored.Score,
		EvidenceHash: stored.EvidenceHash,
		CompletedAt:  stored.CompletedAt,
		XPEarned:     stored.XPEarned,
		TokensEarned: stored.TokensEarned,
	}, true, nil
}

// LearningCompletionPut stages a completion record.
func (m *Manager) LearningCompletionPut(record *learning.CompletionRecord) error {
	if record == nil {
		return nil
	}
	return m.putRLP(learningCompletionKey(record.Course, record.Learner), &storedCompletion{
		Learner:      record.Learner,
		Course:       record.Course,
		CourseID:     record.CourseID,
		Status:       uint8(record.Status),
		Score:        record.Score,
		EvidenceHash: record.EvidenceHash,
		CompletedAt:  record.CompletedAt,
		XPEarned:     record.XPEarned,
		TokensEarned: record.TokensEarned,
	})
}
