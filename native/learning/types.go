package learning

import "learnchain/crypto"

const (
	MaxCourseIDLength          = 20
	MaxCourseTitleLength       = 100
	MaxCourseDescriptionLength = 200
	MaxLearnerNameLength       = 50
	MaxEvidenceHashLength      = 64
	MaxScore                   = 100

	// XPPerScorePoint converts a passing score into experience points.
	XPPerScorePoint = 10
)

// ProgramConfig is the program-wide singleton.
type ProgramConfig struct {
	Authority     [20]byte `json:"authority"`
	TokenMint     [20]byte `json:"tokenMint"`
	TokenIssuer   [20]byte `json:"tokenIssuer"`
	TotalCourses  uint64   `json:"totalCourses"`
	TotalLearners uint64   `json:"totalLearners"`
	Paused        bool     `json:"paused"`
	CreatedAt     uint64   `json:"createdAt"`
}

// Clone returns a copy of the configuration.
func (p *ProgramConfig) Clone() *ProgramConfig {
	if p == nil {
		return nil
	}
	clone := *p
	return &clone
}

// ConfigUpdate lists the optional fields of an UpdateConfig call.
type ConfigUpdate struct {
	Authority *[20]byte
	Paused    *bool
}

// Empty reports whether the update changes nothing.
func (u ConfigUpdate) Empty() bool {
	return u.Authority == nil && u.Paused == nil
}

// Course holds per-course metadata and the completion counter.
type Course struct {
	ID             string   `json:"id"`
	Address        [20]byte `json:"address"`
	Authority      [20]byte `json:"authority"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	RewardAmount   uint64   `json:"rewardAmount"`
	RequiredScore  uint8    `json:"requiredScore"`
	Active         bool     `json:"active"`
	CompletedCount uint64   `json:"completedCount"`
	CreatedAt      uint64   `json:"createdAt"`
}

// Clone returns a copy of the course.
func (c *Course) Clone() *Course {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// CourseAddress derives the address that identifies a course in completion
// records.
func CourseAddress(id string) [20]byte {
	return crypto.DeriveAddress([]byte("course"), []byte(id))
}

// CourseParams describes a course registration.
type CourseParams struct {
	ID            string
	Title         string
	Description   string
	RewardAmount  uint64
	RequiredScore uint8
}

// CourseUpdate lists the optional fields of an UpdateCourse call.
type CourseUpdate struct {
	Title         *string
	Description   *string
	RewardAmount  *uint64
	RequiredScore *uint8
	Active        *bool
}

// Empty reports whether the update changes nothing.
func (u CourseUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.RewardAmount == nil && u.RequiredScore == nil && u.Active == nil
}

// Learner holds the aggregates for one wallet.
type Learner struct {
	Wallet           [20]byte `json:"wallet"`
	Name             string   `json:"name"`
	TotalXP          uint64   `json:"totalXp"`
	CoursesCompleted uint64   `json:"coursesCompleted"`
	CreatedAt        uint64   `json:"createdAt"`
	LastActivity     uint64   `json:"lastActivity"`
}

// Clone returns a copy of the learner.
func (l *Learner) Clone() *Learner {
	if l == nil {
		return nil
	}
	clone := *l
	return &clone
}

// CompletionStatus is the lifecycle of a (learner, course) record.
type CompletionStatus uint8

const (
	CompletionAbsent CompletionStatus = iota
	CompletionPending
	CompletionCompleted
)

func (s CompletionStatus) String() string {
	switch s {
	case CompletionAbsent:
		return "absent"
	case CompletionPending:
		return "pending"
	case CompletionCompleted:
		return "completed"
	default:
		return "unknown"
	}
}

// CompletionRecord proves a learner passed a course. Completed records are
// never modified.
type CompletionRecord struct {
	Learner      [20]byte         `json:"learner"`
	Course       [20]byte         `json:"course"`
	CourseID     string           `json:"courseId"`
	Status       CompletionStatus `json:"status"`
	Score        uint8            `json:"score"`
	EvidenceHash string           `json:"evidenceHash"`
	CompletedAt  uint64           `json:"completedAt"`
	XPEarned     uint64           `json:"xpEarned"`
	TokensEarned uint64           `json:"tokensEarned"`
}

// Completed reports whether the record reached its terminal state.
func (r *CompletionRecord) Completed() bool {
	return r != nil && r.Status == CompletionCompleted
}

// Clone returns a copy of the record.
func (r *CompletionRecord) Clone() *CompletionRecord {
	if r == nil {
		return nil
	}
	clone := *r
	return &clone
}

// CompletionParams describes a completion submission.
type CompletionParams struct {
	Learner      [20]byte
	CourseID     string
	Score        uint8
	EvidenceHash string
}
