package state

import (
	"testing"

	"github.com/stretchr/testify/require"

	"learnchain/native/learning"
	"learnchain/storage"
)

func newTestManager(t *testing.T) (*Manager, storage.Database) {
	t.Helper()
	db := storage.NewMemDB()
	manager, err := NewManager(db)
	require.NoError(t, err)
	return manager, db
}

func TestNewManagerRequiresDatabase(t *testing.T) {
	_, err := NewManager(nil)
	require.ErrorIs(t, err, ErrNilDatabase)
}

func TestManagerStagesUntilCommit(t *testing.T) {
	manager, db := newTestManager(t)
	mem := db.(*storage.MemDB)
	key := prefixedKey(nil, []byte("alpha"))

	require.NoError(t, manager.putRLP(key, uint64(7)))
	var got uint64
	ok, err := manager.getRLP(key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), got)
	require.Equal(t, 0, mem.Len(), "staged write must not reach the database")

	require.NoError(t, manager.Commit())
	require.Equal(t, 1, mem.Len())
	require.Empty(t, manager.staged)

	fresh, err := NewManager(db)
	require.NoError(t, err)
	got = 0
	ok, err = fresh.getRLP(key, &got)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(7), got)
}

func TestManagerDiscardDropsWrites(t *testing.T) {
	manager, db := newTestManager(t)
	require.NoError(t, manager.LearningProgramPut(&learning.ProgramConfig{Authority: [20]byte{1}, TokenMint: [20]byte{2}}))
	manager.Discard()
	_, ok, err := manager.LearningProgramGet()
	require.NoError(t, err)
	require.False(t, ok)
	require.NoError(t, manager.Commit())
	require.Equal(t, 0, db.(*storage.MemDB).Len())
}

func TestManagerStagedWriteShadowsDatabase(t *testing.T) {
	manager, _ := newTestManager(t)
	wallet := [20]byte{0xaa}
	require.NoError(t, manager.SetAccountNonce(wallet, 1))
	require.NoError(t, manager.Commit())

	require.NoError(t, manager.SetAccountNonce(wallet, 2))
	nonce, err := manager.AccountNonce(wallet)
	require.NoError(t, err)
	require.Equal(t, uint64(2), nonce)

	manager.Discard()
	nonce, err = manager.AccountNonce(wallet)
	require.NoError(t, err)
	require.Equal(t, uint64(1), nonce)
}

func TestManagerCommitsToLevelDB(t *testing.T) {
	path := t.TempDir()
	db, err := storage.NewLevelDB(path)
	require.NoError(t, err)

	manager, err := NewManager(db)
	require.NoError(t, err)
	course := &learning.Course{
		ID:            "rust101",
		Address:       learning.CourseAddress("rust101"),
		Authority:     [20]byte{0xaa},
		Title:         "Rust 101",
		RewardAmount:  500,
		RequiredScore: 70,
		Active:        true,
		CreatedAt:     1_700_000_000,
	}
	require.NoError(t, manager.LearningCoursePut(course))
	require.NoError(t, manager.SetAccountNonce([20]byte{0xaa}, 3))
	require.NoError(t, manager.Commit())
	db.Close()

	reopened, err := storage.NewLevelDB(path)
	require.NoError(t, err)
	defer reopened.Close()
	manager, err = NewManager(reopened)
	require.NoError(t, err)
	got, ok, err := manager.LearningCourseGet("rust101")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, course, got)
	nonce, err := manager.AccountNonce([20]byte{0xaa})
	require.NoError(t, err)
	require.Equal(t, uint64(3), nonce)
}

func TestLearningRecordsRoundTrip(t *testing.T) {
	manager, _ := newTestManager(t)
	learner := &learning.Learner{Wallet: [20]byte{1}, Name: "ada", TotalXP: 800, CoursesCompleted: 1, CreatedAt: 10, LastActivity: 20}
	require.NoError(t, manager.LearningLearnerPut(learner))
	record := &learning.CompletionRecord{
		Learner:      learner.Wallet,
		Course:       learning.CourseAddress("rust101"),
		CourseID:     "rust101",
		Status:       learning.CompletionCompleted,
		Score:        80,
		EvidenceHash: "bafy",
		CompletedAt:  20,
		XPEarned:     800,
		TokensEarned: 500,
	}
	require.NoError(t, manager.LearningCompletionPut(record))
	require.NoError(t, manager.Commit())

	gotLearner, ok, err := manager.LearningLearnerGet(learner.Wallet)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, learner, gotLearner)

	gotRecord, ok, err := manager.LearningCompletionGet(record.Course, record.Learner)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, record, gotRecord)

	_, ok, err = manager.LearningCompletionGet(learning.CourseAddress("other"), record.Learner)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestAccountNonceDefaultsToZero(t *testing.T) {
	manager, _ := newTestManager(t)
	nonce, err := manager.AccountNonce([20]byte{9})
	require.NoError(t, err)
	require.Zero(t, nonce)
}
