package service

import (
	"math/rand"
	"sync"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
)

// 内存版存储实现，行为对齐 internal/repository 的 gorm 实现：
// 缺行返回 util 的 NotFound 错误，CreateWithinQuota / Complete 在锁内做条件判断。

type memExamStore struct {
	mu    sync.Mutex
	exams map[uint]*model.Exam
}

func newMemExamStore(exams ...*model.Exam) *memExamStore {
	s := &memExamStore{exams: make(map[uint]*model.Exam)}
	for _, e := range exams {
		s.exams[e.ID] = e
	}
	return s
}

func (s *memExamStore) FindBySlug(slug string) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.exams {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, util.ErrExamNotFound
}

func (s *memExamStore) FindByID(id uint) (*model.Exam, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.exams[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, util.ErrExamNotFound
}

type memSnapshotProvider struct {
	snaps map[uint]*model.ExamSnapshot
}

func (p *memSnapshotProvider) Snapshot(versionID uint) (*model.ExamSnapshot, error) {
	if snap, ok := p.snaps[versionID]; ok {
		return snap, nil
	}
	return nil, util.ErrExamNotFound
}

type memAttemptStore struct {
	mu       sync.Mutex
	nextID   uint
	attempts map[uint]*model.ExamAttempt
}

func newMemAttemptStore() *memAttemptStore {
	return &memAttemptStore{attempts: make(map[uint]*model.ExamAttempt)}
}

func (s *memAttemptStore) CreateWithinQuota(attempt *model.ExamAttempt, maxAttempts int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	used := 0
	for _, a := range s.attempts {
		if a.ExamID == attempt.ExamID && a.IdentityKey == attempt.IdentityKey {
			used++
		}
	}
	if used >= maxAttempts {
		return util.ErrAttemptLimitReached
	}

	s.nextID++
	attempt.ID = s.nextID
	attempt.AttemptNumber = used + 1
	if attempt.PublicID == "" {
		attempt.PublicID = model.GenerateUUID()
	}
	cp := *attempt
	s.attempts[attempt.ID] = &cp
	return nil
}

func (s *memAttemptStore) FindByID(id uint) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.attempts[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, util.ErrAttemptNotFound
}

func (s *memAttemptStore) CountByIdentity(examID uint, identityKey string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, a := range s.attempts {
		if a.ExamID == examID && a.IdentityKey == identityKey {
			n++
		}
	}
	return n, nil
}

func (s *memAttemptStore) FindOpenByIdentity(examID uint, identityKey string) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.ExamID == examID && a.IdentityKey == identityKey && a.CompletedAt == nil {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memAttemptStore) Complete(attemptID uint, completedAt time.Time, timeSpentSeconds int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attemptID]
	if !ok {
		return false, util.ErrAttemptNotFound
	}
	if a.CompletedAt != nil {
		return false, nil
	}
	t := completedAt
	a.CompletedAt = &t
	a.TimeSpentSeconds = timeSpentSeconds
	return true, nil
}

func (s *memAttemptStore) UpdateScore(attempt *model.ExamAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.attempts[attempt.ID]
	if !ok {
		return util.ErrAttemptNotFound
	}
	a.Score = attempt.Score
	a.MaxScore = attempt.MaxScore
	a.Passed = attempt.Passed
	a.AutoGraded = attempt.AutoGraded
	return nil
}

func (s *memAttemptStore) ListCompletedByExam(examID uint) ([]model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ExamAttempt
	for id := uint(1); id <= s.nextID; id++ {
		if a, ok := s.attempts[id]; ok && a.ExamID == examID && a.CompletedAt != nil {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memAttemptStore) ListPendingManual(examID uint) ([]model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ExamAttempt
	for id := uint(1); id <= s.nextID; id++ {
		if a, ok := s.attempts[id]; ok && a.ExamID == examID && a.CompletedAt != nil && !a.AutoGraded {
			out = append(out, *a)
		}
	}
	return out, nil
}

type memAnswerStore struct {
	mu      sync.Mutex
	nextID  uint
	answers map[uint]*model.ExamAnswer
}

func newMemAnswerStore() *memAnswerStore {
	return &memAnswerStore{answers: make(map[uint]*model.ExamAnswer)}
}

func (s *memAnswerStore) Upsert(answer *model.ExamAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.answers {
		if a.AttemptID == answer.AttemptID && a.QuestionID == answer.QuestionID {
			a.TextValue = answer.TextValue
			a.SelectedOptionIDs = answer.SelectedOptionIDs
			a.StructuredValue = answer.StructuredValue
			answer.ID = a.ID
			return nil
		}
	}
	s.nextID++
	answer.ID = s.nextID
	cp := *answer
	s.answers[answer.ID] = &cp
	return nil
}

func (s *memAnswerStore) ListByAttempt(attemptID uint) ([]model.ExamAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.ExamAnswer
	for id := uint(1); id <= s.nextID; id++ {
		if a, ok := s.answers[id]; ok && a.AttemptID == attemptID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memAnswerStore) ListByAttemptIDs(attemptIDs []uint) ([]model.ExamAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	want := make(map[uint]bool, len(attemptIDs))
	for _, id := range attemptIDs {
		want[id] = true
	}
	var out []model.ExamAnswer
	for id := uint(1); id <= s.nextID; id++ {
		if a, ok := s.answers[id]; ok && want[a.AttemptID] {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *memAnswerStore) FindByID(id uint) (*model.ExamAnswer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if a, ok := s.answers[id]; ok {
		cp := *a
		return &cp, nil
	}
	return nil, util.ErrAnswerNotFound
}

func (s *memAnswerStore) SaveGrade(answer *model.ExamAnswer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[answer.ID]
	if !ok {
		return util.ErrAnswerNotFound
	}
	a.IsCorrect = answer.IsCorrect
	a.PointsEarned = answer.PointsEarned
	a.Feedback = answer.Feedback
	return nil
}

// testEnv 把引擎各服务接到内存存储上，时钟可控。
type testEnv struct {
	exams      *memExamStore
	attempts   *memAttemptStore
	answers    *memAnswerStore
	snapshots  *memSnapshotProvider
	attempt    *AttemptService
	submission *SubmissionService
	grading    *GradingService
	stats      *StatsService
	now        time.Time
}

func newTestEnv(exam *model.Exam, snap *model.ExamSnapshot) *testEnv {
	env := &testEnv{
		exams:     newMemExamStore(exam),
		attempts:  newMemAttemptStore(),
		answers:   newMemAnswerStore(),
		snapshots: &memSnapshotProvider{snaps: map[uint]*model.ExamSnapshot{exam.CurrentVersion: snap}},
		now:       time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
	}

	clock := func() time.Time { return env.now }

	env.grading = NewGradingService(env.exams, env.attempts, env.answers, env.snapshots)
	env.grading.clock = clock
	env.submission = NewSubmissionService(env.exams, env.attempts, env.answers, env.snapshots, env.grading)
	env.submission.clock = clock
	env.attempt = NewAttemptService(env.exams, env.attempts, env.answers, env.snapshots, env.submission)
	env.attempt.clock = clock
	env.attempt.rnd = rand.New(rand.NewSource(1))
	env.stats = NewStatsService(env.exams, env.attempts, env.answers)
	return env
}

func (e *testEnv) advance(d time.Duration) {
	e.now = e.now.Add(d)
}

// defaultExam 返回一份接近生产默认值的考试配置，场景按需覆写字段。
func defaultExam() *model.Exam {
	e := &model.Exam{
		Slug:           "go-basics",
		Title:          "Go 基础测验",
		IsActive:       true,
		IsPublic:       true,
		MaxAttempts:    2,
		PassingScore:   60,
		AutoGrade:      true,
		ShowResults:    model.ShowResultsImmediate,
		AllowReview:    true,
		CurrentVersion: 10,
	}
	e.ID = 1
	return e
}

func defaultSnapshot() *model.ExamSnapshot {
	return &model.ExamSnapshot{
		ExamID:      1,
		VersionID:   10,
		TotalPoints: 20,
		Sections: []model.SnapshotSection{
			{
				ID:    1,
				Title: "选择题",
				Questions: []model.SnapshotQuestion{
					{
						ID: 101, Type: model.QuestionRadio, Text: "1+1=?", Points: 10,
						Options: []model.SnapshotOption{
							{ID: 1, Text: "1"},
							{ID: 2, Text: "2", IsCorrect: true},
							{ID: 3, Text: "3"},
						},
					},
					{
						ID: 102, Type: model.QuestionCheckbox, Text: "偶数有哪些", Points: 10,
						Options: []model.SnapshotOption{
							{ID: 4, Text: "2", IsCorrect: true},
							{ID: 5, Text: "3"},
							{ID: 6, Text: "4", IsCorrect: true},
						},
					},
				},
			},
		},
	}
}
