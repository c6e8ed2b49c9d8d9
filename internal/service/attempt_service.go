package service

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/monitoring"
)

// ClientMeta 开考请求携带的客户端信息。
type ClientMeta struct {
	IPAddress string
	UserAgent string
}

// AttemptService 管理作答生命周期：配额校验、乱序、答案保存、限时检查。
// 限时到期是惰性检查的：只在下一次保存/提交时触发强制交卷，不用后台定时器。
type AttemptService struct {
	Exams      ExamStore
	Attempts   AttemptStore
	Answers    AnswerStore
	Snapshots  SnapshotProvider
	Submission *SubmissionService

	clock func() time.Time

	// rand.Rand 不能并发使用，乱序时持锁
	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewAttemptService(exams ExamStore, attempts AttemptStore, answers AnswerStore, snapshots SnapshotProvider, submission *SubmissionService) *AttemptService {
	return &AttemptService{
		Exams:      exams,
		Attempts:   attempts,
		Answers:    answers,
		Snapshots:  snapshots,
		Submission: submission,
		clock:      time.Now,
		rnd:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// CheckCanTake 返回某身份在该考试下的配额使用情况和未完成的 attempt。
func (s *AttemptService) CheckCanTake(examSlug string, identity model.AttemptIdentity) (*CanTakeResult, error) {
	exam, err := s.Exams.FindBySlug(examSlug)
	if err != nil {
		return nil, err
	}

	used, err := s.Attempts.CountByIdentity(exam.ID, identity.Key())
	if err != nil {
		return nil, err
	}

	result := &CanTakeResult{
		AttemptsUsed:      int(used),
		AttemptsRemaining: exam.MaxAttempts - int(used),
		CanTake:           exam.IsActive && exam.IsPublic && int(used) < exam.MaxAttempts,
	}
	if result.AttemptsRemaining < 0 {
		result.AttemptsRemaining = 0
	}

	open, err := s.Attempts.FindOpenByIdentity(exam.ID, identity.Key())
	if err != nil {
		return nil, err
	}
	if open != nil {
		id := open.ID
		result.PendingAttemptID = &id
	}
	return result, nil
}

// StartAttempt 创建一次作答：校验考试可用性与次数限制，固定当前版本快照，
// 按配置乱序后返回净化视图。计数-创建由 AttemptStore 原子完成，
// 并发开考不会超出 maxAttempts。
func (s *AttemptService) StartAttempt(examSlug string, identity model.AttemptIdentity, meta ClientMeta) (*AttemptView, error) {
	exam, err := s.Exams.FindBySlug(examSlug)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive || !exam.IsPublic {
		return nil, util.ErrExamNotAccessible
	}
	if exam.CurrentVersion == 0 {
		return nil, util.InternalErr(fmt.Errorf("exam %d has no published version", exam.ID))
	}

	snap, err := s.Snapshots.Snapshot(exam.CurrentVersion)
	if err != nil {
		return nil, err
	}

	attempt := &model.ExamAttempt{
		ExamID:       exam.ID,
		VersionID:    exam.CurrentVersion,
		IdentityKey:  identity.Key(),
		StudentEmail: identity.StudentEmail,
		IPAddress:    meta.IPAddress,
		UserAgent:    meta.UserAgent,
		StartedAt:    s.clock(),
		MaxScore:     snap.TotalPoints,
	}
	if err := s.Attempts.CreateWithinQuota(attempt, exam.MaxAttempts); err != nil {
		return nil, err
	}
	monitoring.AttemptsStarted.Inc()

	s.rndMu.Lock()
	ordered := randomizedSnapshot(s.rnd, snap, exam.ShuffleQuestions, exam.ShuffleOptions)
	s.rndMu.Unlock()
	return buildAttemptView(attempt, exam, ordered), nil
}

// SaveAnswer 按 (attempt, question) 覆盖式保存作答。限时已过时转为强制交卷
// 并返回 TimeExpired，本次内容不保存。
func (s *AttemptService) SaveAnswer(attemptID, questionID uint, payload AnswerPayload) error {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return err
	}
	if attempt.Completed() {
		return util.ErrAttemptCompleted
	}

	exam, err := s.Exams.FindByID(attempt.ExamID)
	if err != nil {
		return err
	}

	if s.expired(attempt, exam) {
		// 强制交卷路径复用提交的幂等保护，并发下也只评一次分
		if _, err := s.Submission.submitAttempt(attempt, exam); err != nil && util.KindOf(err) != util.KindConflict {
			return err
		}
		return util.ErrTimeExpired
	}

	snap, err := s.Snapshots.Snapshot(attempt.VersionID)
	if err != nil {
		return err
	}
	if snap.Question(questionID) == nil {
		return util.ErrQuestionNotFound
	}

	answer := &model.ExamAnswer{
		AttemptID:  attempt.ID,
		QuestionID: questionID,
		TextValue:  payload.TextValue,
	}
	if payload.SelectedOptionIDs != nil {
		raw, err := json.Marshal(payload.SelectedOptionIDs)
		if err != nil {
			return util.InternalErr(err)
		}
		answer.SelectedOptionIDs = string(raw)
	}
	if len(payload.StructuredValue) > 0 {
		answer.StructuredValue = string(payload.StructuredValue)
	}

	return s.Answers.Upsert(answer)
}

func (s *AttemptService) expired(attempt *model.ExamAttempt, exam *model.Exam) bool {
	if exam.TimeLimitSeconds <= 0 {
		return false
	}
	deadline := attempt.StartedAt.Add(time.Duration(exam.TimeLimitSeconds) * time.Second)
	return s.clock().After(deadline)
}

func buildAttemptView(attempt *model.ExamAttempt, exam *model.Exam, snap *model.ExamSnapshot) *AttemptView {
	view := &AttemptView{
		AttemptID:        attempt.ID,
		PublicID:         attempt.PublicID,
		ExamID:           exam.ID,
		ExamTitle:        exam.Title,
		AttemptNumber:    attempt.AttemptNumber,
		StartedAt:        attempt.StartedAt,
		TimeLimitSeconds: exam.TimeLimitSeconds,
		Sections:         make([]SectionView, 0, len(snap.Sections)),
	}
	for _, sec := range snap.Sections {
		sv := SectionView{ID: sec.ID, Title: sec.Title, Questions: make([]QuestionView, 0, len(sec.Questions))}
		for _, q := range sec.Questions {
			qv := QuestionView{ID: q.ID, Type: q.Type, Text: q.Text, Points: q.Points}
			for _, opt := range q.Options {
				// isCorrect 不下发
				qv.Options = append(qv.Options, OptionView{ID: opt.ID, Text: opt.Text})
			}
			sv.Questions = append(sv.Questions, qv)
		}
		view.Sections = append(view.Sections, sv)
	}
	return view
}
