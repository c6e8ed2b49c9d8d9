package service

import (
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
)

// SubmissionService 负责交卷：原子地把 attempt 置为完成态并触发自动评分。
type SubmissionService struct {
	Exams     ExamStore
	Attempts  AttemptStore
	Answers   AnswerStore
	Snapshots SnapshotProvider
	Grading   *GradingService

	clock func() time.Time
}

func NewSubmissionService(exams ExamStore, attempts AttemptStore, answers AnswerStore, snapshots SnapshotProvider, grading *GradingService) *SubmissionService {
	return &SubmissionService{
		Exams:     exams,
		Attempts:  attempts,
		Answers:   answers,
		Snapshots: snapshots,
		Grading:   grading,
		clock:     time.Now,
	}
}

// Submit 提交作答。重复提交返回 Conflict；并发重复提交由存储层的
// 条件更新兜底，评分只会执行一次。
func (s *SubmissionService) Submit(attemptID uint) (*SubmissionOutcome, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	exam, err := s.Exams.FindByID(attempt.ExamID)
	if err != nil {
		return nil, err
	}
	return s.submitAttempt(attempt, exam)
}

// submitAttempt 共享的提交路径，也被限时到期的强制交卷复用。
func (s *SubmissionService) submitAttempt(attempt *model.ExamAttempt, exam *model.Exam) (*SubmissionOutcome, error) {
	now := s.clock()
	timeSpent := int(now.Sub(attempt.StartedAt).Seconds())

	won, err := s.Attempts.Complete(attempt.ID, now, timeSpent)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, util.ErrAttemptCompleted
	}
	attempt.CompletedAt = &now
	attempt.TimeSpentSeconds = timeSpent

	if !exam.AutoGrade {
		return &SubmissionOutcome{AutoGraded: false}, nil
	}

	if err := s.Grading.GradeAttempt(attempt, exam); err != nil {
		return nil, err
	}
	return &SubmissionOutcome{
		AutoGraded: true,
		Score:      attempt.Score,
		MaxScore:   attempt.MaxScore,
		Percentage: attempt.Percentage(),
		Passed:     attempt.Passed,
	}, nil
}

// GetResult 按 exam.showResults 策略返回成绩视图：
// NEVER 不给任何分数细节；MANUAL 在出分（自动或人工）前隐藏；
// IMMEDIATE 直接给，细节随 allowReview；AFTER_DEADLINE 目前与 IMMEDIATE 行为一致。
func (s *SubmissionService) GetResult(attemptID uint) (*ResultView, error) {
	attempt, err := s.Attempts.FindByID(attemptID)
	if err != nil {
		return nil, err
	}
	if !attempt.Completed() {
		return nil, util.ErrAttemptNotCompleted
	}
	exam, err := s.Exams.FindByID(attempt.ExamID)
	if err != nil {
		return nil, err
	}

	view := &ResultView{
		AttemptID:        attempt.ID,
		CompletedAt:      attempt.CompletedAt,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
		AutoGraded:       attempt.AutoGraded,
	}

	answers, err := s.Answers.ListByAttempt(attempt.ID)
	if err != nil {
		return nil, err
	}

	visible := false
	switch exam.ShowResults {
	case model.ShowResultsNever:
		visible = false
	case model.ShowResultsManual:
		visible = attempt.AutoGraded || hasManualGrade(answers)
	case model.ShowResultsImmediate, model.ShowResultsAfterDeadline:
		visible = true
	}
	if !visible {
		return view, nil
	}

	view.ScoreVisible = true
	view.Score = attempt.Score
	view.MaxScore = attempt.MaxScore
	view.Percentage = attempt.Percentage()
	view.Passed = attempt.Passed

	if !exam.AllowReview {
		return view, nil
	}

	snap, err := s.Snapshots.Snapshot(attempt.VersionID)
	if err != nil {
		return nil, err
	}
	for _, a := range answers {
		av := AnswerResultView{
			QuestionID:   a.QuestionID,
			IsCorrect:    a.IsCorrect,
			PointsEarned: a.PointsEarned,
			Feedback:     a.Feedback,
		}
		if q := snap.Question(a.QuestionID); q != nil {
			av.Points = q.Points
		}
		view.Answers = append(view.Answers, av)
	}
	return view, nil
}

func hasManualGrade(answers []model.ExamAnswer) bool {
	for _, a := range answers {
		if a.IsCorrect != nil {
			return true
		}
	}
	return false
}
