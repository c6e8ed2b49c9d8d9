package service

import (
	"encoding/json"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"
	"examforge_backend/pkg/monitoring"
)

// GradingService 自动评分与人工评分改判。所有评分都以 attempt 创建时固定的
// 版本快照为准，考试定义后续再怎么改都不影响已有作答。
type GradingService struct {
	Exams     ExamStore
	Attempts  AttemptStore
	Answers   AnswerStore
	Snapshots SnapshotProvider

	clock func() time.Time
}

func NewGradingService(exams ExamStore, attempts AttemptStore, answers AnswerStore, snapshots SnapshotProvider) *GradingService {
	return &GradingService{
		Exams:     exams,
		Attempts:  attempts,
		Answers:   answers,
		Snapshots: snapshots,
		clock:     time.Now,
	}
}

// GradeAttempt 逐题评分并持久化：写每题的 isCorrect/pointsEarned/feedback，
// 汇总成 attempt.score，按百分比阈值判定 passed。
func (s *GradingService) GradeAttempt(attempt *model.ExamAttempt, exam *model.Exam) error {
	start := s.clock()

	snap, err := s.Snapshots.Snapshot(attempt.VersionID)
	if err != nil {
		return err
	}
	answers, err := s.Answers.ListByAttempt(attempt.ID)
	if err != nil {
		return err
	}

	total := 0.0
	for i := range answers {
		q := snap.Question(answers[i].QuestionID)
		var result ScoreResult
		if q == nil {
			// 快照里没有的题目无法判定，转人工
			result = manualResult("pending manual review")
		} else {
			result = ScoreAnswer(q, payloadFromAnswer(&answers[i]))
		}
		answers[i].IsCorrect = result.IsCorrect
		answers[i].PointsEarned = result.PointsEarned
		answers[i].Feedback = result.Feedback
		if err := s.Answers.SaveGrade(&answers[i]); err != nil {
			return err
		}
		total += result.PointsEarned
	}

	attempt.Score = total
	attempt.MaxScore = snap.TotalPoints
	attempt.Passed = attempt.Percentage() >= exam.PassingScore
	attempt.AutoGraded = true
	if err := s.Attempts.UpdateScore(attempt); err != nil {
		return err
	}

	monitoring.AttemptsGraded.Inc()
	monitoring.GradingDuration.Observe(s.clock().Sub(start).Seconds())
	return nil
}

// GradeManually 人工改判单题分数并重算整卷。
// isCorrect 按满分与否二值判定，不做比例折算，人工路径有意比自动路径简化。
func (s *GradingService) GradeManually(answerID uint, pointsEarned float64, feedback string) error {
	answer, err := s.Answers.FindByID(answerID)
	if err != nil {
		return err
	}
	attempt, err := s.Attempts.FindByID(answer.AttemptID)
	if err != nil {
		return err
	}

	snap, err := s.Snapshots.Snapshot(attempt.VersionID)
	if err != nil {
		return err
	}
	question := snap.Question(answer.QuestionID)
	if question == nil {
		return util.ErrQuestionNotFound
	}

	if pointsEarned < 0 || pointsEarned > question.Points {
		return util.ValidationErr("pointsEarned must be between 0 and %g", question.Points)
	}

	isCorrect := pointsEarned == question.Points
	answer.IsCorrect = &isCorrect
	answer.PointsEarned = pointsEarned
	answer.Feedback = feedback
	if err := s.Answers.SaveGrade(answer); err != nil {
		return err
	}

	return s.recalculate(attempt)
}

// recalculate 把 attempt.score 重算为所有答案 pointsEarned 之和并更新 passed。
func (s *GradingService) recalculate(attempt *model.ExamAttempt) error {
	exam, err := s.Exams.FindByID(attempt.ExamID)
	if err != nil {
		return err
	}
	answers, err := s.Answers.ListByAttempt(attempt.ID)
	if err != nil {
		return err
	}

	total := 0.0
	for _, a := range answers {
		total += a.PointsEarned
	}
	attempt.Score = total
	attempt.Passed = attempt.Percentage() >= exam.PassingScore
	return s.Attempts.UpdateScore(attempt)
}

// ListPendingManual 列出指定考试下等待人工评分的已完成作答。
func (s *GradingService) ListPendingManual(examID uint) ([]model.ExamAttempt, error) {
	if _, err := s.Exams.FindByID(examID); err != nil {
		return nil, err
	}
	return s.Attempts.ListPendingManual(examID)
}

// ListPendingManualBySlug 按 slug 定位考试后列出待评分作答，给 HTTP 层用。
func (s *GradingService) ListPendingManualBySlug(slug string) ([]model.ExamAttempt, error) {
	exam, err := s.Exams.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.Attempts.ListPendingManual(exam.ID)
}

func payloadFromAnswer(a *model.ExamAnswer) AnswerPayload {
	payload := AnswerPayload{TextValue: a.TextValue}
	if a.SelectedOptionIDs != "" {
		// 解析失败按未选处理
		_ = json.Unmarshal([]byte(a.SelectedOptionIDs), &payload.SelectedOptionIDs)
	}
	if a.StructuredValue != "" {
		payload.StructuredValue = json.RawMessage(a.StructuredValue)
	}
	return payload
}
