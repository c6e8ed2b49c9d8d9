package service

import "examforge_backend/internal/model"

// StatsService 跨 attempt 的聚合统计，只走读路径。
type StatsService struct {
	Exams    ExamStore
	Attempts AttemptStore
	Answers  AnswerStore
}

func NewStatsService(exams ExamStore, attempts AttemptStore, answers AnswerStore) *StatsService {
	return &StatsService{Exams: exams, Attempts: attempts, Answers: answers}
}

// ExamStatsBySlug 按 slug 定位考试后做聚合，给 HTTP 层用。
func (s *StatsService) ExamStatsBySlug(slug string) (*ExamStatsView, error) {
	exam, err := s.Exams.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	return s.examStats(exam)
}

// ExamStats 统计所有已完成的 attempt：数量、均分、通过率、最高最低分，
// 以及逐题的作答数/正确数/平均得分/正确率。没有完成记录时返回零值结构。
func (s *StatsService) ExamStats(examID uint) (*ExamStatsView, error) {
	exam, err := s.Exams.FindByID(examID)
	if err != nil {
		return nil, err
	}
	return s.examStats(exam)
}

func (s *StatsService) examStats(exam *model.Exam) (*ExamStatsView, error) {
	attempts, err := s.Attempts.ListCompletedByExam(exam.ID)
	if err != nil {
		return nil, err
	}

	stats := &ExamStatsView{ExamID: exam.ID, Questions: []QuestionStats{}}
	if len(attempts) == 0 {
		return stats, nil
	}

	stats.TotalAttempts = len(attempts)
	sum, passed := 0.0, 0
	min, max := attempts[0].Score, attempts[0].Score
	attemptIDs := make([]uint, 0, len(attempts))
	for _, a := range attempts {
		sum += a.Score
		if a.Passed {
			passed++
		}
		if a.Score < min {
			min = a.Score
		}
		if a.Score > max {
			max = a.Score
		}
		attemptIDs = append(attemptIDs, a.ID)
	}
	stats.AverageScore = sum / float64(len(attempts))
	stats.PassRate = float64(passed) / float64(len(attempts))
	stats.MinScore = min
	stats.MaxScore = max

	answers, err := s.Answers.ListByAttemptIDs(attemptIDs)
	if err != nil {
		return nil, err
	}

	type agg struct {
		total   int
		correct int
		points  float64
	}
	byQuestion := make(map[uint]*agg)
	var order []uint
	for _, a := range answers {
		entry, ok := byQuestion[a.QuestionID]
		if !ok {
			entry = &agg{}
			byQuestion[a.QuestionID] = entry
			order = append(order, a.QuestionID)
		}
		entry.total++
		if a.IsCorrect != nil && *a.IsCorrect {
			entry.correct++
		}
		entry.points += a.PointsEarned
	}

	for _, qid := range order {
		entry := byQuestion[qid]
		qs := QuestionStats{
			QuestionID:     qid,
			TotalAnswers:   entry.total,
			CorrectAnswers: entry.correct,
		}
		if entry.total > 0 {
			qs.AveragePoints = entry.points / float64(entry.total)
			qs.CorrectRate = float64(entry.correct) / float64(entry.total)
		}
		stats.Questions = append(stats.Questions, qs)
	}
	return stats, nil
}
