package service

import "time"

// 下发给考生/调用方的视图结构。作答视图一律不含 isCorrect 和 correctAnswer。

type OptionView struct {
	ID   uint   `json:"id"`
	Text string `json:"text"`
}

type QuestionView struct {
	ID      uint         `json:"id"`
	Type    string       `json:"type"`
	Text    string       `json:"text"`
	Points  float64      `json:"points"`
	Options []OptionView `json:"options,omitempty"`
}

type SectionView struct {
	ID        uint           `json:"id"`
	Title     string         `json:"title"`
	Questions []QuestionView `json:"questions"`
}

// AttemptView 开考返回的作答句柄：乱序后的净化快照加上计时信息。
type AttemptView struct {
	AttemptID        uint          `json:"attemptId"`
	PublicID         string        `json:"publicId"`
	ExamID           uint          `json:"examId"`
	ExamTitle        string        `json:"examTitle"`
	AttemptNumber    int           `json:"attemptNumber"`
	StartedAt        time.Time     `json:"startedAt"`
	TimeLimitSeconds int           `json:"timeLimitSeconds"`
	Sections         []SectionView `json:"sections"`
}

// CanTakeResult 配额查询结果。
type CanTakeResult struct {
	CanTake           bool  `json:"canTake"`
	AttemptsUsed      int   `json:"attemptsUsed"`
	AttemptsRemaining int   `json:"attemptsRemaining"`
	PendingAttemptID  *uint `json:"pendingAttemptId,omitempty"`
}

// SubmissionOutcome 提交结果。非自动评分时只有 autoGraded=false。
type SubmissionOutcome struct {
	AutoGraded bool    `json:"autoGraded"`
	Score      float64 `json:"score,omitempty"`
	MaxScore   float64 `json:"maxScore,omitempty"`
	Percentage float64 `json:"percentage,omitempty"`
	Passed     bool    `json:"passed,omitempty"`
}

// AnswerResultView 成绩详情里的单题视图。
type AnswerResultView struct {
	QuestionID   uint    `json:"questionId"`
	IsCorrect    *bool   `json:"isCorrect"`
	PointsEarned float64 `json:"pointsEarned"`
	Points       float64 `json:"points"`
	Feedback     string  `json:"feedback,omitempty"`
}

// ResultView 成绩视图，detail 是否下发由 exam.showResults 策略决定。
type ResultView struct {
	AttemptID        uint               `json:"attemptId"`
	CompletedAt      *time.Time         `json:"completedAt,omitempty"`
	TimeSpentSeconds int                `json:"timeSpentSeconds"`
	AutoGraded       bool               `json:"autoGraded"`
	ScoreVisible     bool               `json:"scoreVisible"`
	Score            float64            `json:"score,omitempty"`
	MaxScore         float64            `json:"maxScore,omitempty"`
	Percentage       float64            `json:"percentage,omitempty"`
	Passed           bool               `json:"passed,omitempty"`
	Answers          []AnswerResultView `json:"answers,omitempty"`
}

// QuestionStats 单题聚合。
type QuestionStats struct {
	QuestionID     uint    `json:"questionId"`
	TotalAnswers   int     `json:"totalAnswers"`
	CorrectAnswers int     `json:"correctAnswers"`
	AveragePoints  float64 `json:"averagePoints"`
	CorrectRate    float64 `json:"correctRate"`
}

// ExamStatsView 考试维度聚合，无完成记录时各项为零值。
type ExamStatsView struct {
	ExamID        uint            `json:"examId"`
	TotalAttempts int             `json:"totalAttempts"`
	AverageScore  float64         `json:"averageScore"`
	PassRate      float64         `json:"passRate"`
	MinScore      float64         `json:"minScore"`
	MaxScore      float64         `json:"maxScore"`
	Questions     []QuestionStats `json:"questions"`
}
