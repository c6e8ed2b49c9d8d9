package model

// ExamAnswer 考生对单题的作答，(attempt_id, question_id) 唯一，保存时整体覆盖。
// IsCorrect 为 nil 表示未评分或等待人工评分；评分字段只由评分引擎或人工评分写入。
// swagger:model ExamAnswer
type ExamAnswer struct {
	BaseModel

	AttemptID  uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_attempt_question" json:"attemptId"`
	QuestionID uint `gorm:"type:bigint unsigned;uniqueIndex:idx_attempt_question" json:"questionId"`

	TextValue         string `gorm:"type:text" json:"textValue,omitempty"`
	SelectedOptionIDs string `gorm:"type:json" json:"selectedOptionIds,omitempty"` // JSON array of option ids
	StructuredValue   string `gorm:"type:json" json:"structuredValue,omitempty"`   // MATCHING: 对象，ORDERING: 数组

	IsCorrect    *bool   `json:"isCorrect"`
	PointsEarned float64 `json:"pointsEarned"`
	Feedback     string  `gorm:"type:text" json:"feedback,omitempty"`
}

func (ExamAnswer) TableName() string {
	return "exam_answers"
}
