package model

import "encoding/json"

// 题型常量，快照中的 Question.Type 取值
const (
	QuestionRadio     = "RADIO"
	QuestionCheckbox  = "CHECKBOX"
	QuestionTrueFalse = "TRUE_FALSE"
	QuestionText      = "TEXT"
	QuestionTextarea  = "TEXTAREA"
	QuestionMatching  = "MATCHING"
	QuestionOrdering  = "ORDERING"
)

// ExamSnapshot 是反序列化后的考试版本内容：有序的 section→question→option。
// 解析后的快照可被缓存并在多个 attempt 之间共享，绝不允许原地修改。
type ExamSnapshot struct {
	ExamID      uint              `json:"examId"`
	VersionID   uint              `json:"versionId"`
	TotalPoints float64           `json:"totalPoints"`
	Sections    []SnapshotSection `json:"sections"`
}

type SnapshotSection struct {
	ID        uint               `json:"id"`
	Title     string             `json:"title"`
	Questions []SnapshotQuestion `json:"questions"`
}

type SnapshotQuestion struct {
	ID            uint             `json:"id"`
	Type          string           `json:"type"`
	Text          string           `json:"text"`
	Points        float64          `json:"points"`
	Options       []SnapshotOption `json:"options,omitempty"`
	CorrectAnswer json.RawMessage  `json:"correctAnswer,omitempty"` // 题型相关结构，见 TextAnswerKey 等
	Feedback      string           `json:"feedback,omitempty"`
}

type SnapshotOption struct {
	ID        uint   `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"` // 仅创建端可见，绝不下发给考生
}

// TextAnswerKey 是 TEXT 题 CorrectAnswer 的结构。
type TextAnswerKey struct {
	Keywords   []string `json:"keywords"`
	ExactMatch bool     `json:"exactMatch"`
}

// MatchingAnswerKey 是 MATCHING 题 CorrectAnswer 的结构：左项 id → 右项 id。
type MatchingAnswerKey map[string]string

// OrderingAnswerKey 是 ORDERING 题 CorrectAnswer 的结构：按正确顺序排列的条目 id。
type OrderingAnswerKey []string

// Question 在快照里按 id 查题。找不到返回 nil。
func (s *ExamSnapshot) Question(questionID uint) *SnapshotQuestion {
	for si := range s.Sections {
		for qi := range s.Sections[si].Questions {
			if s.Sections[si].Questions[qi].ID == questionID {
				return &s.Sections[si].Questions[qi]
			}
		}
	}
	return nil
}

// Questions 返回快照中所有题目的扁平列表，保持 section 顺序。
func (s *ExamSnapshot) Questions() []SnapshotQuestion {
	var out []SnapshotQuestion
	for _, sec := range s.Sections {
		out = append(out, sec.Questions...)
	}
	return out
}

// AutoGradable 判断单题是否可自动评分。TEXTAREA 和未配置关键词的 TEXT 需要人工。
func (q *SnapshotQuestion) AutoGradable() bool {
	switch q.Type {
	case QuestionRadio, QuestionTrueFalse, QuestionCheckbox, QuestionMatching, QuestionOrdering:
		return true
	case QuestionText:
		var key TextAnswerKey
		if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil {
			return false
		}
		return len(key.Keywords) > 0
	default:
		return false
	}
}
