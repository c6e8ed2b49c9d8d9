package service

import (
	"encoding/json"
	"strings"

	"examforge_backend/internal/model"
)

// AnswerPayload 是考生对单题的作答内容，保存与评分共用。
type AnswerPayload struct {
	TextValue         string          `json:"textValue,omitempty"`
	SelectedOptionIDs []uint          `json:"selectedOptionIds,omitempty"`
	StructuredValue   json.RawMessage `json:"structuredValue,omitempty"`
}

// ScoreResult 单题评分结果。IsCorrect 为 nil 表示无法自动判定，转人工。
type ScoreResult struct {
	IsCorrect    *bool
	PointsEarned float64
	Feedback     string
	NeedsManual  bool
}

func boolPtr(b bool) *bool { return &b }

func manualResult(feedback string) ScoreResult {
	return ScoreResult{IsCorrect: nil, PointsEarned: 0, Feedback: feedback, NeedsManual: true}
}

// ScoreAnswer 按题型评分，结果确定且无随机性。
// 未知题型不给分并标记人工复核。
func ScoreAnswer(q *model.SnapshotQuestion, payload AnswerPayload) ScoreResult {
	switch q.Type {
	case model.QuestionRadio, model.QuestionTrueFalse:
		return scoreSingleChoice(q, payload.SelectedOptionIDs)
	case model.QuestionCheckbox:
		return scoreCheckbox(q, payload.SelectedOptionIDs)
	case model.QuestionText:
		return scoreText(q, payload.TextValue)
	case model.QuestionMatching:
		return scoreMatching(q, payload.StructuredValue)
	case model.QuestionOrdering:
		return scoreOrdering(q, payload.StructuredValue)
	default:
		return manualResult("pending manual review")
	}
}

// scoreSingleChoice RADIO/TRUE_FALSE：唯一选中项比对标记为正确的选项，全对或零分。
func scoreSingleChoice(q *model.SnapshotQuestion, selected []uint) ScoreResult {
	if len(selected) == 0 {
		return ScoreResult{IsCorrect: boolPtr(false), Feedback: "no option selected"}
	}

	var correctID uint
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correctID = opt.ID
			break
		}
	}

	if len(selected) == 1 && selected[0] == correctID && correctID != 0 {
		return ScoreResult{IsCorrect: boolPtr(true), PointsEarned: q.Points, Feedback: q.Feedback}
	}
	return ScoreResult{IsCorrect: boolPtr(false), Feedback: q.Feedback}
}

// scoreCheckbox 部分给分：max(0, (对选数-错选数)/正确项总数) * points。
func scoreCheckbox(q *model.SnapshotQuestion, selected []uint) ScoreResult {
	correctSet := make(map[uint]bool)
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correctSet[opt.ID] = true
		}
	}
	totalCorrect := len(correctSet)

	if len(selected) == 0 {
		return ScoreResult{IsCorrect: boolPtr(false), Feedback: "no option selected"}
	}
	if totalCorrect == 0 {
		return manualResult("question has no correct option configured")
	}

	correctSelected, incorrectSelected := 0, 0
	seen := make(map[uint]bool)
	for _, id := range selected {
		if seen[id] {
			continue
		}
		seen[id] = true
		if correctSet[id] {
			correctSelected++
		} else {
			incorrectSelected++
		}
	}

	if correctSelected == totalCorrect && incorrectSelected == 0 {
		return ScoreResult{IsCorrect: boolPtr(true), PointsEarned: q.Points, Feedback: q.Feedback}
	}

	earned := float64(correctSelected-incorrectSelected) / float64(totalCorrect) * q.Points
	if earned < 0 {
		earned = 0
	}
	return ScoreResult{IsCorrect: boolPtr(false), PointsEarned: earned, Feedback: q.Feedback}
}

// scoreText 关键词匹配：归一化（去空白、小写）后按 exactMatch 做全等或包含。
// 未配置关键词的 TEXT 无法自动判定，转人工。
func scoreText(q *model.SnapshotQuestion, text string) ScoreResult {
	var key model.TextAnswerKey
	if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil || len(key.Keywords) == 0 {
		return manualResult("pending manual review")
	}

	normalized := strings.ToLower(strings.TrimSpace(text))
	for _, kw := range key.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw == "" {
			continue
		}
		if key.ExactMatch {
			if normalized == kw {
				return ScoreResult{IsCorrect: boolPtr(true), PointsEarned: q.Points, Feedback: q.Feedback}
			}
		} else if strings.Contains(normalized, kw) {
			return ScoreResult{IsCorrect: boolPtr(true), PointsEarned: q.Points, Feedback: q.Feedback}
		}
	}
	return ScoreResult{IsCorrect: boolPtr(false), Feedback: q.Feedback}
}

// scoreMatching 逐对比对：得分 = 配对正确数/总对数 * points，全对才算正确。
func scoreMatching(q *model.SnapshotQuestion, structured json.RawMessage) ScoreResult {
	var key model.MatchingAnswerKey
	if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil || len(key) == 0 {
		return manualResult("pending manual review")
	}

	var given map[string]string
	if len(structured) > 0 {
		if err := json.Unmarshal(structured, &given); err != nil {
			return ScoreResult{IsCorrect: boolPtr(false), Feedback: "malformed answer"}
		}
	}

	matched := 0
	for left, right := range key {
		if given[left] == right {
			matched++
		}
	}

	earned := float64(matched) / float64(len(key)) * q.Points
	allMatch := matched == len(key)
	return ScoreResult{IsCorrect: boolPtr(allMatch), PointsEarned: earned, Feedback: q.Feedback}
}

// scoreOrdering 按位置比对（不是排列距离），长度不一致直接零分。
func scoreOrdering(q *model.SnapshotQuestion, structured json.RawMessage) ScoreResult {
	var key model.OrderingAnswerKey
	if err := json.Unmarshal(q.CorrectAnswer, &key); err != nil || len(key) == 0 {
		return manualResult("pending manual review")
	}

	var given []string
	if len(structured) > 0 {
		if err := json.Unmarshal(structured, &given); err != nil {
			return ScoreResult{IsCorrect: boolPtr(false), Feedback: "malformed answer"}
		}
	}
	if len(given) != len(key) {
		return ScoreResult{IsCorrect: boolPtr(false), Feedback: "incomplete order"}
	}

	matched := 0
	for i := range key {
		if given[i] == key[i] {
			matched++
		}
	}

	earned := float64(matched) / float64(len(key)) * q.Points
	return ScoreResult{IsCorrect: boolPtr(matched == len(key)), PointsEarned: earned, Feedback: q.Feedback}
}
