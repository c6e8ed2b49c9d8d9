package service

import (
	"encoding/json"
	"testing"

	"examforge_backend/internal/model"
)

func radioQuestion(points float64) *model.SnapshotQuestion {
	return &model.SnapshotQuestion{
		ID: 1, Type: model.QuestionRadio, Points: points,
		Options: []model.SnapshotOption{
			{ID: 1, Text: "a"},
			{ID: 2, Text: "b", IsCorrect: true},
			{ID: 3, Text: "c"},
		},
	}
}

func checkboxQuestion(points float64) *model.SnapshotQuestion {
	return &model.SnapshotQuestion{
		ID: 2, Type: model.QuestionCheckbox, Points: points,
		Options: []model.SnapshotOption{
			{ID: 1, Text: "a", IsCorrect: true},
			{ID: 2, Text: "b"},
			{ID: 3, Text: "c", IsCorrect: true},
			{ID: 4, Text: "d"},
		},
	}
}

func TestScoreSingleChoice(t *testing.T) {
	tests := []struct {
		name        string
		selected    []uint
		wantCorrect bool
		wantPoints  float64
	}{
		{"correct option", []uint{2}, true, 10},
		{"wrong option", []uint{1}, false, 0},
		{"multiple selected", []uint{1, 2}, false, 0},
		{"nothing selected", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAnswer(radioQuestion(10), AnswerPayload{SelectedOptionIDs: tt.selected})
			if got.IsCorrect == nil || *got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.wantCorrect)
			}
			if got.PointsEarned != tt.wantPoints {
				t.Errorf("PointsEarned = %v, want %v", got.PointsEarned, tt.wantPoints)
			}
		})
	}
}

func TestScoreCheckboxPartialCredit(t *testing.T) {
	// 正确项 {1,3}，部分给分公式 max(0, (对选-错选)/正确项数) * points
	tests := []struct {
		name        string
		selected    []uint
		wantCorrect bool
		wantPoints  float64
	}{
		{"all correct", []uint{1, 3}, true, 10},
		{"one correct missing one", []uint{1}, false, 5},
		{"one correct one wrong cancels out", []uint{1, 2}, false, 0},
		{"all correct plus one wrong", []uint{1, 3, 2}, false, 5},
		{"only wrong clamps to zero", []uint{2, 4}, false, 0},
		{"duplicates count once", []uint{1, 1, 3}, true, 10},
		{"nothing selected", nil, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAnswer(checkboxQuestion(10), AnswerPayload{SelectedOptionIDs: tt.selected})
			if got.IsCorrect == nil || *got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.wantCorrect)
			}
			if got.PointsEarned != tt.wantPoints {
				t.Errorf("PointsEarned = %v, want %v", got.PointsEarned, tt.wantPoints)
			}
		})
	}
}

func TestScoreText(t *testing.T) {
	key := func(exact bool, kws ...string) json.RawMessage {
		raw, _ := json.Marshal(model.TextAnswerKey{Keywords: kws, ExactMatch: exact})
		return raw
	}

	tests := []struct {
		name        string
		answerKey   json.RawMessage
		text        string
		wantCorrect *bool
		wantManual  bool
	}{
		{"substring hit", key(false, "goroutine"), "a goroutine is lightweight", boolPtr(true), false},
		{"substring miss", key(false, "goroutine"), "threads only", boolPtr(false), false},
		{"exact hit ignores case and spaces", key(true, "Channel"), "  channel ", boolPtr(true), false},
		{"exact rejects superstring", key(true, "channel"), "channels", boolPtr(false), false},
		{"second keyword hits", key(false, "mutex", "lock"), "use a lock here", boolPtr(true), false},
		{"no keywords goes manual", key(false), "anything", nil, true},
		{"missing answer key goes manual", nil, "anything", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &model.SnapshotQuestion{ID: 3, Type: model.QuestionText, Points: 5, CorrectAnswer: tt.answerKey}
			got := ScoreAnswer(q, AnswerPayload{TextValue: tt.text})
			if got.NeedsManual != tt.wantManual {
				t.Fatalf("NeedsManual = %v, want %v", got.NeedsManual, tt.wantManual)
			}
			if tt.wantCorrect == nil {
				if got.IsCorrect != nil {
					t.Errorf("IsCorrect = %v, want nil", *got.IsCorrect)
				}
				return
			}
			if got.IsCorrect == nil || *got.IsCorrect != *tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, *tt.wantCorrect)
			}
		})
	}
}

func TestScoreMatching(t *testing.T) {
	raw, _ := json.Marshal(model.MatchingAnswerKey{"l1": "r1", "l2": "r2", "l3": "r3", "l4": "r4"})
	q := &model.SnapshotQuestion{ID: 4, Type: model.QuestionMatching, Points: 8, CorrectAnswer: raw}

	tests := []struct {
		name        string
		given       string
		wantCorrect bool
		wantPoints  float64
	}{
		{"all pairs", `{"l1":"r1","l2":"r2","l3":"r3","l4":"r4"}`, true, 8},
		{"half pairs", `{"l1":"r1","l2":"r2","l3":"r4","l4":"r3"}`, false, 4},
		{"no answer", ``, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAnswer(q, AnswerPayload{StructuredValue: json.RawMessage(tt.given)})
			if got.IsCorrect == nil || *got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.wantCorrect)
			}
			if got.PointsEarned != tt.wantPoints {
				t.Errorf("PointsEarned = %v, want %v", got.PointsEarned, tt.wantPoints)
			}
		})
	}
}

func TestScoreOrdering(t *testing.T) {
	raw, _ := json.Marshal(model.OrderingAnswerKey{"s1", "s2", "s3"})
	q := &model.SnapshotQuestion{ID: 5, Type: model.QuestionOrdering, Points: 9, CorrectAnswer: raw}

	tests := []struct {
		name        string
		given       string
		wantCorrect bool
		wantPoints  float64
	}{
		{"exact order", `["s1","s2","s3"]`, true, 9},
		// 位置比对：后两项互换只有第一项得分
		{"last two swapped", `["s1","s3","s2"]`, false, 3},
		{"fully reversed", `["s3","s2","s1"]`, false, 3},
		{"wrong length", `["s1","s2"]`, false, 0},
		{"no answer", ``, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreAnswer(q, AnswerPayload{StructuredValue: json.RawMessage(tt.given)})
			if got.IsCorrect == nil || *got.IsCorrect != tt.wantCorrect {
				t.Errorf("IsCorrect = %v, want %v", got.IsCorrect, tt.wantCorrect)
			}
			if got.PointsEarned != tt.wantPoints {
				t.Errorf("PointsEarned = %v, want %v", got.PointsEarned, tt.wantPoints)
			}
		})
	}
}

func TestScoreTextareaGoesManual(t *testing.T) {
	q := &model.SnapshotQuestion{ID: 6, Type: model.QuestionTextarea, Points: 20}
	got := ScoreAnswer(q, AnswerPayload{TextValue: "an essay"})
	if !got.NeedsManual {
		t.Fatal("TEXTAREA should need manual grading")
	}
	if got.IsCorrect != nil {
		t.Errorf("IsCorrect = %v, want nil", *got.IsCorrect)
	}
	if got.PointsEarned != 0 {
		t.Errorf("PointsEarned = %v, want 0", got.PointsEarned)
	}
}
