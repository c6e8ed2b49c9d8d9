package service

import (
	"math/rand"

	"examforge_backend/internal/model"
)

// shuffleQuestions 返回乱序后的新切片，不改动输入。Fisher–Yates。
func shuffleQuestions(rnd *rand.Rand, questions []model.SnapshotQuestion) []model.SnapshotQuestion {
	out := make([]model.SnapshotQuestion, len(questions))
	copy(out, questions)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// shuffleOptions 返回乱序后的新切片，不改动输入。
func shuffleOptions(rnd *rand.Rand, options []model.SnapshotOption) []model.SnapshotOption {
	out := make([]model.SnapshotOption, len(options))
	copy(out, options)
	for i := len(out) - 1; i > 0; i-- {
		j := rnd.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// randomizedSnapshot 按考试配置生成本次作答用的快照副本。
// section 本身永不乱序；各 section 的题目、各题的选项独立乱序。
// 共享的缓存快照不会被改动。
func randomizedSnapshot(rnd *rand.Rand, snap *model.ExamSnapshot, shuffleQ, shuffleO bool) *model.ExamSnapshot {
	out := &model.ExamSnapshot{
		ExamID:      snap.ExamID,
		VersionID:   snap.VersionID,
		TotalPoints: snap.TotalPoints,
		Sections:    make([]model.SnapshotSection, len(snap.Sections)),
	}
	for si, sec := range snap.Sections {
		questions := make([]model.SnapshotQuestion, len(sec.Questions))
		copy(questions, sec.Questions)
		if shuffleQ {
			questions = shuffleQuestions(rnd, questions)
		}
		if shuffleO {
			for qi := range questions {
				questions[qi].Options = shuffleOptions(rnd, questions[qi].Options)
			}
		}
		out.Sections[si] = model.SnapshotSection{
			ID:        sec.ID,
			Title:     sec.Title,
			Questions: questions,
		}
	}
	return out
}
