package service

import (
	"time"

	"examforge_backend/internal/util"
)

// ExamMetaView 考试公开元信息，不含题目内容和答案。
type ExamMetaView struct {
	Slug             string     `json:"slug"`
	Title            string     `json:"title"`
	Description      string     `json:"description"`
	TimeLimitSeconds int        `json:"timeLimitSeconds"`
	MaxAttempts      int        `json:"maxAttempts"`
	PassingScore     float64    `json:"passingScore"`
	QuestionCount    int        `json:"questionCount"`
	TotalPoints      float64    `json:"totalPoints"`
	Deadline         *time.Time `json:"deadline,omitempty"`
}

// ExamService 对外暴露考试元信息的读路径。
type ExamService struct {
	Exams     ExamStore
	Snapshots SnapshotProvider
}

func NewExamService(exams ExamStore, snapshots SnapshotProvider) *ExamService {
	return &ExamService{Exams: exams, Snapshots: snapshots}
}

// GetExamMeta 返回考试的公开元信息。未发布或未公开的考试对考生不可见，
// 统一返回不可访问错误，不泄露存在性。
func (s *ExamService) GetExamMeta(slug string) (*ExamMetaView, error) {
	exam, err := s.Exams.FindBySlug(slug)
	if err != nil {
		return nil, err
	}
	if !exam.IsActive || !exam.IsPublic {
		return nil, util.ErrExamNotAccessible
	}

	view := &ExamMetaView{
		Slug:             exam.Slug,
		Title:            exam.Title,
		Description:      exam.Description,
		TimeLimitSeconds: exam.TimeLimitSeconds,
		MaxAttempts:      exam.MaxAttempts,
		PassingScore:     exam.PassingScore,
		Deadline:         exam.Deadline,
	}

	if exam.CurrentVersion != 0 {
		snap, err := s.Snapshots.Snapshot(exam.CurrentVersion)
		if err != nil {
			return nil, err
		}
		view.QuestionCount = len(snap.Questions())
		view.TotalPoints = snap.TotalPoints
	}
	return view, nil
}
