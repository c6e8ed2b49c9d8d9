package service

import (
	"time"

	"examforge_backend/internal/model"
)

// 评分引擎依赖的存储接口。gorm 实现在 internal/repository，
// 单元测试用内存假实现，引擎本身不依赖具体数据库。
// 缺行一律返回 util 包里对应的 NotFound 错误，而不是驱动层错误。

type ExamStore interface {
	FindBySlug(slug string) (*model.Exam, error)
	FindByID(id uint) (*model.Exam, error)
}

// SnapshotProvider 提供某个版本的已解析快照。版本内容不可变，实现可以随意缓存。
type SnapshotProvider interface {
	Snapshot(versionID uint) (*model.ExamSnapshot, error)
}

type AttemptStore interface {
	// CreateWithinQuota 对同一身份原子地执行「计数-校验-创建」，
	// 到达 maxAttempts 时返回 util.ErrAttemptLimitReached，
	// 否则以 attemptNumber = 已用次数+1 落库。
	CreateWithinQuota(attempt *model.ExamAttempt, maxAttempts int) error
	FindByID(id uint) (*model.ExamAttempt, error)
	CountByIdentity(examID uint, identityKey string) (int64, error)
	// FindOpenByIdentity 返回该身份未完成的 attempt，没有则 (nil, nil)。
	FindOpenByIdentity(examID uint, identityKey string) (*model.ExamAttempt, error)
	// Complete 条件更新 completed_at IS NULL 的行，返回是否真的由本次调用关闭。
	// 并发重复提交只有一个调用方拿到 true。
	Complete(attemptID uint, completedAt time.Time, timeSpentSeconds int) (bool, error)
	UpdateScore(attempt *model.ExamAttempt) error
	ListCompletedByExam(examID uint) ([]model.ExamAttempt, error)
	ListPendingManual(examID uint) ([]model.ExamAttempt, error)
}

type AnswerStore interface {
	// Upsert 按 (attemptId, questionId) 整体覆盖作答内容，不做部分合并。
	Upsert(answer *model.ExamAnswer) error
	ListByAttempt(attemptID uint) ([]model.ExamAnswer, error)
	ListByAttemptIDs(attemptIDs []uint) ([]model.ExamAnswer, error)
	FindByID(id uint) (*model.ExamAnswer, error)
	// SaveGrade 只写评分字段（isCorrect/pointsEarned/feedback）。
	SaveGrade(answer *model.ExamAnswer) error
}
