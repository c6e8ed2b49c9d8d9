package repository

import (
	"errors"
	"time"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

// CreateWithinQuota 在一个事务里完成「锁行-计数-创建」。
// 对同一 (exam, identity) 的已有行加锁后计数，配合
// (exam_id, identity_key, attempt_number) 唯一索引，
// 并发开考也不会超出 maxAttempts。
func (r *AttemptRepository) CreateWithinQuota(attempt *model.ExamAttempt, maxAttempts int) error {
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&model.ExamAttempt{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("exam_id = ? AND identity_key = ?", attempt.ExamID, attempt.IdentityKey).
			Count(&count).Error; err != nil {
			return err
		}
		if maxAttempts > 0 && count >= int64(maxAttempts) {
			return util.ErrAttemptLimitReached
		}
		attempt.AttemptNumber = int(count) + 1
		return tx.Create(attempt).Error
	})
	if err != nil {
		if errors.Is(err, util.ErrAttemptLimitReached) {
			return util.ErrAttemptLimitReached
		}
		// 唯一索引冲突说明并发开考抢了同一个 attemptNumber，按配额竞争处理
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return util.ErrAttemptLimitReached
		}
		return util.InternalErr(err)
	}
	return nil
}

func (r *AttemptRepository) FindByID(id uint) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAttemptNotFound
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &a, nil
}

func (r *AttemptRepository) CountByIdentity(examID uint, identityKey string) (int64, error) {
	var count int64
	err := r.DB.Model(&model.ExamAttempt{}).
		Where("exam_id = ? AND identity_key = ?", examID, identityKey).
		Count(&count).Error
	if err != nil {
		return 0, util.InternalErr(err)
	}
	return count, nil
}

func (r *AttemptRepository) FindOpenByIdentity(examID uint, identityKey string) (*model.ExamAttempt, error) {
	var a model.ExamAttempt
	err := r.DB.Where("exam_id = ? AND identity_key = ? AND completed_at IS NULL", examID, identityKey).
		Order("started_at desc").First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &a, nil
}

// Complete 条件更新：只有 completed_at 仍为空的行会被关闭。
// 返回值表示本次调用是否真的赢得了这次状态迁移。
func (r *AttemptRepository) Complete(attemptID uint, completedAt time.Time, timeSpentSeconds int) (bool, error) {
	res := r.DB.Model(&model.ExamAttempt{}).
		Where("id = ? AND completed_at IS NULL", attemptID).
		Updates(map[string]interface{}{
			"completed_at":       completedAt,
			"time_spent_seconds": timeSpentSeconds,
		})
	if res.Error != nil {
		return false, util.InternalErr(res.Error)
	}
	return res.RowsAffected > 0, nil
}

func (r *AttemptRepository) UpdateScore(attempt *model.ExamAttempt) error {
	err := r.DB.Model(&model.ExamAttempt{}).
		Where("id = ?", attempt.ID).
		Updates(map[string]interface{}{
			"score":       attempt.Score,
			"max_score":   attempt.MaxScore,
			"passed":      attempt.Passed,
			"auto_graded": attempt.AutoGraded,
		}).Error
	if err != nil {
		return util.InternalErr(err)
	}
	return nil
}

func (r *AttemptRepository) ListCompletedByExam(examID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("exam_id = ? AND completed_at IS NOT NULL", examID).
		Order("completed_at asc").Find(&attempts).Error
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return attempts, nil
}

// ListPendingManual 已完成但尚未自动出分的作答，等待人工评分。
func (r *AttemptRepository) ListPendingManual(examID uint) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	err := r.DB.Where("exam_id = ? AND completed_at IS NOT NULL AND auto_graded = ?", examID, false).
		Order("completed_at asc").Find(&attempts).Error
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return attempts, nil
}
