package repository

import (
	"errors"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnswerRepository struct {
	DB *gorm.DB
}

func NewAnswerRepository(db *gorm.DB) *AnswerRepository {
	return &AnswerRepository{DB: db}
}

// Upsert 按 (attempt_id, question_id) 唯一键整体覆盖作答内容。
// 并发保存同一题时后写者赢，不需要额外协调。
func (r *AnswerRepository) Upsert(answer *model.ExamAnswer) error {
	err := r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"text_value", "selected_option_ids", "structured_value", "updated_at",
		}),
	}).Create(answer).Error
	if err != nil {
		return util.InternalErr(err)
	}
	return nil
}

func (r *AnswerRepository) ListByAttempt(attemptID uint) ([]model.ExamAnswer, error) {
	var answers []model.ExamAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Order("question_id asc").Find(&answers).Error
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return answers, nil
}

func (r *AnswerRepository) ListByAttemptIDs(attemptIDs []uint) ([]model.ExamAnswer, error) {
	if len(attemptIDs) == 0 {
		return nil, nil
	}
	var answers []model.ExamAnswer
	err := r.DB.Where("attempt_id IN ?", attemptIDs).Find(&answers).Error
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return answers, nil
}

func (r *AnswerRepository) FindByID(id uint) (*model.ExamAnswer, error) {
	var a model.ExamAnswer
	err := r.DB.First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrAnswerNotFound
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &a, nil
}

// SaveGrade 只更新评分字段，作答内容不动。
func (r *AnswerRepository) SaveGrade(answer *model.ExamAnswer) error {
	err := r.DB.Model(&model.ExamAnswer{}).
		Where("id = ?", answer.ID).
		Select("is_correct", "points_earned", "feedback").
		Updates(map[string]interface{}{
			"is_correct":    answer.IsCorrect,
			"points_earned": answer.PointsEarned,
			"feedback":      answer.Feedback,
		}).Error
	if err != nil {
		return util.InternalErr(err)
	}
	return nil
}
