package repository

import (
	"errors"

	"examforge_backend/internal/model"
	"examforge_backend/internal/util"

	"gorm.io/gorm"
)

// ExamRepository 考试定义的只读访问。定义的写入属于创建端子系统，不在本引擎内。
type ExamRepository struct {
	DB *gorm.DB
}

func NewExamRepository(db *gorm.DB) *ExamRepository {
	return &ExamRepository{DB: db}
}

func (r *ExamRepository) FindBySlug(slug string) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.Where("slug = ?", slug).First(&exam).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &exam, nil
}

func (r *ExamRepository) FindByID(id uint) (*model.Exam, error) {
	var exam model.Exam
	err := r.DB.First(&exam, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &exam, nil
}

func (r *ExamRepository) GetVersion(versionID uint) (*model.ExamVersion, error) {
	var v model.ExamVersion
	err := r.DB.First(&v, versionID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &v, nil
}

// LatestVersion 返回考试的最新版本行。
func (r *ExamRepository) LatestVersion(examID uint) (*model.ExamVersion, error) {
	var v model.ExamVersion
	err := r.DB.Where("exam_id = ?", examID).Order("version_number desc").First(&v).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrExamNotFound
	}
	if err != nil {
		return nil, util.InternalErr(err)
	}
	return &v, nil
}
