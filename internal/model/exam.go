package model

import "time"

// ShowResults 策略：控制考生何时能看到成绩详情
const (
	ShowResultsNever         = "NEVER"
	ShowResultsManual        = "MANUAL"
	ShowResultsImmediate     = "IMMEDIATE"
	ShowResultsAfterDeadline = "AFTER_DEADLINE"
)

// swagger:model Exam
type Exam struct {
	BaseModel

	CreatorID   uint   `gorm:"index;type:bigint unsigned" json:"creatorId"`
	Slug        string `gorm:"size:100;uniqueIndex;not null" json:"slug"`
	Title       string `gorm:"size:255;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`

	IsActive bool `gorm:"default:false" json:"isActive"`
	IsPublic bool `gorm:"default:false" json:"isPublic"`

	MaxAttempts      int     `gorm:"default:1" json:"maxAttempts"`
	TimeLimitSeconds int     `gorm:"default:0" json:"timeLimitSeconds"` // 0 表示不限时
	PassingScore     float64 `gorm:"default:60" json:"passingScore"`    // 百分比阈值
	AutoGrade        bool    `gorm:"default:false" json:"autoGrade"`    // 创建端预计算：所有题型均可自动评分
	ShuffleQuestions bool    `gorm:"default:false" json:"shuffleQuestions"`
	ShuffleOptions   bool    `gorm:"default:false" json:"shuffleOptions"`

	ShowResults string `gorm:"size:20;default:'IMMEDIATE'" json:"showResults"` // NEVER/MANUAL/IMMEDIATE/AFTER_DEADLINE
	AllowReview bool   `gorm:"default:true" json:"allowReview"`
	Deadline    *time.Time `json:"deadline,omitempty"`

	CurrentVersion uint `gorm:"default:0" json:"currentVersion"`
}

func (Exam) TableName() string {
	return "exams"
}
