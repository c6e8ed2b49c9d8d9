package model

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ExamAttempt 一次考生作答。versionId 创建后不再变化；completedAt 为空表示进行中。
// 唯一索引 (exam_id, identity_key, attempt_number) 保证并发开考不会超出次数限制。
// swagger:model ExamAttempt
type ExamAttempt struct {
	BaseModel

	// PublicID 对外暴露的随机标识，避免把自增 ID 泄露给匿名考生
	PublicID string `gorm:"size:36;uniqueIndex" json:"publicId"`

	ExamID        uint `gorm:"index;type:bigint unsigned;uniqueIndex:idx_exam_identity_attempt" json:"examId"`
	VersionID     uint `gorm:"index;type:bigint unsigned" json:"versionId"`
	AttemptNumber int  `gorm:"uniqueIndex:idx_exam_identity_attempt" json:"attemptNumber"` // 同一身份下从 1 开始

	IdentityKey  string `gorm:"size:255;index;uniqueIndex:idx_exam_identity_attempt" json:"-"`
	StudentEmail string `gorm:"size:100" json:"studentEmail,omitempty"`
	IPAddress    string `gorm:"size:45" json:"ipAddress,omitempty"`
	UserAgent    string `gorm:"size:255" json:"-"`

	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`

	Score      float64 `json:"score"`
	MaxScore   float64 `json:"maxScore"` // 快照 totalPoints
	Passed     bool    `gorm:"default:false" json:"passed"`
	AutoGraded bool    `gorm:"default:false" json:"autoGraded"`
}

func (ExamAttempt) TableName() string {
	return "exam_attempts"
}

func (a *ExamAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.PublicID == "" {
		a.PublicID = GenerateUUID()
	}
	return nil
}

// Completed reports whether the attempt has been closed. completedAt 是唯一的完成态表示。
func (a *ExamAttempt) Completed() bool {
	return a.CompletedAt != nil
}

// Percentage 返回 0-100 的得分率，maxScore 为 0 时返回 0。
func (a *ExamAttempt) Percentage() float64 {
	if a.MaxScore <= 0 {
		return 0
	}
	return a.Score / a.MaxScore * 100
}

// AttemptIdentity 标识一个考生：有邮箱按邮箱计数，否则按客户端 IP。
type AttemptIdentity struct {
	StudentEmail string
	IPAddress    string
}

// Key 生成用于计数和唯一索引的身份键。
func (i AttemptIdentity) Key() string {
	if i.StudentEmail != "" {
		return fmt.Sprintf("email:%s", i.StudentEmail)
	}
	return fmt.Sprintf("ip:%s", i.IPAddress)
}
