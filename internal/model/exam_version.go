package model

import "time"

// ExamVersion 保存考试内容的不可变快照，作答记录通过外键引用它。
// Content 一经写入不再修改，评分始终以此为准而不是当前考试定义。
// swagger:model ExamVersion
type ExamVersion struct {
	BaseModel

	ExamID        uint       `gorm:"index;type:bigint unsigned" json:"examId"`
	VersionNumber int        `gorm:"default:1" json:"versionNumber"`
	EditorID      uint       `gorm:"index;type:bigint unsigned" json:"editorId"`
	ChangeNote    string     `gorm:"type:text" json:"changeNote"`
	Content       string     `gorm:"type:json" json:"content"` // JSON: ExamSnapshot
	PublishedAt   *time.Time `json:"publishedAt,omitempty"`
}

func (ExamVersion) TableName() string {
	return "exam_versions"
}
