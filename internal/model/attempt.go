package model

import "time"

const (
	AttemptStatusInProgress = "in_progress"
	AttemptStatusCompleted  = "completed"
	AttemptStatusAbandoned  = "abandoned"
)

// swagger:model Attempt
type Attempt struct {
	BaseModel

	QuizID    uint   `gorm:"index;uniqueIndex:idx_attempt_active" json:"quizId"`
	StudentID uint   `gorm:"index;uniqueIndex:idx_attempt_active" json:"studentId"`
	Status    string `gorm:"size:20;default:'in_progress';index" json:"status"`

	// Active 在 in_progress 期间为 1，结束后置 NULL。
	// (student_id, quiz_id, active) 的唯一索引保证同一学生对同一测验
	// 同时最多存在一条进行中的记录，并发 Start 靠它兜底。
	Active *int8 `gorm:"uniqueIndex:idx_attempt_active" json:"-"`

	Score          int     `json:"score"`
	MaxScore       int     `json:"maxScore"`
	CorrectCount   int     `json:"correctCount"`
	TotalQuestions int     `json:"totalQuestions"`
	Percentage     float64 `json:"percentage"`
	Passed         bool    `gorm:"default:false" json:"passed"`

	StartedAt   time.Time  `json:"startedAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	TutorFeedback string `gorm:"type:text" json:"tutorFeedback"`
}

func (Attempt) TableName() string {
	return "attempts"
}
