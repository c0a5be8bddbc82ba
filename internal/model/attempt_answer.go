package model

// AttemptAnswer 存储一次测验中每道题的作答记录（用于回顾与导师点评）
type AttemptAnswer struct {
	BaseModel
	AttemptID    uint   `gorm:"index" json:"attemptId"`
	QuestionID   uint   `gorm:"index" json:"questionId"`
	Selected     string `gorm:"type:json" json:"selected"` // JSON array of answer ids
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
}

func (AttemptAnswer) TableName() string {
	return "attempt_answers"
}
