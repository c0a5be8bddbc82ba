package model

const (
	QuizDifficultyEasy   = "easy"
	QuizDifficultyMedium = "medium"
	QuizDifficultyHard   = "hard"
)

const (
	QuizTypeMultipleChoice = "multiple_choice"
	QuizTypeTrueFalse      = "true_false"
	QuizTypeMixed          = "mixed"
)

// swagger:model Quiz
type Quiz struct {
	BaseModel

	CreatorID    uint   `gorm:"index" json:"creatorId"`
	Title        string `gorm:"size:200;not null" json:"title"`
	Description  string `gorm:"size:500" json:"description"`
	Subject      string `gorm:"size:100;index" json:"subject"`
	GradeLevelID *uint  `gorm:"index" json:"gradeLevelId,omitempty"`

	Difficulty   string `gorm:"size:20;default:'medium'" json:"difficulty"`
	QuestionType string `gorm:"size:30;default:'mixed'" json:"questionType"` // 随机抽题时的题型偏好，不强约束题目
	// TotalQuestions 是声明的目标题量，实际题量允许暂时不足（见 IsComplete）
	TotalQuestions int    `gorm:"default:0" json:"totalQuestions"`
	TimeLimit      *int   `json:"timeLimit,omitempty"` // 分钟，1-180
	IsPublic       bool   `gorm:"default:false;index" json:"isPublic"`
	Tags           string `gorm:"type:json" json:"tags"`
	PassingScore   int    `gorm:"default:70" json:"passingScore"` // 百分比 0-100
	Instructions   string `gorm:"type:text" json:"instructions"`
	IsActive       bool   `gorm:"default:true;index" json:"isActive"`
}

func (Quiz) TableName() string {
	return "quizzes"
}

// VisibleTo 可见性判定：公开，或请求者即创建者。requesterID 为 0 表示匿名
func (q *Quiz) VisibleTo(requesterID uint) bool {
	return q.IsPublic || (requesterID != 0 && q.CreatorID == requesterID)
}
