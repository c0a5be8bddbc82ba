package model

import (
	"encoding/json"
	"fmt"
)

const (
	QuestionTypeMultipleChoice = "multiple_choice"
	QuestionTypeTrueFalse      = "true_false"
)

const DefaultQuestionPoints = 10

// Answer 内嵌在 Question 的 answers JSON 列中，不单独成表
type Answer struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
	Order       int    `json:"order"`
}

// swagger:model Question
type Question struct {
	BaseModel

	QuizID      uint   `gorm:"index" json:"quizId"`
	Text        string `gorm:"size:1000;not null" json:"text"`
	Type        string `gorm:"size:30;not null" json:"type"`
	Points      int    `gorm:"default:10" json:"points"`
	Answers     string `gorm:"type:json" json:"-"` // JSON array of Answer
	Explanation string `gorm:"type:text" json:"explanation"`
	Hint        string `gorm:"size:500" json:"hint"`
	Difficulty  string `gorm:"size:20;default:'medium'" json:"difficulty"`
	Tags        string `gorm:"type:json" json:"tags"`
	Order       int    `gorm:"default:0" json:"order"`
	IsActive    bool   `gorm:"default:true;index" json:"isActive"`
}

func (Question) TableName() string {
	return "questions"
}

func (q *Question) DecodeAnswers() ([]Answer, error) {
	if q.Answers == "" {
		return nil, nil
	}
	var answers []Answer
	if err := json.Unmarshal([]byte(q.Answers), &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (q *Question) SetAnswers(answers []Answer) error {
	b, err := json.Marshal(answers)
	if err != nil {
		return err
	}
	q.Answers = string(b)
	return nil
}

// ValidateAnswers 校验题型与选项的结构不变量：
// multiple_choice 至少 2 个选项且至少 1 个正确；
// true_false 恰好 2 个选项且恰好 1 个正确。
func ValidateAnswers(questionType string, answers []Answer) error {
	correct := 0
	for _, a := range answers {
		if a.IsCorrect {
			correct++
		}
	}

	switch questionType {
	case QuestionTypeMultipleChoice:
		if len(answers) < 2 {
			return fmt.Errorf("multiple_choice question requires at least 2 answers, got %d", len(answers))
		}
		if correct < 1 {
			return fmt.Errorf("multiple_choice question requires at least 1 correct answer")
		}
	case QuestionTypeTrueFalse:
		if len(answers) != 2 {
			return fmt.Errorf("true_false question requires exactly 2 answers, got %d", len(answers))
		}
		if correct != 1 {
			return fmt.Errorf("true_false question requires exactly 1 correct answer, got %d", correct)
		}
	default:
		return fmt.Errorf("unknown question type %q", questionType)
	}
	return nil
}

// CheckAnswer 判定提交的选项集合与正确选项集合是否完全一致。
// 多选时子集或超集都算错，只有集合相等才得分。
func (q *Question) CheckAnswer(selectedIDs []string) (bool, error) {
	answers, err := q.DecodeAnswers()
	if err != nil {
		return false, err
	}

	correct := make(map[string]bool)
	for _, a := range answers {
		if a.IsCorrect {
			correct[a.ID] = true
		}
	}

	selected := make(map[string]bool)
	for _, id := range selectedIDs {
		selected[id] = true
	}

	if len(selected) != len(correct) {
		return false, nil
	}
	for id := range selected {
		if !correct[id] {
			return false, nil
		}
	}
	return true, nil
}
