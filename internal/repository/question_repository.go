package repository

import (
	"tutorhub_backend/internal/model"

	"gorm.io/gorm"
)

type QuestionRepository struct {
	DB *gorm.DB
}

func NewQuestionRepository(db *gorm.DB) *QuestionRepository {
	return &QuestionRepository{DB: db}
}

func (r *QuestionRepository) Create(question *model.Question) error {
	return r.DB.Create(question).Error
}

func (r *QuestionRepository) CreateBatch(tx *gorm.DB, questions []model.Question) error {
	if len(questions) == 0 {
		return nil
	}
	return tx.Create(&questions).Error
}

func (r *QuestionRepository) Update(question *model.Question) error {
	return r.DB.Save(question).Error
}

func (r *QuestionRepository) FindActiveByID(id uint) (*model.Question, error) {
	var q model.Question
	err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&q).Error
	if err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuestionRepository) ListActiveByQuiz(quizID uint) ([]model.Question, error) {
	var qs []model.Question
	err := r.DB.Where("quiz_id = ? AND is_active = ?", quizID, true).Order("`order` asc").Find(&qs).Error
	return qs, err
}

func (r *QuestionRepository) CountActiveByQuiz(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("quiz_id = ? AND is_active = ?", quizID, true).Count(&count).Error
	return count, err
}

// MaxOrder 返回当前最大展示序号，无题目时为 0
func (r *QuestionRepository) MaxOrder(quizID uint) (int, error) {
	var max int
	err := r.DB.Model(&model.Question{}).
		Where("quiz_id = ? AND is_active = ?", quizID, true).
		Select("COALESCE(MAX(`order`), 0)").Scan(&max).Error
	return max, err
}

// TypeCount 题型/难度统计行
type TypeCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

func (r *QuestionRepository) CountByType(quizID uint) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.DB.Model(&model.Question{}).
		Where("quiz_id = ? AND is_active = ?", quizID, true).
		Select("type as `key`, COUNT(*) as count").Group("type").Scan(&rows).Error
	return rows, err
}

func (r *QuestionRepository) CountByDifficulty(quizID uint) ([]TypeCount, error) {
	var rows []TypeCount
	err := r.DB.Model(&model.Question{}).
		Where("quiz_id = ? AND is_active = ?", quizID, true).
		Select("difficulty as `key`, COUNT(*) as count").Group("difficulty").Scan(&rows).Error
	return rows, err
}

// SoftDeleteByQuiz 级联软删，必须跟测验的软删同处一个事务
func (r *QuestionRepository) SoftDeleteByQuiz(tx *gorm.DB, quizID uint) error {
	return tx.Model(&model.Question{}).Where("quiz_id = ?", quizID).Update("is_active", false).Error
}
