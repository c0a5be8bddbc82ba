package repository

import (
	"time"

	"tutorhub_backend/internal/model"

	"gorm.io/gorm"
)

type AttemptRepository struct {
	DB *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{DB: db}
}

func (r *AttemptRepository) Create(attempt *model.Attempt) error {
	return r.DB.Create(attempt).Error
}

func (r *AttemptRepository) FindByID(id uint) (*model.Attempt, error) {
	var a model.Attempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) FindInProgress(studentID, quizID uint) (*model.Attempt, error) {
	var a model.Attempt
	err := r.DB.Where("student_id = ? AND quiz_id = ? AND status = ?",
		studentID, quizID, model.AttemptStatusInProgress).First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AttemptRepository) ListByStudent(studentID uint, page, limit int) ([]model.Attempt, int64, error) {
	var attempts []model.Attempt
	var total int64
	query := r.DB.Model(&model.Attempt{}).Where("student_id = ?", studentID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&attempts).Error
	return attempts, total, err
}

func (r *AttemptRepository) ListByQuiz(quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Where("quiz_id = ?", quizID).Order("created_at desc").Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) Update(attempt *model.Attempt) error {
	return r.DB.Save(attempt).Error
}

func (r *AttemptRepository) Delete(attempt *model.Attempt) error {
	return r.DB.Delete(attempt).Error
}

func (r *AttemptRepository) CreateAnswers(tx *gorm.DB, answers []model.AttemptAnswer) error {
	if len(answers) == 0 {
		return nil
	}
	return tx.Create(&answers).Error
}

func (r *AttemptRepository) GetAnswers(attemptID uint) ([]model.AttemptAnswer, error) {
	var answers []model.AttemptAnswer
	err := r.DB.Where("attempt_id = ?", attemptID).Find(&answers).Error
	return answers, err
}

// StatusCount 状态分布行
type StatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

func (r *AttemptRepository) CountByStatus(quizID uint) ([]StatusCount, error) {
	var rows []StatusCount
	err := r.DB.Model(&model.Attempt{}).
		Where("quiz_id = ?", quizID).
		Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error
	return rows, err
}

func (r *AttemptRepository) ListCompletedByQuiz(quizID uint) ([]model.Attempt, error) {
	var attempts []model.Attempt
	err := r.DB.Where("quiz_id = ? AND status = ?", quizID, model.AttemptStatusCompleted).Find(&attempts).Error
	return attempts, err
}

func (r *AttemptRepository) ListCompletedByQuizzes(quizIDs []uint) ([]model.Attempt, error) {
	if len(quizIDs) == 0 {
		return nil, nil
	}
	var attempts []model.Attempt
	err := r.DB.Where("quiz_id IN ? AND status = ?", quizIDs, model.AttemptStatusCompleted).Find(&attempts).Error
	return attempts, err
}

// AbandonStale 把超过 cutoff 仍未提交的进行中记录批量置为 abandoned，
// 同时清掉 active 标记，学生之后可以重新开始。返回影响行数。
func (r *AttemptRepository) AbandonStale(cutoff time.Time) (int64, error) {
	res := r.DB.Model(&model.Attempt{}).
		Where("status = ? AND started_at < ?", model.AttemptStatusInProgress, cutoff).
		Updates(map[string]interface{}{
			"status": model.AttemptStatusAbandoned,
			"active": nil,
		})
	return res.RowsAffected, res.Error
}
