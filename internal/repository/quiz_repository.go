package repository

import (
	"strings"

	"tutorhub_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) Update(quiz *model.Quiz) error {
	return r.DB.Save(quiz).Error
}

// FindActiveByID 只返回未被软删的测验
func (r *QuizRepository) FindActiveByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	err := r.DB.Where("id = ? AND is_active = ?", id, true).First(&quiz).Error
	if err != nil {
		return nil, err
	}
	return &quiz, nil
}

// QuizFilter 列表查询条件；CreatorID/RequesterID 组合出创建者视角的可见范围
type QuizFilter struct {
	Subject      string
	Difficulty   string
	GradeLevelID uint
	IsPublic     *bool
	CreatorID    uint // 指定创建者
	RequesterID  uint // 发起请求的用户，0 表示匿名
	Page         int
	Limit        int
}

// List 可见范围规则：
//   - 指定了与请求者不同的创建者：只看该创建者的公开测验；
//   - 其他情况：自己的全部测验 + 所有公开测验（匿名则只剩公开）。
func (r *QuizRepository) List(f QuizFilter) ([]model.Quiz, int64, error) {
	query := r.DB.Model(&model.Quiz{}).Where("is_active = ?", true)

	if f.Subject != "" {
		query = query.Where("LOWER(subject) LIKE ?", "%"+strings.ToLower(f.Subject)+"%")
	}
	if f.Difficulty != "" {
		query = query.Where("difficulty = ?", f.Difficulty)
	}
	if f.GradeLevelID > 0 {
		query = query.Where("grade_level_id = ?", f.GradeLevelID)
	}
	if f.IsPublic != nil {
		query = query.Where("is_public = ?", *f.IsPublic)
	}

	if f.CreatorID > 0 && f.CreatorID != f.RequesterID {
		query = query.Where("creator_id = ? AND is_public = ?", f.CreatorID, true)
	} else if f.CreatorID > 0 {
		query = query.Where("creator_id = ?", f.CreatorID)
	} else if f.RequesterID > 0 {
		query = query.Where("creator_id = ? OR is_public = ?", f.RequesterID, true)
	} else {
		query = query.Where("is_public = ?", true)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	limit := f.Limit
	if limit < 1 {
		limit = 20
	}

	var quizzes []model.Quiz
	err := query.Order("created_at desc").Offset((page - 1) * limit).Limit(limit).Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) ListActiveByCreator(creatorID uint) ([]model.Quiz, error) {
	var quizzes []model.Quiz
	err := r.DB.Where("creator_id = ? AND is_active = ?", creatorID, true).Find(&quizzes).Error
	return quizzes, err
}

func (r *QuizRepository) ListGradeLevels() ([]model.GradeLevel, error) {
	var levels []model.GradeLevel
	err := r.DB.Where("enabled = ?", true).Order("`order` asc").Find(&levels).Error
	return levels, err
}
