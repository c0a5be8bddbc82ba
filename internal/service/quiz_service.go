package service

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuizService struct {
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	DB           *gorm.DB
}

func NewQuizService(quizRepo *repository.QuizRepository, questionRepo *repository.QuestionRepository, db *gorm.DB) *QuizService {
	return &QuizService{
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		DB:           db,
	}
}

type QuizCreateRequest struct {
	Title          string   `json:"title" binding:"required"`
	Description    string   `json:"description,omitempty"`
	Subject        string   `json:"subject,omitempty"`
	GradeLevelID   *uint    `json:"gradeLevelId,omitempty"`
	Difficulty     string   `json:"difficulty,omitempty"`
	QuestionType   string   `json:"questionType,omitempty"`
	TotalQuestions int      `json:"totalQuestions,omitempty"`
	TimeLimit      *int     `json:"timeLimit,omitempty"`
	IsPublic       bool     `json:"isPublic,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	PassingScore   *int     `json:"passingScore,omitempty"`
	Instructions   string   `json:"instructions,omitempty"`
}

type QuizUpdateRequest struct {
	Title          *string  `json:"title,omitempty"`
	Description    *string  `json:"description,omitempty"`
	Subject        *string  `json:"subject,omitempty"`
	GradeLevelID   *uint    `json:"gradeLevelId,omitempty"`
	Difficulty     *string  `json:"difficulty,omitempty"`
	QuestionType   *string  `json:"questionType,omitempty"`
	TotalQuestions *int     `json:"totalQuestions,omitempty"`
	TimeLimit      *int     `json:"timeLimit,omitempty"`
	IsPublic       *bool    `json:"isPublic,omitempty"`
	Tags           []string `json:"tags,omitempty"`
	PassingScore   *int     `json:"passingScore,omitempty"`
	Instructions   *string  `json:"instructions,omitempty"`
}

func validateQuizFields(title, description, difficulty, questionType string, timeLimit *int, passingScore int) error {
	if title == "" || len(title) > 200 {
		return util.ValidationError("title must be 1-200 characters")
	}
	if len(description) > 500 {
		return util.ValidationError("description must not exceed 500 characters")
	}
	switch difficulty {
	case model.QuizDifficultyEasy, model.QuizDifficultyMedium, model.QuizDifficultyHard:
	default:
		return util.ValidationError(fmt.Sprintf("unknown difficulty %q", difficulty))
	}
	switch questionType {
	case model.QuizTypeMultipleChoice, model.QuizTypeTrueFalse, model.QuizTypeMixed:
	default:
		return util.ValidationError(fmt.Sprintf("unknown question type %q", questionType))
	}
	if timeLimit != nil && (*timeLimit < 1 || *timeLimit > 180) {
		return util.ValidationError("time limit must be between 1 and 180 minutes")
	}
	if passingScore < 0 || passingScore > 100 {
		return util.ValidationError("passing score must be between 0 and 100")
	}
	return nil
}

func (s *QuizService) CreateQuiz(creatorID uint, req QuizCreateRequest) (*model.Quiz, error) {
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.QuizDifficultyMedium
	}
	questionType := req.QuestionType
	if questionType == "" {
		questionType = model.QuizTypeMixed
	}
	passingScore := 70
	if req.PassingScore != nil {
		passingScore = *req.PassingScore
	}

	if err := validateQuizFields(req.Title, req.Description, difficulty, questionType, req.TimeLimit, passingScore); err != nil {
		return nil, err
	}

	quiz := &model.Quiz{
		CreatorID:      creatorID,
		Title:          req.Title,
		Description:    req.Description,
		Subject:        req.Subject,
		GradeLevelID:   req.GradeLevelID,
		Difficulty:     difficulty,
		QuestionType:   questionType,
		TotalQuestions: req.TotalQuestions,
		TimeLimit:      req.TimeLimit,
		IsPublic:       req.IsPublic,
		PassingScore:   passingScore,
		Instructions:   req.Instructions,
		IsActive:       true,
	}
	if len(req.Tags) > 0 {
		tb, _ := json.Marshal(req.Tags)
		quiz.Tags = string(tb)
	}

	if err := s.QuizRepo.Create(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetQuizByID 可见性规则：公开或本人创建，否则按不存在处理
func (s *QuizService) GetQuizByID(quizID, requesterID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindActiveByID(quizID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.VisibleTo(requesterID) {
		return nil, util.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizService) ListQuizzes(filter repository.QuizFilter) ([]model.Quiz, int64, error) {
	return s.QuizRepo.List(filter)
}

func (s *QuizService) ListGradeLevels() ([]model.GradeLevel, error) {
	return s.QuizRepo.ListGradeLevels()
}

func (s *QuizService) ownedQuiz(quizID, requesterID uint) (*model.Quiz, error) {
	quiz, err := s.QuizRepo.FindActiveByID(quizID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if quiz.CreatorID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	return quiz, nil
}

func (s *QuizService) UpdateQuiz(quizID, requesterID uint, req QuizUpdateRequest) (*model.Quiz, error) {
	quiz, err := s.ownedQuiz(quizID, requesterID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		quiz.Title = *req.Title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.Subject != nil {
		quiz.Subject = *req.Subject
	}
	if req.GradeLevelID != nil {
		quiz.GradeLevelID = req.GradeLevelID
	}
	if req.Difficulty != nil {
		quiz.Difficulty = *req.Difficulty
	}
	if req.QuestionType != nil {
		quiz.QuestionType = *req.QuestionType
	}
	if req.TotalQuestions != nil {
		quiz.TotalQuestions = *req.TotalQuestions
	}
	if req.TimeLimit != nil {
		quiz.TimeLimit = req.TimeLimit
	}
	if req.IsPublic != nil {
		quiz.IsPublic = *req.IsPublic
	}
	if req.Tags != nil {
		tb, _ := json.Marshal(req.Tags)
		quiz.Tags = string(tb)
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}
	if req.Instructions != nil {
		quiz.Instructions = *req.Instructions
	}

	if err := validateQuizFields(quiz.Title, quiz.Description, quiz.Difficulty, quiz.QuestionType, quiz.TimeLimit, quiz.PassingScore); err != nil {
		return nil, err
	}

	if err := s.QuizRepo.Update(quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// DeleteQuiz 软删除测验并级联软删除全部题目。
// 两次写入放在同一事务里，不留下"测验没了题目还在"的中间态。
func (s *QuizService) DeleteQuiz(quizID, requesterID uint) error {
	quiz, err := s.ownedQuiz(quizID, requesterID)
	if err != nil {
		return err
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Quiz{}).Where("id = ?", quiz.ID).Update("is_active", false).Error; err != nil {
			return err
		}
		return s.QuestionRepo.SoftDeleteByQuiz(tx, quiz.ID)
	})
}

// DuplicateQuiz 深拷贝一份测验：元数据复制但强制私有，
// 活跃题目连同选项全部复制为新记录，选项分配新 id，内容与顺序保持一致。
func (s *QuizService) DuplicateQuiz(quizID, requesterID uint, newTitle string) (*model.Quiz, error) {
	source, err := s.GetQuizByID(quizID, requesterID)
	if err != nil {
		return nil, err
	}

	title := newTitle
	if title == "" {
		title = source.Title + " (Copy)"
	}
	if len(title) > 200 {
		// 截断点落在 rune 边界上，避免把多字节字符切成非法 UTF-8
		cut := 200
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}

	questions, err := s.QuestionRepo.ListActiveByQuiz(source.ID)
	if err != nil {
		return nil, err
	}

	copied := &model.Quiz{
		CreatorID:      requesterID,
		Title:          title,
		Description:    source.Description,
		Subject:        source.Subject,
		GradeLevelID:   source.GradeLevelID,
		Difficulty:     source.Difficulty,
		QuestionType:   source.QuestionType,
		TotalQuestions: source.TotalQuestions,
		TimeLimit:      source.TimeLimit,
		IsPublic:       false, // 副本一律私有，与源测验的公开状态无关
		Tags:           source.Tags,
		PassingScore:   source.PassingScore,
		Instructions:   source.Instructions,
		IsActive:       true,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(copied).Error; err != nil {
			return err
		}

		if len(questions) == 0 {
			return nil
		}
		clones := make([]model.Question, 0, len(questions))
		for _, q := range questions {
			answers, err := q.DecodeAnswers()
			if err != nil {
				return err
			}
			for i := range answers {
				answers[i].ID = uuid.New().String()
			}
			clone := model.Question{
				QuizID:      copied.ID,
				Text:        q.Text,
				Type:        q.Type,
				Points:      q.Points,
				Explanation: q.Explanation,
				Hint:        q.Hint,
				Difficulty:  q.Difficulty,
				Tags:        q.Tags,
				Order:       q.Order,
				IsActive:    true,
			}
			if err := clone.SetAnswers(answers); err != nil {
				return err
			}
			clones = append(clones, clone)
		}
		return tx.Create(&clones).Error
	})
	if err != nil {
		return nil, err
	}
	return copied, nil
}

// TogglePublishStatus 创建者翻转公开状态，返回新状态
func (s *QuizService) TogglePublishStatus(quizID, requesterID uint) (bool, error) {
	quiz, err := s.ownedQuiz(quizID, requesterID)
	if err != nil {
		return false, err
	}
	quiz.IsPublic = !quiz.IsPublic
	if err := s.QuizRepo.Update(quiz); err != nil {
		return false, err
	}
	return quiz.IsPublic, nil
}

type QuizStats struct {
	Quiz               *model.Quiz `json:"quiz"`
	QuestionCount      int64       `json:"questionCount"`
	CompletedQuestions int64       `json:"completedQuestions"`
	IsComplete         bool        `json:"isComplete"`
}

// GetQuizStats 题量统计；completedQuestions 为选项非空的题目数，
// isComplete 要求实际题量与完成题量都达到声明的目标题量
func (s *QuizService) GetQuizStats(quizID, requesterID uint) (*QuizStats, error) {
	quiz, err := s.GetQuizByID(quizID, requesterID)
	if err != nil {
		return nil, err
	}

	questions, err := s.QuestionRepo.ListActiveByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	var completed int64
	for _, q := range questions {
		answers, err := q.DecodeAnswers()
		if err != nil {
			return nil, err
		}
		if len(answers) > 0 {
			completed++
		}
	}

	count := int64(len(questions))
	return &QuizStats{
		Quiz:               quiz,
		QuestionCount:      count,
		CompletedQuestions: completed,
		IsComplete: quiz.TotalQuestions > 0 &&
			count == int64(quiz.TotalQuestions) &&
			completed == int64(quiz.TotalQuestions),
	}, nil
}
