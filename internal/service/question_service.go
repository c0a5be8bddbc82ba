package service

import (
	"encoding/json"
	"fmt"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/util"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuestionService struct {
	QuestionRepo *repository.QuestionRepository
	QuizRepo     *repository.QuizRepository
	DB           *gorm.DB
}

func NewQuestionService(questionRepo *repository.QuestionRepository, quizRepo *repository.QuizRepository, db *gorm.DB) *QuestionService {
	return &QuestionService{
		QuestionRepo: questionRepo,
		QuizRepo:     quizRepo,
		DB:           db,
	}
}

type AnswerRequest struct {
	Text        string `json:"text" binding:"required"`
	IsCorrect   bool   `json:"isCorrect"`
	Explanation string `json:"explanation,omitempty"`
}

type QuestionCreateRequest struct {
	Text        string          `json:"text" binding:"required"`
	Type        string          `json:"type" binding:"required"`
	Points      *int            `json:"points,omitempty"`
	Answers     []AnswerRequest `json:"answers" binding:"required"`
	Explanation string          `json:"explanation,omitempty"`
	Hint        string          `json:"hint,omitempty"`
	Difficulty  string          `json:"difficulty,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Order       *int            `json:"order,omitempty"`
}

type QuestionUpdateRequest struct {
	Text        *string         `json:"text,omitempty"`
	Points      *int            `json:"points,omitempty"`
	Answers     []AnswerRequest `json:"answers,omitempty"`
	Explanation *string         `json:"explanation,omitempty"`
	Hint        *string         `json:"hint,omitempty"`
	Difficulty  *string         `json:"difficulty,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Order       *int            `json:"order,omitempty"`
}

// buildAnswers 给每个选项分配独立 id 并做结构校验
func buildAnswers(questionType string, reqs []AnswerRequest) ([]model.Answer, error) {
	answers := make([]model.Answer, 0, len(reqs))
	for i, a := range reqs {
		if a.Text == "" {
			return nil, util.ValidationError("answer text is required")
		}
		if len(a.Text) > 500 {
			return nil, util.ValidationError("answer text must not exceed 500 characters")
		}
		answers = append(answers, model.Answer{
			ID:          uuid.New().String(),
			Text:        a.Text,
			IsCorrect:   a.IsCorrect,
			Explanation: a.Explanation,
			Order:       i,
		})
	}
	if err := model.ValidateAnswers(questionType, answers); err != nil {
		return nil, util.ValidationError(err.Error())
	}
	return answers, nil
}

func buildQuestion(quizID uint, req QuestionCreateRequest, order int) (*model.Question, error) {
	if req.Text == "" {
		return nil, util.ValidationError("question text is required")
	}
	if len(req.Text) > 1000 {
		return nil, util.ValidationError("question text must not exceed 1000 characters")
	}

	points := model.DefaultQuestionPoints
	if req.Points != nil {
		if *req.Points < 0 {
			return nil, util.ValidationError("points must not be negative")
		}
		points = *req.Points
	}

	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = model.QuizDifficultyMedium
	}
	switch difficulty {
	case model.QuizDifficultyEasy, model.QuizDifficultyMedium, model.QuizDifficultyHard:
	default:
		return nil, util.ValidationError(fmt.Sprintf("unknown difficulty %q", difficulty))
	}

	answers, err := buildAnswers(req.Type, req.Answers)
	if err != nil {
		return nil, err
	}

	if req.Order != nil {
		order = *req.Order
	}

	q := &model.Question{
		QuizID:      quizID,
		Text:        req.Text,
		Type:        req.Type,
		Points:      points,
		Explanation: req.Explanation,
		Hint:        req.Hint,
		Difficulty:  difficulty,
		Order:       order,
		IsActive:    true,
	}
	if err := q.SetAnswers(answers); err != nil {
		return nil, err
	}
	if len(req.Tags) > 0 {
		tb, _ := json.Marshal(req.Tags)
		q.Tags = string(tb)
	}
	return q, nil
}

// ownedQuiz 加载活跃测验并校验创建者身份
func (s *QuestionService) ownedQuiz(quizID, requesterID uint) (*model.Quiz, error) {
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

// visibleQuiz 加载活跃测验并应用可见性规则（公开或本人），
// 不可见时按不存在处理，避免泄露私有测验的存在性
func (s *QuestionService) visibleQuiz(quizID, requesterID uint) (*model.Quiz, error) {
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

func (s *QuestionService) CreateQuestion(creatorID, quizID uint, req QuestionCreateRequest) (*model.Question, error) {
	if _, err := s.ownedQuiz(quizID, creatorID); err != nil {
		return nil, err
	}

	maxOrder, err := s.QuestionRepo.MaxOrder(quizID)
	if err != nil {
		return nil, err
	}
	q, err := buildQuestion(quizID, req, maxOrder+1)
	if err != nil {
		return nil, err
	}
	if err := s.QuestionRepo.Create(q); err != nil {
		return nil, err
	}
	return q, nil
}

func (s *QuestionService) UpdateQuestion(questionID, requesterID uint, req QuestionUpdateRequest) (*model.Question, error) {
	q, err := s.QuestionRepo.FindActiveByID(questionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}

	quiz, err := s.QuizRepo.FindActiveByID(q.QuizID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, util.ErrQuestionNotFound
		}
		return nil, err
	}
	if quiz.CreatorID != requesterID {
		return nil, util.ErrPermissionDenied
	}

	if req.Text != nil {
		if *req.Text == "" || len(*req.Text) > 1000 {
			return nil, util.ValidationError("question text must be 1-1000 characters")
		}
		q.Text = *req.Text
	}
	if req.Points != nil {
		if *req.Points < 0 {
			return nil, util.ValidationError("points must not be negative")
		}
		q.Points = *req.Points
	}
	if req.Answers != nil {
		// 选项被整体替换时按题型重新校验
		answers, err := buildAnswers(q.Type, req.Answers)
		if err != nil {
			return nil, err
		}
		if err := q.SetAnswers(answers); err != nil {
			return nil, err
		}
	}
	if req.Explanation != nil {
		q.Explanation = *req.Explanation
	}
	if req.Hint != nil {
		q.Hint = *req.Hint
	}
	if req.Difficulty != nil {
		switch *req.Difficulty {
		case model.QuizDifficultyEasy, model.QuizDifficultyMedium, model.QuizDifficultyHard:
			q.Difficulty = *req.Difficulty
		default:
			return nil, util.ValidationError(fmt.Sprintf("unknown difficulty %q", *req.Difficulty))
		}
	}
	if req.Tags != nil {
		tb, _ := json.Marshal(req.Tags)
		q.Tags = string(tb)
	}
	if req.Order != nil {
		q.Order = *req.Order
	}

	if err := s.QuestionRepo.Update(q); err != nil {
		return nil, err
	}
	return q, nil
}

// DeleteQuestion 软删除，不重排兄弟题目的序号
func (s *QuestionService) DeleteQuestion(questionID, requesterID uint) error {
	q, err := s.QuestionRepo.FindActiveByID(questionID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return util.ErrQuestionNotFound
		}
		return err
	}
	if _, err := s.ownedQuiz(q.QuizID, requesterID); err != nil {
		return err
	}
	q.IsActive = false
	return s.QuestionRepo.Update(q)
}

// BulkCreateQuestions 批量创建，整体校验后在单个事务内落库，任一条失败全部回滚
func (s *QuestionService) BulkCreateQuestions(creatorID, quizID uint, reqs []QuestionCreateRequest) ([]model.Question, error) {
	if len(reqs) == 0 {
		return nil, util.ValidationError("at least one question is required")
	}
	if _, err := s.ownedQuiz(quizID, creatorID); err != nil {
		return nil, err
	}

	maxOrder, err := s.QuestionRepo.MaxOrder(quizID)
	if err != nil {
		return nil, err
	}

	questions := make([]model.Question, 0, len(reqs))
	for i, req := range reqs {
		req.Order = nil // 批量导入按序列分配，忽略显式序号
		q, err := buildQuestion(quizID, req, maxOrder+1+i)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		return s.QuestionRepo.CreateBatch(tx, questions)
	})
	if err != nil {
		return nil, err
	}
	return questions, nil
}

// AIQuestionCandidate AI 出题集成产出的通用题目形状
type AIQuestionCandidate struct {
	Text    string `json:"text"`
	Type    string `json:"type"`
	Points  *int   `json:"points,omitempty"`
	Answers []struct {
		Text    string `json:"text"`
		Correct bool   `json:"correct"`
	} `json:"answers"`
	Explanation string `json:"explanation,omitempty"`
}

// ImportAIQuestions 走与手工创建完全相同的校验，只额外打上来源标签。
// 返回导入批次 id，便于之后按批次溯源。
func (s *QuestionService) ImportAIQuestions(creatorID, quizID uint, candidates []AIQuestionCandidate) ([]model.Question, string, error) {
	batchID := uuid.New().String()

	reqs := make([]QuestionCreateRequest, 0, len(candidates))
	for _, c := range candidates {
		req := QuestionCreateRequest{
			Text:        c.Text,
			Type:        c.Type,
			Points:      c.Points,
			Explanation: c.Explanation,
			Tags:        []string{"ai-generated", "batch:" + batchID},
		}
		for _, a := range c.Answers {
			req.Answers = append(req.Answers, AnswerRequest{Text: a.Text, IsCorrect: a.Correct})
		}
		reqs = append(reqs, req)
	}

	questions, err := s.BulkCreateQuestions(creatorID, quizID, reqs)
	if err != nil {
		return nil, "", err
	}
	return questions, batchID, nil
}

// QuestionView 对外视图，选项已解码（作答场景下不暴露 isCorrect 由 controller 决定）
type QuestionView struct {
	model.Question
	AnswerList []model.Answer `json:"answers"`
}

func (s *QuestionService) GetQuestionsByQuiz(quizID, requesterID uint) ([]QuestionView, error) {
	if _, err := s.visibleQuiz(quizID, requesterID); err != nil {
		return nil, err
	}

	questions, err := s.QuestionRepo.ListActiveByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	views := make([]QuestionView, 0, len(questions))
	for _, q := range questions {
		answers, err := q.DecodeAnswers()
		if err != nil {
			return nil, err
		}
		views = append(views, QuestionView{Question: q, AnswerList: answers})
	}
	return views, nil
}

type QuestionStats struct {
	Total        int64            `json:"total"`
	ByType       map[string]int64 `json:"byType"`
	ByDifficulty map[string]int64 `json:"byDifficulty"`
}

func (s *QuestionService) GetQuestionStats(quizID, requesterID uint) (*QuestionStats, error) {
	if _, err := s.visibleQuiz(quizID, requesterID); err != nil {
		return nil, err
	}

	total, err := s.QuestionRepo.CountActiveByQuiz(quizID)
	if err != nil {
		return nil, err
	}
	byType, err := s.QuestionRepo.CountByType(quizID)
	if err != nil {
		return nil, err
	}
	byDifficulty, err := s.QuestionRepo.CountByDifficulty(quizID)
	if err != nil {
		return nil, err
	}

	stats := &QuestionStats{
		Total:        total,
		ByType:       make(map[string]int64),
		ByDifficulty: make(map[string]int64),
	}
	for _, row := range byType {
		stats.ByType[row.Key] = row.Count
	}
	for _, row := range byDifficulty {
		stats.ByDifficulty[row.Key] = row.Count
	}
	return stats, nil
}
