package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/util"
	"tutorhub_backend/pkg/logger"
	"tutorhub_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const quizStatsCacheTTL = 5 * time.Minute

type AttemptService struct {
	AttemptRepo  *repository.AttemptRepository
	QuizRepo     *repository.QuizRepository
	QuestionRepo *repository.QuestionRepository
	Redis        *redis.Client
	DB           *gorm.DB
}

func NewAttemptService(attemptRepo *repository.AttemptRepository, quizRepo *repository.QuizRepository,
	questionRepo *repository.QuestionRepository, rdb *redis.Client, db *gorm.DB) *AttemptService {
	return &AttemptService{
		AttemptRepo:  attemptRepo,
		QuizRepo:     quizRepo,
		QuestionRepo: questionRepo,
		Redis:        rdb,
		DB:           db,
	}
}

// Start 开始一次测验。同一 (student, quiz) 已有进行中的记录时幂等返回旧记录；
// 并发下重复创建会撞上 (student_id, quiz_id, active) 唯一索引，撞上后回读即可。
func (s *AttemptService) Start(studentID, quizID uint) (*model.Attempt, error) {
	quiz, err := s.QuizRepo.FindActiveByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if !quiz.VisibleTo(studentID) {
		return nil, util.ErrQuizNotFound
	}

	if existing, err := s.AttemptRepo.FindInProgress(studentID, quizID); err == nil {
		return existing, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	active := int8(1)
	attempt := &model.Attempt{
		QuizID:    quizID,
		StudentID: studentID,
		Status:    model.AttemptStatusInProgress,
		Active:    &active,
		StartedAt: time.Now(),
	}
	if err := s.AttemptRepo.Create(attempt); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// 并发 Start 输掉竞争的一方返回已存在的那条
			return s.AttemptRepo.FindInProgress(studentID, quizID)
		}
		return nil, err
	}
	monitoring.AttemptsStarted.Inc()
	return attempt, nil
}

// SubmittedAnswer 一道题的作答：题目 id 加选中的选项 id 集合
type SubmittedAnswer struct {
	QuestionID  uint     `json:"questionId"`
	SelectedIDs []string `json:"selectedIds"`
}

// round1 百分比统一保留 1 位小数
func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// Submit 提交并评分。只允许拥有者对进行中的记录提交一次；
// 评分后所有得分字段随 completed 状态一并冻结，重复提交报状态错误。
// max_score 覆盖测验全部活跃题目，未作答的题计入 max 但不得分。
func (s *AttemptService) Submit(attemptID, studentID uint, answers []SubmittedAnswer) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Status != model.AttemptStatusInProgress {
		return nil, util.ErrAttemptNotInProgress
	}

	questions, err := s.QuestionRepo.ListActiveByQuiz(attempt.QuizID)
	if err != nil {
		return nil, err
	}

	// 评分时不走 FindActiveByID：测验中途被软删，历史提交仍按原配置评分
	var quiz model.Quiz
	if err := s.DB.First(&quiz, attempt.QuizID).Error; err != nil {
		return nil, err
	}

	byQuestion := make(map[uint][]string, len(answers))
	for _, a := range answers {
		if _, dup := byQuestion[a.QuestionID]; dup {
			continue // 同一题重复提交时以第一次为准
		}
		byQuestion[a.QuestionID] = a.SelectedIDs
	}

	var (
		score        int
		maxScore     int
		correctCount int
		records      []model.AttemptAnswer
	)
	for _, q := range questions {
		maxScore += q.Points

		selected, answered := byQuestion[q.ID]
		if !answered {
			continue
		}
		correct, err := q.CheckAnswer(selected)
		if err != nil {
			return nil, err
		}
		earned := 0
		if correct {
			score += q.Points
			correctCount++
			earned = q.Points
		}
		sb, _ := json.Marshal(selected)
		records = append(records, model.AttemptAnswer{
			AttemptID:    attempt.ID,
			QuestionID:   q.ID,
			Selected:     string(sb),
			IsCorrect:    correct,
			PointsEarned: earned,
		})
	}

	percentage := 0.0
	if maxScore > 0 {
		percentage = round1(float64(score) / float64(maxScore) * 100)
	}

	now := time.Now()
	attempt.Status = model.AttemptStatusCompleted
	attempt.Active = nil
	attempt.Score = score
	attempt.MaxScore = maxScore
	attempt.CorrectCount = correctCount
	attempt.TotalQuestions = len(questions)
	attempt.Percentage = percentage
	attempt.Passed = percentage >= float64(quiz.PassingScore)
	attempt.CompletedAt = &now

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Save(attempt).Error; err != nil {
			return err
		}
		return s.AttemptRepo.CreateAnswers(tx, records)
	})
	if err != nil {
		return nil, err
	}

	result := "failed"
	if attempt.Passed {
		result = "passed"
	}
	monitoring.AttemptsSubmitted.WithLabelValues(result).Inc()

	s.invalidateStatsCache(attempt.QuizID)
	return attempt, nil
}

// AttemptReview 一次测验的回顾视图
type AttemptReview struct {
	Attempt *model.Attempt        `json:"attempt"`
	Answers []model.AttemptAnswer `json:"answers"`
}

// GetAttempt 学生本人或测验创建者可查看
func (s *AttemptService) GetAttempt(attemptID, requesterID uint) (*AttemptReview, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	if attempt.StudentID != requesterID {
		var quiz model.Quiz
		if err := s.DB.First(&quiz, attempt.QuizID).Error; err != nil {
			return nil, err
		}
		if quiz.CreatorID != requesterID {
			return nil, util.ErrAttemptNotFound
		}
	}

	answers, err := s.AttemptRepo.GetAnswers(attempt.ID)
	if err != nil {
		return nil, err
	}
	return &AttemptReview{Attempt: attempt, Answers: answers}, nil
}

func (s *AttemptService) ListByStudent(studentID uint, page, limit int) ([]model.Attempt, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	return s.AttemptRepo.ListByStudent(studentID, page, limit)
}

// ListByQuiz 仅测验创建者可列出全部学生的记录
func (s *AttemptService) ListByQuiz(quizID, requesterID uint) ([]model.Attempt, error) {
	quiz, err := s.QuizRepo.FindActiveByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if quiz.CreatorID != requesterID {
		return nil, util.ErrPermissionDenied
	}
	return s.AttemptRepo.ListByQuiz(quizID)
}

// Delete 学生删除自己的记录；已完成的记录是历史成绩，不允许删除
func (s *AttemptService) Delete(attemptID, studentID uint) error {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return util.ErrAttemptNotFound
		}
		return err
	}
	if attempt.StudentID != studentID {
		return util.ErrAttemptNotFound
	}
	if attempt.Status == model.AttemptStatusCompleted {
		return util.ErrAttemptCompleted
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		// 先清 active 标记释放唯一索引占位，软删行不占坑
		if err := tx.Model(&model.Attempt{}).Where("id = ?", attempt.ID).Update("active", nil).Error; err != nil {
			return err
		}
		return tx.Delete(attempt).Error
	})
}

// AddTutorFeedback 测验创建者给已完成的记录附加点评
func (s *AttemptService) AddTutorFeedback(attemptID, tutorID uint, feedback string) (*model.Attempt, error) {
	attempt, err := s.AttemptRepo.FindByID(attemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	var quiz model.Quiz
	if err := s.DB.First(&quiz, attempt.QuizID).Error; err != nil {
		return nil, err
	}
	if quiz.CreatorID != tutorID {
		return nil, util.ErrPermissionDenied
	}
	if attempt.Status != model.AttemptStatusCompleted {
		return nil, util.ErrAttemptNotCompleted
	}

	attempt.TutorFeedback = feedback
	if err := s.AttemptRepo.Update(attempt); err != nil {
		return nil, err
	}
	return attempt, nil
}

// AbandonStale 后台定时任务：把超时未提交的进行中记录置为 abandoned
func (s *AttemptService) AbandonStale(ttl time.Duration) error {
	affected, err := s.AttemptRepo.AbandonStale(time.Now().Add(-ttl))
	if err != nil {
		return err
	}
	if affected > 0 {
		logger.Log.Info("abandoned stale attempts", zap.Int64("count", affected))
	}
	return nil
}

// QuizStatistics 单个测验的作答统计
type QuizStatistics struct {
	QuizID        uint             `json:"quizId"`
	ByStatus      map[string]int64 `json:"byStatus"`
	Completed     int64            `json:"completed"`
	AvgScore      float64          `json:"avgScore"`
	AvgPercentage float64          `json:"avgPercentage"`
	PassCount     int64            `json:"passCount"`
	PassRate      float64          `json:"passRate"`
	// Distribution 按百分比分桶：[0,50) [50,70) [70,90) [90,100]
	Distribution map[string]int64 `json:"distribution"`
}

func (s *AttemptService) statsCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:stats:%d", quizID)
}

func (s *AttemptService) invalidateStatsCache(quizID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(context.Background(), s.statsCacheKey(quizID)).Err(); err != nil {
		logger.Log.Warn("failed to invalidate quiz stats cache", zap.Uint("quizId", quizID), zap.Error(err))
	}
}

// GetQuizStatistics 按需重算，不做增量聚合；结果短暂缓存，提交时失效
func (s *AttemptService) GetQuizStatistics(quizID, requesterID uint) (*QuizStatistics, error) {
	quiz, err := s.QuizRepo.FindActiveByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if quiz.CreatorID != requesterID {
		return nil, util.ErrPermissionDenied
	}

	ctx := context.Background()
	key := s.statsCacheKey(quizID)
	if s.Redis != nil {
		if val, err := s.Redis.Get(ctx, key).Result(); err == nil {
			var cached QuizStatistics
			if json.Unmarshal([]byte(val), &cached) == nil {
				return &cached, nil
			}
		} else if err != redis.Nil {
			logger.Log.Warn("quiz stats cache read failed", zap.Error(err))
		}
	}

	stats, err := s.computeQuizStatistics(quizID)
	if err != nil {
		return nil, err
	}

	if s.Redis != nil {
		if b, err := json.Marshal(stats); err == nil {
			if err := s.Redis.Set(ctx, key, b, quizStatsCacheTTL).Err(); err != nil {
				logger.Log.Warn("quiz stats cache write failed", zap.Error(err))
			}
		}
	}
	return stats, nil
}

func (s *AttemptService) computeQuizStatistics(quizID uint) (*QuizStatistics, error) {
	byStatus, err := s.AttemptRepo.CountByStatus(quizID)
	if err != nil {
		return nil, err
	}
	completed, err := s.AttemptRepo.ListCompletedByQuiz(quizID)
	if err != nil {
		return nil, err
	}

	stats := &QuizStatistics{
		QuizID:       quizID,
		ByStatus:     make(map[string]int64),
		Distribution: map[string]int64{"0-49": 0, "50-69": 0, "70-89": 0, "90-100": 0},
	}
	for _, row := range byStatus {
		stats.ByStatus[row.Status] = row.Count
	}
	stats.Completed = int64(len(completed))

	if len(completed) == 0 {
		return stats, nil
	}

	var scoreSum, pctSum float64
	for _, a := range completed {
		scoreSum += float64(a.Score)
		pctSum += a.Percentage
		if a.Passed {
			stats.PassCount++
		}
		switch {
		case a.Percentage < 50:
			stats.Distribution["0-49"]++
		case a.Percentage < 70:
			stats.Distribution["50-69"]++
		case a.Percentage < 90:
			stats.Distribution["70-89"]++
		default:
			stats.Distribution["90-100"]++
		}
	}
	n := float64(len(completed))
	stats.AvgScore = round1(scoreSum / n)
	stats.AvgPercentage = round1(pctSum / n)
	stats.PassRate = round1(float64(stats.PassCount) / n * 100)
	return stats, nil
}

// TutorStatistics 创建者名下全部测验的汇总
type TutorStatistics struct {
	TutorID       uint                 `json:"tutorId"`
	QuizCount     int                  `json:"quizCount"`
	TotalAttempts int                  `json:"totalAttempts"`
	AvgPercentage float64              `json:"avgPercentage"`
	PassRate      float64              `json:"passRate"`
	PerQuiz       []TutorQuizBreakdown `json:"perQuiz"`
}

type TutorQuizBreakdown struct {
	QuizID        uint    `json:"quizId"`
	Title         string  `json:"title"`
	Attempts      int     `json:"attempts"`
	AvgPercentage float64 `json:"avgPercentage"`
}

func (s *AttemptService) GetTutorStatistics(tutorID uint) (*TutorStatistics, error) {
	quizzes, err := s.QuizRepo.ListActiveByCreator(tutorID)
	if err != nil {
		return nil, err
	}

	stats := &TutorStatistics{TutorID: tutorID, QuizCount: len(quizzes)}
	if len(quizzes) == 0 {
		return stats, nil
	}

	ids := make([]uint, 0, len(quizzes))
	titles := make(map[uint]string, len(quizzes))
	for _, q := range quizzes {
		ids = append(ids, q.ID)
		titles[q.ID] = q.Title
	}

	attempts, err := s.AttemptRepo.ListCompletedByQuizzes(ids)
	if err != nil {
		return nil, err
	}

	var pctSum float64
	var passCount int
	perQuizSum := make(map[uint]float64)
	perQuizCount := make(map[uint]int)
	for _, a := range attempts {
		pctSum += a.Percentage
		if a.Passed {
			passCount++
		}
		perQuizSum[a.QuizID] += a.Percentage
		perQuizCount[a.QuizID]++
	}

	stats.TotalAttempts = len(attempts)
	if len(attempts) > 0 {
		stats.AvgPercentage = round1(pctSum / float64(len(attempts)))
		stats.PassRate = round1(float64(passCount) / float64(len(attempts)) * 100)
	}

	for _, id := range ids {
		if perQuizCount[id] == 0 {
			continue
		}
		stats.PerQuiz = append(stats.PerQuiz, TutorQuizBreakdown{
			QuizID:        id,
			Title:         titles[id],
			Attempts:      perQuizCount[id],
			AvgPercentage: round1(perQuizSum[id] / float64(perQuizCount[id])),
		})
	}
	return stats, nil
}
