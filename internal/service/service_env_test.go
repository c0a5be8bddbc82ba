package service

import (
	"os"
	"testing"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/pkg/logger"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	os.Exit(m.Run())
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.GradeLevel{},
		&model.Quiz{},
		&model.Question{},
		&model.Attempt{},
		&model.AttemptAnswer{},
		&model.FlashcardSet{},
		&model.Flashcard{},
	))
	return db
}

type testEnv struct {
	db        *gorm.DB
	quiz      *QuizService
	question  *QuestionService
	attempt   *AttemptService
	flashcard *FlashcardService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := newTestDB(t)

	quizRepo := repository.NewQuizRepository(db)
	questionRepo := repository.NewQuestionRepository(db)
	attemptRepo := repository.NewAttemptRepository(db)
	flashcardRepo := repository.NewFlashcardRepository(db)

	return &testEnv{
		db:        db,
		quiz:      NewQuizService(quizRepo, questionRepo, db),
		question:  NewQuestionService(questionRepo, quizRepo, db),
		attempt:   NewAttemptService(attemptRepo, quizRepo, questionRepo, nil, db),
		flashcard: NewFlashcardService(flashcardRepo, db),
	}
}

func createUser(t *testing.T, db *gorm.DB, name string, role model.UserRole) *model.User {
	t.Helper()
	user := &model.User{
		Name:     name,
		Email:    name + "@example.com",
		Password: "hashed",
		Role:     role,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

// mcQuestion 一道多选题：第一个选项为正确答案
func mcQuestion(text string, points int) QuestionCreateRequest {
	return QuestionCreateRequest{
		Text:   text,
		Type:   model.QuestionTypeMultipleChoice,
		Points: &points,
		Answers: []AnswerRequest{
			{Text: "correct option", IsCorrect: true},
			{Text: "wrong option A"},
			{Text: "wrong option B"},
		},
	}
}

func tfQuestion(text string, points int) QuestionCreateRequest {
	return QuestionCreateRequest{
		Text:   text,
		Type:   model.QuestionTypeTrueFalse,
		Points: &points,
		Answers: []AnswerRequest{
			{Text: "True", IsCorrect: true},
			{Text: "False"},
		},
	}
}

// correctIDs 解析题目选项并返回正确选项的 id 集合
func correctIDs(t *testing.T, q *model.Question) []string {
	t.Helper()
	answers, err := q.DecodeAnswers()
	require.NoError(t, err)
	var ids []string
	for _, a := range answers {
		if a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}

func wrongIDs(t *testing.T, q *model.Question) []string {
	t.Helper()
	answers, err := q.DecodeAnswers()
	require.NoError(t, err)
	var ids []string
	for _, a := range answers {
		if !a.IsCorrect {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
