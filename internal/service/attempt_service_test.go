package service

import (
	"testing"
	"time"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// setupQuiz 建一个公开测验带三道 10 分题，返回测验和按序的题目
func setupQuiz(t *testing.T, env *testEnv, tutorID uint) (*model.Quiz, []model.Question) {
	t.Helper()
	quiz, err := env.quiz.CreateQuiz(tutorID, QuizCreateRequest{Title: "综合测验", IsPublic: true})
	require.NoError(t, err)

	for _, text := range []string{"第一题", "第二题", "第三题"} {
		_, err := env.question.CreateQuestion(tutorID, quiz.ID, mcQuestion(text, 10))
		require.NoError(t, err)
	}
	questions, err := env.question.QuestionRepo.ListActiveByQuiz(quiz.ID)
	require.NoError(t, err)
	require.Len(t, questions, 3)
	return quiz, questions
}

func TestStartAttemptIdempotent(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, _ := setupQuiz(t, env, tutor.ID)

	first, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusInProgress, first.Status)

	// 进行中时重复开始返回同一条记录，不新建
	second, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	var count int64
	env.db.Model(&model.Attempt{}).Where("student_id = ?", student.ID).Count(&count)
	assert.EqualValues(t, 1, count)
}

func TestStartAttemptVisibility(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)

	private, err := env.quiz.CreateQuiz(tutor.ID, QuizCreateRequest{Title: "私有"})
	require.NoError(t, err)

	_, err = env.attempt.Start(student.ID, private.ID)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)

	// 创建者可以作答自己的私有测验
	_, err = env.attempt.Start(tutor.ID, private.ID)
	assert.NoError(t, err)
}

func TestSubmitScoring(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, questions := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	// 一道答对、一道答错、一道不答：10/30
	answers := []SubmittedAnswer{
		{QuestionID: questions[0].ID, SelectedIDs: correctIDs(t, &questions[0])},
		{QuestionID: questions[1].ID, SelectedIDs: wrongIDs(t, &questions[1])[:1]},
	}

	result, err := env.attempt.Submit(attempt.ID, student.ID, answers)
	require.NoError(t, err)

	assert.Equal(t, model.AttemptStatusCompleted, result.Status)
	assert.Equal(t, 10, result.Score)
	assert.Equal(t, 30, result.MaxScore)
	assert.Equal(t, 1, result.CorrectCount)
	assert.Equal(t, 3, result.TotalQuestions)
	assert.InDelta(t, 33.3, result.Percentage, 0.001)
	assert.False(t, result.Passed)
	assert.NotNil(t, result.CompletedAt)
	assert.Nil(t, result.Active)
}

func TestSubmitPassBoundary(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)

	// passingScore 50，两题各 10 分，答对一题恰好 50%
	quiz, err := env.quiz.CreateQuiz(tutor.ID, QuizCreateRequest{Title: "及格线", IsPublic: true, PassingScore: intPtr(50)})
	require.NoError(t, err)
	_, err = env.question.CreateQuestion(tutor.ID, quiz.ID, tfQuestion("T1", 10))
	require.NoError(t, err)
	_, err = env.question.CreateQuestion(tutor.ID, quiz.ID, tfQuestion("T2", 10))
	require.NoError(t, err)
	questions, err := env.question.QuestionRepo.ListActiveByQuiz(quiz.ID)
	require.NoError(t, err)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	result, err := env.attempt.Submit(attempt.ID, student.ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, SelectedIDs: correctIDs(t, &questions[0])},
	})
	require.NoError(t, err)

	assert.InDelta(t, 50.0, result.Percentage, 0.001)
	assert.True(t, result.Passed, "percentage equal to passing score counts as passed")
}

func TestSubmitFrozenAfterCompletion(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, questions := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	_, err = env.attempt.Submit(attempt.ID, student.ID, nil)
	require.NoError(t, err)

	// 重复提交被拒绝，成绩不变
	_, err = env.attempt.Submit(attempt.ID, student.ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, SelectedIDs: correctIDs(t, &questions[0])},
	})
	assert.ErrorIs(t, err, util.ErrAttemptNotInProgress)

	reloaded, err := env.attempt.AttemptRepo.FindByID(attempt.ID)
	require.NoError(t, err)
	assert.Zero(t, reloaded.Score)

	// 完成后可以开始新一轮
	again, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	assert.NotEqual(t, attempt.ID, again.ID)
}

func TestSubmitOwnershipAndRecords(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	intruder := createUser(t, env.db, "student2", model.Student)
	quiz, questions := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	// 别人的作答记录按不存在处理
	_, err = env.attempt.Submit(attempt.ID, intruder.ID, nil)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)

	_, err = env.attempt.Submit(attempt.ID, student.ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, SelectedIDs: correctIDs(t, &questions[0])},
		{QuestionID: questions[1].ID, SelectedIDs: wrongIDs(t, &questions[1])[:1]},
	})
	require.NoError(t, err)

	// 逐题回顾：本人和测验创建者可见，旁人不可见
	review, err := env.attempt.GetAttempt(attempt.ID, student.ID)
	require.NoError(t, err)
	assert.Len(t, review.Answers, 2)

	_, err = env.attempt.GetAttempt(attempt.ID, tutor.ID)
	assert.NoError(t, err)

	_, err = env.attempt.GetAttempt(attempt.ID, intruder.ID)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}

func TestDeleteAttemptRestrictions(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, _ := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	// 删除进行中的记录后可以重新开始
	require.NoError(t, env.attempt.Delete(attempt.ID, student.ID))
	fresh, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	assert.NotEqual(t, attempt.ID, fresh.ID)

	// 已完成的记录是历史成绩，不能删
	_, err = env.attempt.Submit(fresh.ID, student.ID, nil)
	require.NoError(t, err)
	err = env.attempt.Delete(fresh.ID, student.ID)
	assert.ErrorIs(t, err, util.ErrAttemptCompleted)

	// 别人的记录删不掉
	another, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	err = env.attempt.Delete(another.ID, tutor.ID)
	assert.ErrorIs(t, err, util.ErrAttemptNotFound)
}

func TestAbandonStale(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, _ := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	// 把开始时间拨回 25 小时前
	stale := time.Now().Add(-25 * time.Hour)
	require.NoError(t, env.db.Model(&model.Attempt{}).Where("id = ?", attempt.ID).Update("started_at", stale).Error)

	require.NoError(t, env.attempt.AbandonStale(24*time.Hour))

	reloaded, err := env.attempt.AttemptRepo.FindByID(attempt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AttemptStatusAbandoned, reloaded.Status)
	assert.Nil(t, reloaded.Active)

	// 放弃后可以重新开始
	fresh, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)
	assert.NotEqual(t, attempt.ID, fresh.ID)
}

func TestTutorFeedback(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	outsider := createUser(t, env.db, "tutor2", model.Tutor)
	quiz, _ := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	// 进行中的记录不能点评
	_, err = env.attempt.AddTutorFeedback(attempt.ID, tutor.ID, "先交卷")
	assert.ErrorIs(t, err, util.ErrAttemptNotCompleted)

	_, err = env.attempt.Submit(attempt.ID, student.ID, nil)
	require.NoError(t, err)

	// 只有测验创建者能点评
	_, err = env.attempt.AddTutorFeedback(attempt.ID, outsider.ID, "不错")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	updated, err := env.attempt.AddTutorFeedback(attempt.ID, tutor.ID, "概念掌握得很好")
	require.NoError(t, err)
	assert.Equal(t, "概念掌握得很好", updated.TutorFeedback)
}

func TestQuizStatistics(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	quiz, questions := setupQuiz(t, env, tutor.ID)

	// 三个学生：满分、10/30、弃考
	students := []*model.User{
		createUser(t, env.db, "s1", model.Student),
		createUser(t, env.db, "s2", model.Student),
		createUser(t, env.db, "s3", model.Student),
	}

	a1, err := env.attempt.Start(students[0].ID, quiz.ID)
	require.NoError(t, err)
	var full []SubmittedAnswer
	for i := range questions {
		full = append(full, SubmittedAnswer{QuestionID: questions[i].ID, SelectedIDs: correctIDs(t, &questions[i])})
	}
	_, err = env.attempt.Submit(a1.ID, students[0].ID, full)
	require.NoError(t, err)

	a2, err := env.attempt.Start(students[1].ID, quiz.ID)
	require.NoError(t, err)
	_, err = env.attempt.Submit(a2.ID, students[1].ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, SelectedIDs: correctIDs(t, &questions[0])},
	})
	require.NoError(t, err)

	_, err = env.attempt.Start(students[2].ID, quiz.ID)
	require.NoError(t, err)

	// 只有创建者能看统计
	_, err = env.attempt.GetQuizStatistics(quiz.ID, students[0].ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	stats, err := env.attempt.GetQuizStatistics(quiz.ID, tutor.ID)
	require.NoError(t, err)

	assert.EqualValues(t, 2, stats.Completed)
	assert.EqualValues(t, 2, stats.ByStatus[model.AttemptStatusCompleted])
	assert.EqualValues(t, 1, stats.ByStatus[model.AttemptStatusInProgress])
	assert.InDelta(t, 20.0, stats.AvgScore, 0.001)      // (30+10)/2
	assert.InDelta(t, 66.65, stats.AvgPercentage, 0.051) // (100+33.3)/2 保留一位小数
	assert.EqualValues(t, 1, stats.PassCount)
	assert.InDelta(t, 50.0, stats.PassRate, 0.001)
	assert.EqualValues(t, 1, stats.Distribution["0-49"])
	assert.EqualValues(t, 1, stats.Distribution["90-100"])
}

func TestTutorStatisticsAcrossQuizzes(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)

	quizA, questionsA := setupQuiz(t, env, tutor.ID)
	quizB, err := env.quiz.CreateQuiz(tutor.ID, QuizCreateRequest{Title: "第二套", IsPublic: true})
	require.NoError(t, err)

	a, err := env.attempt.Start(student.ID, quizA.ID)
	require.NoError(t, err)
	_, err = env.attempt.Submit(a.ID, student.ID, []SubmittedAnswer{
		{QuestionID: questionsA[0].ID, SelectedIDs: correctIDs(t, &questionsA[0])},
	})
	require.NoError(t, err)

	stats, err := env.attempt.GetTutorStatistics(tutor.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, stats.QuizCount)
	assert.Equal(t, 1, stats.TotalAttempts)
	assert.InDelta(t, 33.3, stats.AvgPercentage, 0.001)
	require.Len(t, stats.PerQuiz, 1, "quizzes without completed attempts are omitted")
	assert.Equal(t, quizA.ID, stats.PerQuiz[0].QuizID)
	_ = quizB
}

func TestListByQuizRequiresCreator(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, _ := setupQuiz(t, env, tutor.ID)

	_, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	_, err = env.attempt.ListByQuiz(quiz.ID, student.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	attempts, err := env.attempt.ListByQuiz(quiz.ID, tutor.ID)
	require.NoError(t, err)
	assert.Len(t, attempts, 1)
}

func TestActiveUniqueIndexBlocksSecondInProgress(t *testing.T) {
	// 并发 Start 的兜底：绕过服务层直接插入第二条进行中的记录必须被唯一索引拒绝
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, _ := setupQuiz(t, env, tutor.ID)

	_, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	active := int8(1)
	dup := &model.Attempt{
		QuizID:    quiz.ID,
		StudentID: student.ID,
		Status:    model.AttemptStatusInProgress,
		Active:    &active,
		StartedAt: time.Now(),
	}
	err = env.attempt.AttemptRepo.Create(dup)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestSubmitGradesAgainstDeletedQuizConfig(t *testing.T) {
	// 作答期间测验被软删：提交仍按原配置评分
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	student := createUser(t, env.db, "student1", model.Student)
	quiz, questions := setupQuiz(t, env, tutor.ID)

	attempt, err := env.attempt.Start(student.ID, quiz.ID)
	require.NoError(t, err)

	require.NoError(t, env.db.Model(&model.Quiz{}).Where("id = ?", quiz.ID).Update("is_active", false).Error)

	result, err := env.attempt.Submit(attempt.ID, student.ID, []SubmittedAnswer{
		{QuestionID: questions[0].ID, SelectedIDs: correctIDs(t, &questions[0])},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, result.Score)
}
