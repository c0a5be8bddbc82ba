package service

import (
	"testing"

	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFlashcardSetLifecycle(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)

	set, err := env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "英语词汇", Subject: "English"})
	require.NoError(t, err)
	assert.True(t, set.IsActive)
	assert.False(t, set.IsPublic)

	// 卡片按加入顺序编号
	c1, err := env.flashcard.AddCard(set.ID, tutor.ID, &FlashcardRequest{Front: "apple", Back: "苹果"})
	require.NoError(t, err)
	c2, err := env.flashcard.AddCard(set.ID, tutor.ID, &FlashcardRequest{Front: "banana", Back: "香蕉"})
	require.NoError(t, err)
	assert.Equal(t, 1, c1.Order)
	assert.Equal(t, 2, c2.Order)

	view, err := env.flashcard.GetSet(set.ID, tutor.ID)
	require.NoError(t, err)
	require.Len(t, view.Cards, 2)
	assert.Equal(t, "apple", view.Cards[0].Front)

	// 删除单张卡不影响其余卡的序号
	require.NoError(t, env.flashcard.DeleteCard(c1.ID, tutor.ID))
	view, err = env.flashcard.GetSet(set.ID, tutor.ID)
	require.NoError(t, err)
	require.Len(t, view.Cards, 1)
	assert.Equal(t, 2, view.Cards[0].Order)
}

func TestFlashcardSetVisibility(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	other := createUser(t, env.db, "student1", model.Student)

	private, err := env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "私有集"})
	require.NoError(t, err)
	_, err = env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "公开集", IsPublic: true})
	require.NoError(t, err)

	_, err = env.flashcard.GetSet(private.ID, other.ID)
	assert.ErrorIs(t, err, util.ErrSetNotFound)

	// 游客只见公开集
	sets, total, err := env.flashcard.ListSets(0, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, "公开集", sets[0].Title)

	// 创建者两个都可见
	_, total, err = env.flashcard.ListSets(tutor.ID, "", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
}

func TestFlashcardOwnership(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)
	intruder := createUser(t, env.db, "tutor2", model.Tutor)

	set, err := env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "公开集", IsPublic: true})
	require.NoError(t, err)
	card, err := env.flashcard.AddCard(set.ID, tutor.ID, &FlashcardRequest{Front: "front", Back: "back"})
	require.NoError(t, err)

	_, err = env.flashcard.AddCard(set.ID, intruder.ID, &FlashcardRequest{Front: "x", Back: "y"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = env.flashcard.UpdateCard(card.ID, intruder.ID, &FlashcardRequest{Front: "x", Back: "y"})
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	err = env.flashcard.DeleteSet(set.ID, intruder.ID)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestDeleteSetCascadesToCards(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)

	set, err := env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "待删集"})
	require.NoError(t, err)
	card, err := env.flashcard.AddCard(set.ID, tutor.ID, &FlashcardRequest{Front: "f", Back: "b"})
	require.NoError(t, err)

	require.NoError(t, env.flashcard.DeleteSet(set.ID, tutor.ID))

	_, err = env.flashcard.GetSet(set.ID, tutor.ID)
	assert.ErrorIs(t, err, util.ErrSetNotFound)

	cards, err := env.flashcard.FlashcardRepo.ListActiveCards(set.ID)
	require.NoError(t, err)
	assert.Empty(t, cards)
	_ = card
}

func TestFlashcardValidation(t *testing.T) {
	env := newTestEnv(t)
	tutor := createUser(t, env.db, "tutor1", model.Tutor)

	_, err := env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "   "})
	assert.ErrorIs(t, err, util.ErrValidation)

	set, err := env.flashcard.CreateSet(tutor.ID, &FlashcardSetCreateRequest{Title: "合法"})
	require.NoError(t, err)

	_, err = env.flashcard.AddCard(set.ID, tutor.ID, &FlashcardRequest{Front: "", Back: "b"})
	assert.ErrorIs(t, err, util.ErrValidation)
	_, err = env.flashcard.AddCard(set.ID, tutor.ID, &FlashcardRequest{Front: "f", Back: ""})
	assert.ErrorIs(t, err, util.ErrValidation)
}
