package service

import (
	"testing"
	"time"

	"tutorhub_backend/internal/config"
	"tutorhub_backend/internal/model"
	"tutorhub_backend/internal/repository"
	"tutorhub_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAuthService(t *testing.T) (*AuthService, *config.Config) {
	t.Helper()
	db := newTestDB(t)
	cfg := &config.Config{}
	cfg.JWT.Secret = "test-secret-for-unit-tests-only-32ch"
	cfg.JWT.ExpireTime = time.Hour
	return NewAuthService(repository.NewUserRepository(db), cfg), cfg
}

func TestRegisterDefaultsToStudent(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register(&RegisterRequest{Name: "小明", Email: "Ming@Example.com", Password: "secret123"})
	require.NoError(t, err)

	assert.Equal(t, model.Student, user.Role)
	assert.Equal(t, "ming@example.com", user.Email, "emails are normalized to lowercase")
	assert.NotEqual(t, "secret123", user.Password, "password must be hashed")
}

func TestRegisterRoleRules(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&RegisterRequest{Name: "导师", Email: "t@example.com", Password: "secret123", Role: "tutor"})
	assert.NoError(t, err)

	// 不允许自助注册管理员
	_, err = svc.Register(&RegisterRequest{Name: "黑客", Email: "h@example.com", Password: "secret123", Role: "admin"})
	assert.ErrorIs(t, err, util.ErrValidation)

	_, err = svc.Register(&RegisterRequest{Name: "怪人", Email: "w@example.com", Password: "secret123", Role: "wizard"})
	assert.ErrorIs(t, err, util.ErrValidation)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&RegisterRequest{Name: "甲", Email: "dup@example.com", Password: "secret123"})
	require.NoError(t, err)

	_, err = svc.Register(&RegisterRequest{Name: "乙", Email: "dup@example.com", Password: "secret123"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLogin(t *testing.T) {
	svc, _ := newAuthService(t)

	_, err := svc.Register(&RegisterRequest{Name: "小红", Email: "hong@example.com", Password: "secret123"})
	require.NoError(t, err)

	token, user, err := svc.Login("hong@example.com", "secret123")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "小红", user.Name)

	// token 可被解析回原身份
	claims, err := util.ParseJWT(token, "test-secret-for-unit-tests-only-32ch")
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	_, _, err = svc.Login("hong@example.com", "wrongpass")
	assert.Error(t, err)
	_, _, err = svc.Login("nobody@example.com", "secret123")
	assert.Error(t, err)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := newAuthService(t)

	user, err := svc.Register(&RegisterRequest{Name: "原名", Email: "p@example.com", Password: "secret123", Role: "tutor"})
	require.NoError(t, err)

	name := "新名字"
	bio := "十年教龄"
	updated, err := svc.UpdateProfile(user.ID, &ProfileUpdateRequest{
		Name:     &name,
		Bio:      &bio,
		Subjects: []string{"Math", "Physics"},
	})
	require.NoError(t, err)
	assert.Equal(t, "新名字", updated.Name)
	assert.Equal(t, "十年教龄", updated.Bio)
	assert.Contains(t, updated.Subjects, "Math")

	empty := "  "
	_, err = svc.UpdateProfile(user.ID, &ProfileUpdateRequest{Name: &empty})
	assert.ErrorIs(t, err, util.ErrValidation)
}
