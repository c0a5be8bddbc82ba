package util

import "errors"

var (
	ErrUserNotFound    = errors.New("用户不存在")
	ErrEmailRegistered = errors.New("该邮箱已被注册")

	ErrPermissionDenied = errors.New("permission denied")

	ErrQuizNotFound     = errors.New("quiz not found")
	ErrQuestionNotFound = errors.New("question not found")
	ErrAttemptNotFound  = errors.New("attempt not found")
	ErrSetNotFound      = errors.New("flashcard set not found")
	ErrCardNotFound     = errors.New("flashcard not found")

	ErrValidation = errors.New("validation failed")

	ErrAttemptNotInProgress = errors.New("attempt is not in progress")
	ErrAttemptCompleted     = errors.New("completed attempts cannot be deleted")
	ErrAttemptNotCompleted  = errors.New("attempt is not completed yet")
)

// ValidationError 把具体原因挂在 ErrValidation 上，controller 统一按 400 处理
func ValidationError(msg string) error {
	return errors.Join(ErrValidation, errors.New(msg))
}
