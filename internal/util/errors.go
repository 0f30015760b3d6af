package util

import "errors"

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrQuestionNotFound  = errors.New("question not found")
	ErrQuizNotFound      = errors.New("quiz not found")
	ErrQuizNameTaken     = errors.New("quiz name already in use")
	ErrAttemptNotFound   = errors.New("attempt not found")
	ErrEmptyQuestionPool = errors.New("quiz has no available questions")
	ErrAttemptFinished   = errors.New("attempt already completed or abandoned")
	ErrQuestionNotInSet  = errors.New("question is not part of this attempt")
	ErrInvalidCredential = errors.New("invalid credentials")
	ErrPermissionDenied  = errors.New("permission denied")
)
