package domain

import "errors"

var (
	// ErrScoreNotFound is returned when a nickname has no persisted score.
	ErrScoreNotFound = errors.New("score record not found")
	// ErrQuestionsUnavailable indicates the question provider kept failing
	// after every retry.
	ErrQuestionsUnavailable = errors.New("trivia questions unavailable")
)
