package util

import "errors"

var (
	ErrPermissionDenied    = errors.New("permission denied")
	ErrCourseNotFound      = errors.New("course not found")
	ErrQuizNotFound        = errors.New("quiz not found")
	ErrNotEnrolled         = errors.New("not enrolled in this course")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrInvalidLesson       = errors.New("invalid lesson id")
	ErrInvalidPassingScore = errors.New("passing score must be between 0 and 100")
	ErrPersistence         = errors.New("persistence failure")
)
