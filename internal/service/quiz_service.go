package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learnhub_backend/internal/grading"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/logger"
	"learnhub_backend/pkg/monitoring"
	"learnhub_backend/pkg/tracing"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type QuizService struct {
	DB                  *gorm.DB
	QuizRepo            *repository.QuizRepository
	CourseRepo          *repository.CourseRepository
	EnrollmentRepo      *repository.EnrollmentRepository
	AttemptRepo         *repository.QuizAttemptRepository
	DefaultPassingScore int
}

func NewQuizService(
	db *gorm.DB,
	quizRepo *repository.QuizRepository,
	courseRepo *repository.CourseRepository,
	enrollmentRepo *repository.EnrollmentRepository,
	attemptRepo *repository.QuizAttemptRepository,
	defaultPassingScore int,
) *QuizService {
	return &QuizService{
		DB:                  db,
		QuizRepo:            quizRepo,
		CourseRepo:          courseRepo,
		EnrollmentRepo:      enrollmentRepo,
		AttemptRepo:         attemptRepo,
		DefaultPassingScore: defaultPassingScore,
	}
}

type CreateQuizReq struct {
	Questions    []model.QuestionSpec `json:"questions" binding:"required"`
	PassingScore *int                 `json:"passingScore"`
}

// CreateQuiz 总是插入新版本，不修改已有测验
func (s *QuizService) CreateQuiz(ctx context.Context, creatorID, courseID uint, req CreateQuizReq) (*model.Quiz, error) {
	if _, err := s.CourseRepo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrCourseNotFound
		}
		return nil, err
	}

	if len(req.Questions) == 0 {
		return nil, grading.ErrInvalidQuiz
	}
	for i, q := range req.Questions {
		if _, err := grading.ParseQuestion(q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i, err)
		}
	}

	passingScore := s.DefaultPassingScore
	if req.PassingScore != nil {
		passingScore = *req.PassingScore
	}
	if passingScore < 0 || passingScore > 100 {
		return nil, util.ErrInvalidPassingScore
	}

	quiz := &model.Quiz{
		CourseID:     courseID,
		Questions:    req.Questions,
		PassingScore: passingScore,
		CreatorID:    creatorID,
	}
	if err := s.QuizRepo.Create(ctx, quiz); err != nil {
		return nil, err
	}

	logger.Log.Info("quiz version created",
		zap.Uint("quiz_id", quiz.ID),
		zap.Uint("course_id", courseID),
		zap.Int("questions", len(req.Questions)),
	)
	return quiz, nil
}

type QuestionView struct {
	Index   int                `json:"index"`
	Type    model.QuestionType `json:"type"`
	Prompt  string             `json:"prompt"`
	Options []string           `json:"options,omitempty"`
}

// QuizView 学生端看到的测验，不包含正确答案
type QuizView struct {
	ID           uint           `json:"id"`
	CourseID     uint           `json:"courseId"`
	PassingScore int            `json:"passingScore"`
	Questions    []QuestionView `json:"questions"`
	CreatedAt    time.Time      `json:"createdAt"`
}

func NewQuizView(quiz *model.Quiz) *QuizView {
	view := &QuizView{
		ID:           quiz.ID,
		CourseID:     quiz.CourseID,
		PassingScore: quiz.PassingScore,
		Questions:    make([]QuestionView, len(quiz.Questions)),
		CreatedAt:    quiz.CreatedAt,
	}
	for i, q := range quiz.Questions {
		view.Questions[i] = QuestionView{
			Index:   i,
			Type:    q.Type,
			Prompt:  q.Prompt,
			Options: q.Options,
		}
	}
	return view
}

func (s *QuizService) CurrentQuiz(ctx context.Context, courseID uint) (*QuizView, error) {
	quiz, err := s.QuizRepo.FindLatestByCourse(ctx, courseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return NewQuizView(quiz), nil
}

// QuizSubmission 兼容 {quizId, answers} 与 {courseId, quizId, answers} 两种请求体
type QuizSubmission struct {
	CourseID *uint           `json:"courseId"`
	QuizID   *uint           `json:"quizId"`
	Answers  json.RawMessage `json:"answers"`
}

type AttemptResult struct {
	AttemptID       string                   `json:"attemptId"`
	Score           int                      `json:"score"`
	Passed          bool                     `json:"passed"`
	PassingScore    int                      `json:"passingScore"`
	Results         []grading.QuestionResult `json:"results"`
	AttemptedAt     time.Time                `json:"attemptedAt"`
	CourseCompleted bool                     `json:"courseCompleted"`
}

// SubmitQuiz 评分并记录一次作答；首次及格时把报名标记为已完成（只会发生一次）。
// 作答写入与完成状态切换在同一事务中，失败时整体回滚。
func (s *QuizService) SubmitQuiz(ctx context.Context, userID, quizID uint, req QuizSubmission) (*AttemptResult, error) {
	ctx, span := tracing.StartSpan(ctx, "QuizService.SubmitQuiz",
		attribute.Int64("user.id", int64(userID)),
		attribute.Int64("quiz.id", int64(quizID)),
	)
	defer span.End()

	result, err := s.submit(ctx, userID, quizID, req)
	if err != nil {
		reason := failureReason(err)
		monitoring.QuizSubmitFailures.WithLabelValues(reason).Inc()
		span.SetStatus(codes.Error, reason)

		if reason != "internal" {
			return nil, err
		}
		span.RecordError(err)
		logger.Log.Error("quiz submission rolled back",
			zap.Uint("user_id", userID),
			zap.Uint("quiz_id", quizID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %w", util.ErrPersistence, err)
	}

	monitoring.ObserveAttempt(result.Score, result.Passed, result.CourseCompleted)
	span.SetAttributes(
		attribute.Int("attempt.score", result.Score),
		attribute.Bool("attempt.passed", result.Passed),
		attribute.Bool("enrollment.completed", result.CourseCompleted),
	)
	if result.CourseCompleted {
		logger.Log.Info("course completed",
			zap.Uint("user_id", userID),
			zap.Uint("quiz_id", quizID),
			zap.String("attempt_id", result.AttemptID),
		)
	}
	return result, nil
}

func (s *QuizService) submit(ctx context.Context, userID, quizID uint, req QuizSubmission) (*AttemptResult, error) {
	// 1. 加载测验
	quiz, err := s.QuizRepo.FindByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	if req.CourseID != nil && *req.CourseID != quiz.CourseID {
		return nil, util.ErrQuizNotFound
	}

	var result *AttemptResult
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. 必须已报名该课程
		enrollment, err := s.EnrollmentRepo.FindByUserAndCourse(ctx, tx, userID, quiz.CourseID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrNotEnrolled
			}
			return err
		}

		// 3. 评分，及格线取本次作答的测验版本
		answers, err := grading.DecodeAnswers(req.Answers)
		if err != nil {
			return err
		}
		outcome, err := grading.Grade(grading.FromSpecs(quiz.Questions), answers)
		if err != nil {
			return err
		}
		passed := grading.Passed(outcome.Score, quiz.PassingScore)

		// 4. 写入作答记录
		now := time.Now()
		attempt, err := newAttempt(userID, quiz.ID, enrollment.ID, answers, outcome, passed, now)
		if err != nil {
			return err
		}
		if err := s.AttemptRepo.Create(ctx, tx, attempt); err != nil {
			return err
		}

		// 5. 条件更新，受影响行数决定本次是否完成了课程
		completed := false
		if passed {
			completed, err = s.EnrollmentRepo.MarkCompleted(ctx, tx, enrollment.ID, now)
			if err != nil {
				return err
			}
		}

		result = &AttemptResult{
			AttemptID:       attempt.ID,
			Score:           outcome.Score,
			Passed:          passed,
			PassingScore:    quiz.PassingScore,
			Results:         outcome.Results,
			AttemptedAt:     now,
			CourseCompleted: completed,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func newAttempt(userID, quizID, enrollmentID uint, answers []grading.Answer, outcome grading.Outcome, passed bool, at time.Time) (*model.QuizAttempt, error) {
	rawAnswers, err := json.Marshal(answers)
	if err != nil {
		return nil, err
	}

	results := make([]model.AnswerResult, len(outcome.Results))
	for i, r := range outcome.Results {
		userAnswer, err := json.Marshal(r.UserAnswer)
		if err != nil {
			return nil, err
		}
		correctAnswer, err := json.Marshal(r.CorrectAnswer)
		if err != nil {
			return nil, err
		}
		results[i] = model.AnswerResult{
			QuestionIndex: r.QuestionIndex,
			UserAnswer:    userAnswer,
			CorrectAnswer: correctAnswer,
			IsCorrect:     r.IsCorrect,
		}
	}

	return &model.QuizAttempt{
		ID:           model.NewAttemptID(),
		UserID:       userID,
		QuizID:       quizID,
		EnrollmentID: enrollmentID,
		Answers:      rawAnswers,
		Results:      results,
		Score:        outcome.Score,
		Passed:       passed,
		AttemptedAt:  at,
	}, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, util.ErrQuizNotFound):
		return "quiz_not_found"
	case errors.Is(err, util.ErrNotEnrolled):
		return "not_enrolled"
	case errors.Is(err, grading.ErrMalformedAnswers):
		return "malformed_answers"
	case errors.Is(err, grading.ErrInvalidQuiz):
		return "invalid_quiz"
	default:
		return "internal"
	}
}

func (s *QuizService) ListAttempts(ctx context.Context, userID, quizID uint) ([]model.QuizAttempt, error) {
	if _, err := s.QuizRepo.FindByID(ctx, quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}
	return s.AttemptRepo.ListByUserAndQuiz(ctx, userID, quizID)
}
