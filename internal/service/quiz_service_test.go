package service

import (
	"context"
	"encoding/json"
	"errors"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/grading"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/database"
	"strings"
	"sync"
	"testing"

	"gorm.io/gorm"
)

type testEnv struct {
	db          *gorm.DB
	quizzes     *QuizService
	enrollments *EnrollmentService
	courses     *CourseService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.InitDB(&config.DatabaseConfig{Driver: database.DriverSQLite}, "release")
	if err != nil {
		t.Fatalf("InitDB: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}

	courseRepo := repository.NewCourseRepository(db)
	quizRepo := repository.NewQuizRepository(db, nil, 0)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	attemptRepo := repository.NewQuizAttemptRepository(db)

	return &testEnv{
		db:          db,
		quizzes:     NewQuizService(db, quizRepo, courseRepo, enrollmentRepo, attemptRepo, 70),
		enrollments: NewEnrollmentService(db, enrollmentRepo, courseRepo),
		courses:     NewCourseService(courseRepo),
	}
}

func (e *testEnv) course(t *testing.T, lessons int) *model.Course {
	t.Helper()
	c, err := e.courses.CreateCourse(context.Background(), 99, CourseReq{Title: "Geography", LessonCount: lessons})
	if err != nil {
		t.Fatalf("CreateCourse: %v", err)
	}
	return c
}

func question(t model.QuestionType, correct string, options ...string) model.QuestionSpec {
	return model.QuestionSpec{Type: t, Prompt: "prompt", Options: options, CorrectAnswer: json.RawMessage(correct)}
}

func scenarioQuestions() []model.QuestionSpec {
	return []model.QuestionSpec{
		question(model.MultipleChoice, `0`, "a", "b", "c"),
		question(model.TrueFalse, `true`, "True", "False"),
		question(model.FillInTheBlank, `"Paris"`),
		question(model.MultipleChoice, `2`, "a", "b", "c"),
	}
}

func (e *testEnv) quiz(t *testing.T, courseID uint, passing int) *model.Quiz {
	t.Helper()
	q, err := e.quizzes.CreateQuiz(context.Background(), 99, courseID, CreateQuizReq{
		Questions:    scenarioQuestions(),
		PassingScore: &passing,
	})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	return q
}

func (e *testEnv) enroll(t *testing.T, userID, courseID uint) *model.Enrollment {
	t.Helper()
	en, _, err := e.enrollments.Enroll(context.Background(), userID, courseID)
	if err != nil {
		t.Fatalf("Enroll: %v", err)
	}
	return en
}

func (e *testEnv) attemptCount(t *testing.T) int64 {
	t.Helper()
	var n int64
	if err := e.db.Model(&model.QuizAttempt{}).Count(&n).Error; err != nil {
		t.Fatalf("count attempts: %v", err)
	}
	return n
}

func (e *testEnv) reload(t *testing.T, id uint) *model.Enrollment {
	t.Helper()
	var en model.Enrollment
	if err := e.db.First(&en, id).Error; err != nil {
		t.Fatalf("reload enrollment: %v", err)
	}
	return &en
}

func submission(answers string) QuizSubmission {
	return QuizSubmission{Answers: json.RawMessage(answers)}
}

const passingAnswers = `[0, true, "paris", 1]`

func TestSubmitQuiz_ScenarioPassesAndCompletesCourse(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)
	en := env.enroll(t, 1, course.ID)

	res, err := env.quizzes.SubmitQuiz(context.Background(), 1, quiz.ID, submission(passingAnswers))
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if res.Score != 75 || !res.Passed || res.PassingScore != 70 {
		t.Fatalf("unexpected result %+v", res)
	}
	if !res.CourseCompleted {
		t.Fatalf("expected first passing attempt to complete the course")
	}
	if res.AttemptID == "" || len(res.Results) != 4 || res.Results[3].IsCorrect {
		t.Fatalf("unexpected attempt details %+v", res)
	}

	got := env.reload(t, en.ID)
	if !got.IsCompleted || got.CompletedAt == nil || got.Progress != 100 {
		t.Fatalf("expected completed enrollment, got %+v", got)
	}

	var attempt model.QuizAttempt
	if err := env.db.First(&attempt, "id = ?", res.AttemptID).Error; err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if attempt.Score != 75 || !attempt.Passed || attempt.EnrollmentID != en.ID {
		t.Fatalf("unexpected stored attempt %+v", attempt)
	}
	if string(attempt.Answers) != `[0,true,"paris",1]` {
		t.Fatalf("unexpected stored answers %s", attempt.Answers)
	}
}

func TestSubmitQuiz_RepassingDoesNotCompleteAgain(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)
	en := env.enroll(t, 1, course.ID)
	ctx := context.Background()

	first, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID, submission(passingAnswers))
	if err != nil || !first.CourseCompleted {
		t.Fatalf("first submit: %+v, %v", first, err)
	}
	completedAt := *env.reload(t, en.ID).CompletedAt

	second, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID, submission(`[0, true, "Paris", 2]`))
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if !second.Passed || second.Score != 100 || second.CourseCompleted {
		t.Fatalf("expected passing attempt without completion, got %+v", second)
	}

	got := env.reload(t, en.ID)
	if !got.IsCompleted || got.Progress != 100 || !got.CompletedAt.Equal(completedAt) {
		t.Fatalf("completion state changed: %+v", got)
	}
	if n := env.attemptCount(t); n != 2 {
		t.Fatalf("expected 2 attempts, got %d", n)
	}
}

func TestSubmitQuiz_FailingAttemptIsRecordedWithoutCompletion(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 80)
	en := env.enroll(t, 1, course.ID)

	res, err := env.quizzes.SubmitQuiz(context.Background(), 1, quiz.ID, submission(passingAnswers))
	if err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}
	if res.Passed || res.CourseCompleted || res.Score != 75 {
		t.Fatalf("expected failing attempt, got %+v", res)
	}
	if env.reload(t, en.ID).IsCompleted {
		t.Fatalf("failing attempt must not complete enrollment")
	}
	if n := env.attemptCount(t); n != 1 {
		t.Fatalf("expected 1 attempt, got %d", n)
	}
}

func TestSubmitQuiz_ConcurrentPassesCompleteExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)
	en := env.enroll(t, 1, course.ID)

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		completed int
		errs      []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := env.quizzes.SubmitQuiz(context.Background(), 1, quiz.ID, submission(passingAnswers))
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			if res.CourseCompleted {
				completed++
			}
		}()
	}
	wg.Wait()

	if len(errs) > 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	if completed != 1 {
		t.Fatalf("expected exactly one completion, got %d", completed)
	}
	if n := env.attemptCount(t); n != workers {
		t.Fatalf("expected %d attempts, got %d", workers, n)
	}
	if !env.reload(t, en.ID).IsCompleted {
		t.Fatalf("expected enrollment to be completed")
	}
}

func TestSubmitQuiz_NotEnrolledWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)

	_, err := env.quizzes.SubmitQuiz(context.Background(), 42, quiz.ID, submission(passingAnswers))
	if !errors.Is(err, util.ErrNotEnrolled) {
		t.Fatalf("expected ErrNotEnrolled, got %v", err)
	}
	if n := env.attemptCount(t); n != 0 {
		t.Fatalf("expected no attempts, got %d", n)
	}
}

func TestSubmitQuiz_MalformedAnswersWritesNothing(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)
	en := env.enroll(t, 1, course.ID)

	for _, raw := range []string{``, `null`, `{"0": 0}`, `"0,true"`} {
		_, err := env.quizzes.SubmitQuiz(context.Background(), 1, quiz.ID, submission(raw))
		if !errors.Is(err, grading.ErrMalformedAnswers) {
			t.Fatalf("answers %q: expected ErrMalformedAnswers, got %v", raw, err)
		}
	}
	if n := env.attemptCount(t); n != 0 {
		t.Fatalf("expected no attempts, got %d", n)
	}
	if env.reload(t, en.ID).IsCompleted {
		t.Fatalf("enrollment must stay incomplete")
	}
}

func TestSubmitQuiz_ZeroQuestionQuizIsInvalid(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	env.enroll(t, 1, course.ID)

	// 绕过 CreateQuiz 的校验，模拟历史脏数据
	empty := &model.Quiz{CourseID: course.ID, PassingScore: 0}
	if err := env.db.Create(empty).Error; err != nil {
		t.Fatalf("create empty quiz: %v", err)
	}

	_, err := env.quizzes.SubmitQuiz(context.Background(), 1, empty.ID, submission(`[]`))
	if !errors.Is(err, grading.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}
	if n := env.attemptCount(t); n != 0 {
		t.Fatalf("expected no attempts, got %d", n)
	}
}

func TestSubmitQuiz_UnknownQuizAndCourseMismatch(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	other := env.course(t, 2)
	quiz := env.quiz(t, course.ID, 70)
	env.enroll(t, 1, course.ID)
	ctx := context.Background()

	if _, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID+100, submission(passingAnswers)); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}

	req := submission(passingAnswers)
	req.CourseID = &other.ID
	if _, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID, req); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound for mismatched course, got %v", err)
	}

	req.CourseID = &course.ID
	if _, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID, req); err != nil {
		t.Fatalf("expected matching course to succeed, got %v", err)
	}
}

func TestSubmitQuiz_UsesThresholdOfAnsweredVersion(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	v1 := env.quiz(t, course.ID, 50)
	v2 := env.quiz(t, course.ID, 90)
	env.enroll(t, 1, course.ID)
	ctx := context.Background()

	res, err := env.quizzes.SubmitQuiz(ctx, 1, v1.ID, submission(passingAnswers))
	if err != nil || !res.Passed || res.PassingScore != 50 {
		t.Fatalf("expected v1 threshold 50 to pass, got %+v, %v", res, err)
	}

	res, err = env.quizzes.SubmitQuiz(ctx, 1, v2.ID, submission(passingAnswers))
	if err != nil || res.Passed || res.PassingScore != 90 {
		t.Fatalf("expected v2 threshold 90 to fail, got %+v, %v", res, err)
	}
}

func TestSubmitQuiz_CancelledContextRollsBack(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)
	en := env.enroll(t, 1, course.ID)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID, submission(passingAnswers))
	if err == nil {
		t.Fatalf("expected error for cancelled context")
	}
	if !errors.Is(err, context.Canceled) && !errors.Is(err, util.ErrPersistence) {
		t.Fatalf("unexpected error %v", err)
	}
	if n := env.attemptCount(t); n != 0 {
		t.Fatalf("expected no attempts, got %d", n)
	}
	if env.reload(t, en.ID).IsCompleted {
		t.Fatalf("enrollment must stay incomplete")
	}
}

func TestCreateQuiz_ValidatesAndVersions(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	ctx := context.Background()

	if _, err := env.quizzes.CreateQuiz(ctx, 99, course.ID+50, CreateQuizReq{Questions: scenarioQuestions()}); !errors.Is(err, util.ErrCourseNotFound) {
		t.Fatalf("expected ErrCourseNotFound, got %v", err)
	}
	if _, err := env.quizzes.CreateQuiz(ctx, 99, course.ID, CreateQuizReq{}); !errors.Is(err, grading.ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}
	bad := []model.QuestionSpec{question("essay", `"x"`)}
	if _, err := env.quizzes.CreateQuiz(ctx, 99, course.ID, CreateQuizReq{Questions: bad}); !errors.Is(err, grading.ErrInvalidQuestion) {
		t.Fatalf("expected ErrInvalidQuestion, got %v", err)
	}
	tooHigh := 101
	if _, err := env.quizzes.CreateQuiz(ctx, 99, course.ID, CreateQuizReq{Questions: scenarioQuestions(), PassingScore: &tooHigh}); !errors.Is(err, util.ErrInvalidPassingScore) {
		t.Fatalf("expected ErrInvalidPassingScore, got %v", err)
	}

	first, err := env.quizzes.CreateQuiz(ctx, 99, course.ID, CreateQuizReq{Questions: scenarioQuestions()})
	if err != nil {
		t.Fatalf("CreateQuiz: %v", err)
	}
	if first.PassingScore != 70 {
		t.Fatalf("expected default passing score 70, got %d", first.PassingScore)
	}
	second := env.quiz(t, course.ID, 60)

	view, err := env.quizzes.CurrentQuiz(ctx, course.ID)
	if err != nil {
		t.Fatalf("CurrentQuiz: %v", err)
	}
	if view.ID != second.ID || view.PassingScore != 60 || len(view.Questions) != 4 {
		t.Fatalf("expected newest version, got %+v", view)
	}
	b, _ := json.Marshal(view)
	if strings.Contains(string(b), "correctAnswer") {
		t.Fatalf("learner view leaks answers: %s", b)
	}

	// 旧版本不受影响
	var stored model.Quiz
	if err := env.db.First(&stored, first.ID).Error; err != nil || stored.PassingScore != 70 {
		t.Fatalf("first version changed: %+v, %v", stored, err)
	}
}

func TestCurrentQuiz_NoQuizForCourse(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 1)
	if _, err := env.quizzes.CurrentQuiz(context.Background(), course.ID); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}

func TestListAttempts_ReturnsOwnHistory(t *testing.T) {
	env := newTestEnv(t)
	course := env.course(t, 4)
	quiz := env.quiz(t, course.ID, 70)
	env.enroll(t, 1, course.ID)
	env.enroll(t, 2, course.ID)
	ctx := context.Background()

	for _, answers := range []string{`[]`, passingAnswers} {
		if _, err := env.quizzes.SubmitQuiz(ctx, 1, quiz.ID, submission(answers)); err != nil {
			t.Fatalf("SubmitQuiz: %v", err)
		}
	}
	if _, err := env.quizzes.SubmitQuiz(ctx, 2, quiz.ID, submission(passingAnswers)); err != nil {
		t.Fatalf("SubmitQuiz: %v", err)
	}

	attempts, err := env.quizzes.ListAttempts(ctx, 1, quiz.ID)
	if err != nil {
		t.Fatalf("ListAttempts: %v", err)
	}
	if len(attempts) != 2 {
		t.Fatalf("expected 2 attempts, got %d", len(attempts))
	}
	for _, a := range attempts {
		if a.UserID != 1 || len(a.Results) != 4 {
			t.Fatalf("unexpected attempt %+v", a)
		}
	}

	if _, err := env.quizzes.ListAttempts(ctx, 1, quiz.ID+10); !errors.Is(err, util.ErrQuizNotFound) {
		t.Fatalf("expected ErrQuizNotFound, got %v", err)
	}
}
