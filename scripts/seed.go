// 演示数据脚本：创建一门课程和一份测验，为指定用户报名，并打印可用的访问令牌。
//
// 用法: go run scripts/seed.go -user 1 -teacher 100

package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"learnhub_backend/internal/config"
	"learnhub_backend/internal/model"
	"learnhub_backend/internal/repository"
	"learnhub_backend/internal/service"
	"learnhub_backend/internal/util"
	"learnhub_backend/pkg/database"
	"learnhub_backend/pkg/logger"
	"log"
	"os"

	"gopkg.in/yaml.v3"
)

type seedQuestion struct {
	Type          model.QuestionType `yaml:"type"`
	Prompt        string             `yaml:"prompt"`
	Options       []string           `yaml:"options"`
	CorrectAnswer any                `yaml:"correctAnswer"`
}

type seedData struct {
	Course struct {
		Title       string `yaml:"title"`
		Description string `yaml:"description"`
		LessonCount int    `yaml:"lessonCount"`
	} `yaml:"course"`
	Quiz struct {
		PassingScore *int           `yaml:"passingScore"`
		Questions    []seedQuestion `yaml:"questions"`
	} `yaml:"quiz"`
}

func loadSeed(path string) (*seedData, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var seed seedData
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, err
	}
	return &seed, nil
}

func (q seedQuestion) spec() (model.QuestionSpec, error) {
	raw, err := json.Marshal(q.CorrectAnswer)
	if err != nil {
		return model.QuestionSpec{}, err
	}
	return model.QuestionSpec{
		Type:          q.Type,
		Prompt:        q.Prompt,
		Options:       q.Options,
		CorrectAnswer: raw,
	}, nil
}

func main() {
	configDir := flag.String("config", "configs", "配置文件所在目录")
	dataPath := flag.String("data", "scripts/seed.yaml", "种子数据文件")
	userID := flag.Uint("user", 1, "报名课程的学生ID")
	teacherID := flag.Uint("teacher", 100, "课程创建者ID")
	flag.Parse()

	cfg, err := config.LoadConfig(*configDir)
	if err != nil {
		log.Fatalf("无法读取配置文件: %v", err)
	}
	logger.InitLogger(cfg)

	seed, err := loadSeed(*dataPath)
	if err != nil {
		log.Fatalf("解析种子数据失败: %v", err)
	}

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode)
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}
	defer database.Close(db)
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}

	courseRepo := repository.NewCourseRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	courses := service.NewCourseService(courseRepo)
	quizzes := service.NewQuizService(
		db,
		repository.NewQuizRepository(db, nil, 0),
		courseRepo,
		enrollmentRepo,
		repository.NewQuizAttemptRepository(db),
		cfg.Quiz.DefaultPassingScore,
	)
	enrollments := service.NewEnrollmentService(db, enrollmentRepo, courseRepo)

	ctx := context.Background()
	course, err := courses.CreateCourse(ctx, *teacherID, service.CourseReq{
		Title:       seed.Course.Title,
		Description: seed.Course.Description,
		LessonCount: seed.Course.LessonCount,
	})
	if err != nil {
		log.Fatalf("创建课程失败: %v", err)
	}

	req := service.CreateQuizReq{PassingScore: seed.Quiz.PassingScore}
	for _, q := range seed.Quiz.Questions {
		spec, err := q.spec()
		if err != nil {
			log.Fatalf("题目格式错误: %v", err)
		}
		req.Questions = append(req.Questions, spec)
	}
	quiz, err := quizzes.CreateQuiz(ctx, *teacherID, course.ID, req)
	if err != nil {
		log.Fatalf("创建测验失败: %v", err)
	}

	if _, _, err := enrollments.Enroll(ctx, *userID, course.ID); err != nil {
		log.Fatalf("报名失败: %v", err)
	}

	studentToken, err := util.GenerateJWT(*userID, model.Student, fmt.Sprintf("student%d@learnhub.local", *userID), cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		log.Fatalf("生成令牌失败: %v", err)
	}
	teacherToken, err := util.GenerateJWT(*teacherID, model.Teacher, fmt.Sprintf("teacher%d@learnhub.local", *teacherID), cfg.JWT.Secret, cfg.JWT.ExpireTime)
	if err != nil {
		log.Fatalf("生成令牌失败: %v", err)
	}

	fmt.Printf("course_id=%d quiz_id=%d\n", course.ID, quiz.ID)
	fmt.Printf("student_token=%s\n", studentToken)
	fmt.Printf("teacher_token=%s\n", teacherToken)
}
