package grading

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"learnhub_backend/internal/model"
)

var ErrInvalidQuestion = errors.New("invalid question")

// Question 是三种题型加 Unsupported 的和类型，只能由本包构造
type Question interface {
	Type() model.QuestionType
	Expected() Answer
	correct(answer Answer) bool
}

type MultipleChoice struct {
	Prompt  string
	Options []string
	Answer  Answer
}

func (q MultipleChoice) Type() model.QuestionType { return model.MultipleChoice }
func (q MultipleChoice) Expected() Answer         { return q.Answer }
func (q MultipleChoice) correct(a Answer) bool    { return a.Equal(q.Answer) }

// TrueFalse 的正确答案可以是布尔值，也可以是选项下标，比较规则与选择题相同
type TrueFalse struct {
	Prompt  string
	Options []string
	Answer  Answer
}

func (q TrueFalse) Type() model.QuestionType { return model.TrueFalse }
func (q TrueFalse) Expected() Answer         { return q.Answer }
func (q TrueFalse) correct(a Answer) bool    { return a.Equal(q.Answer) }

type FillInTheBlank struct {
	Prompt string
	Answer string
}

func (q FillInTheBlank) Type() model.QuestionType { return model.FillInTheBlank }
func (q FillInTheBlank) Expected() Answer         { return String(q.Answer) }

func (q FillInTheBlank) correct(a Answer) bool {
	if a.Kind() != AnswerString {
		return false
	}
	return normalize(a.s) == normalize(q.Answer)
}

// Unsupported 表示无法识别或已损坏的题目，永远判错
type Unsupported struct {
	Kind   model.QuestionType
	Reason string
}

func (q Unsupported) Type() model.QuestionType { return q.Kind }
func (q Unsupported) Expected() Answer         { return Missing() }
func (q Unsupported) correct(Answer) bool      { return false }

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ParseQuestion 严格校验题目定义，创建测验时使用
func ParseQuestion(spec model.QuestionSpec) (Question, error) {
	if strings.TrimSpace(spec.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidQuestion)
	}

	var expected Answer
	if len(spec.CorrectAnswer) > 0 {
		if err := json.Unmarshal(spec.CorrectAnswer, &expected); err != nil {
			return nil, fmt.Errorf("%w: correct answer: %v", ErrInvalidQuestion, err)
		}
	}
	if expected.Kind() == AnswerMissing {
		return nil, fmt.Errorf("%w: correct answer is required", ErrInvalidQuestion)
	}

	switch spec.Type {
	case model.MultipleChoice:
		if len(spec.Options) == 0 {
			return nil, fmt.Errorf("%w: multiple-choice question needs options", ErrInvalidQuestion)
		}
		return MultipleChoice{Prompt: spec.Prompt, Options: spec.Options, Answer: expected}, nil
	case model.TrueFalse:
		return TrueFalse{Prompt: spec.Prompt, Options: spec.Options, Answer: expected}, nil
	case model.FillInTheBlank:
		if expected.Kind() != AnswerString {
			return nil, fmt.Errorf("%w: fill-in-the-blank answer must be a string", ErrInvalidQuestion)
		}
		return FillInTheBlank{Prompt: spec.Prompt, Answer: expected.s}, nil
	default:
		return nil, fmt.Errorf("%w: unknown question type %q", ErrInvalidQuestion, spec.Type)
	}
}

// FromSpecs 用于评分：无法解析的题目降级为 Unsupported，而不是让整次提交失败
func FromSpecs(specs []model.QuestionSpec) []Question {
	questions := make([]Question, len(specs))
	for i, spec := range specs {
		q, err := ParseQuestion(spec)
		if err != nil {
			q = Unsupported{Kind: spec.Type, Reason: err.Error()}
		}
		questions[i] = q
	}
	return questions
}
