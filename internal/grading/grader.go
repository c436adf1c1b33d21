// Package grading 按题型对测验作答评分，纯计算，无副作用。
package grading

type QuestionResult struct {
	QuestionIndex int    `json:"questionIndex"`
	UserAnswer    Answer `json:"userAnswer"`
	CorrectAnswer Answer `json:"correctAnswer"`
	IsCorrect     bool   `json:"isCorrect"`
}

type Outcome struct {
	Results      []QuestionResult `json:"results"`
	CorrectCount int              `json:"correctCount"`
	Total        int              `json:"total"`
	Score        int              `json:"score"`
}

// Grade 逐题评分。answers[i] 对应 questions[i]；缺少的尾部答案视为未作答，多余的答案忽略。
// answers 为 nil 时返回 ErrMalformedAnswers，questions 为空时返回 ErrInvalidQuiz。
func Grade(questions []Question, answers []Answer) (Outcome, error) {
	if answers == nil {
		return Outcome{}, ErrMalformedAnswers
	}
	if len(questions) == 0 {
		return Outcome{}, ErrInvalidQuiz
	}

	out := Outcome{
		Results: make([]QuestionResult, len(questions)),
		Total:   len(questions),
	}
	for i, q := range questions {
		userAnswer := Missing()
		if i < len(answers) {
			userAnswer = answers[i]
		}
		ok := q.correct(userAnswer)
		if ok {
			out.CorrectCount++
		}
		out.Results[i] = QuestionResult{
			QuestionIndex: i,
			UserAnswer:    userAnswer,
			CorrectAnswer: q.Expected(),
			IsCorrect:     ok,
		}
	}
	out.Score = Score(out.CorrectCount, out.Total)
	return out, nil
}

// Score 返回 round(correct/total*100)，四舍五入（.5 向上），用整数运算避免浮点误差。
// 例如 2/3 -> 67，1/8 -> 13。
func Score(correct, total int) int {
	if total <= 0 {
		return 0
	}
	return (200*correct + total) / (2 * total)
}

func Passed(score, passingScore int) bool {
	return score >= passingScore
}
