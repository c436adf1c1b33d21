package grading

import (
	"encoding/json"
	"errors"
	"testing"

	"learnhub_backend/internal/model"
)

func spec(t model.QuestionType, correct string, options ...string) model.QuestionSpec {
	return model.QuestionSpec{
		Type:          t,
		Prompt:        "q",
		Options:       options,
		CorrectAnswer: json.RawMessage(correct),
	}
}

func mustDecode(t *testing.T, raw string) []Answer {
	t.Helper()
	answers, err := DecodeAnswers(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("DecodeAnswers(%s): %v", raw, err)
	}
	return answers
}

func TestGrade_MixedQuizScenario(t *testing.T) {
	questions := FromSpecs([]model.QuestionSpec{
		spec(model.MultipleChoice, `0`, "a", "b", "c"),
		spec(model.TrueFalse, `true`, "True", "False"),
		spec(model.FillInTheBlank, `"Paris"`),
		spec(model.MultipleChoice, `2`, "a", "b", "c"),
	})

	out, err := Grade(questions, mustDecode(t, `[0, true, "paris", 1]`))
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if out.CorrectCount != 3 || out.Score != 75 {
		t.Fatalf("expected 3 correct / score 75, got %d / %d", out.CorrectCount, out.Score)
	}
	if !Passed(out.Score, 70) {
		t.Fatalf("expected score %d to pass threshold 70", out.Score)
	}
	want := []bool{true, true, true, false}
	for i, r := range out.Results {
		if r.QuestionIndex != i || r.IsCorrect != want[i] {
			t.Fatalf("result %d: got index=%d correct=%v", i, r.QuestionIndex, r.IsCorrect)
		}
	}
}

func TestGrade_FillInTheBlankIgnoresCaseAndWhitespace(t *testing.T) {
	questions := FromSpecs([]model.QuestionSpec{spec(model.FillInTheBlank, `"Paris"`)})
	for _, in := range []string{`["Paris"]`, `[" paris "]`, `["PARIS"]`} {
		out, err := Grade(questions, mustDecode(t, in))
		if err != nil {
			t.Fatalf("Grade(%s): %v", in, err)
		}
		if !out.Results[0].IsCorrect {
			t.Fatalf("expected %s to match Paris", in)
		}
	}
}

func TestGrade_FillInTheBlankMissingOrNonStringNeverCorrect(t *testing.T) {
	questions := FromSpecs([]model.QuestionSpec{spec(model.FillInTheBlank, `"42"`)})
	for _, in := range []string{`[]`, `[null]`, `[42]`} {
		out, err := Grade(questions, mustDecode(t, in))
		if err != nil {
			t.Fatalf("Grade(%s): %v", in, err)
		}
		if out.Results[0].IsCorrect {
			t.Fatalf("expected %s to be incorrect", in)
		}
	}
}

func TestGrade_ChoiceQuestionsAreTypeSensitive(t *testing.T) {
	cases := []struct {
		name    string
		q       model.QuestionSpec
		answers string
		correct bool
	}{
		{"number matches number", spec(model.MultipleChoice, `1`, "a", "b"), `[1]`, true},
		{"string does not match number", spec(model.MultipleChoice, `1`, "a", "b"), `["1"]`, false},
		{"string matches string", spec(model.MultipleChoice, `"1"`, "a", "b"), `["1"]`, true},
		{"bool matches bool", spec(model.TrueFalse, `false`), `[false]`, true},
		{"index does not match bool", spec(model.TrueFalse, `true`), `[1]`, false},
		{"index matches index", spec(model.TrueFalse, `0`, "True", "False"), `[0]`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := Grade(FromSpecs([]model.QuestionSpec{tc.q}), mustDecode(t, tc.answers))
			if err != nil {
				t.Fatalf("Grade: %v", err)
			}
			if out.Results[0].IsCorrect != tc.correct {
				t.Fatalf("expected correct=%v, got %v", tc.correct, out.Results[0].IsCorrect)
			}
		})
	}
}

func TestGrade_UnknownTypeFailsClosed(t *testing.T) {
	questions := FromSpecs([]model.QuestionSpec{
		spec("essay", `"anything"`),
		spec(model.MultipleChoice, `0`), // 缺少选项，降级为 Unsupported
	})
	if _, ok := questions[0].(Unsupported); !ok {
		t.Fatalf("expected Unsupported, got %T", questions[0])
	}
	if _, ok := questions[1].(Unsupported); !ok {
		t.Fatalf("expected Unsupported, got %T", questions[1])
	}

	out, err := Grade(questions, mustDecode(t, `["anything", 0]`))
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if out.CorrectCount != 0 || out.Score != 0 {
		t.Fatalf("expected nothing correct, got %d", out.CorrectCount)
	}
}

func TestGrade_Errors(t *testing.T) {
	if _, err := Grade(nil, []Answer{}); !errors.Is(err, ErrInvalidQuiz) {
		t.Fatalf("expected ErrInvalidQuiz, got %v", err)
	}
	questions := FromSpecs([]model.QuestionSpec{spec(model.TrueFalse, `true`)})
	if _, err := Grade(questions, nil); !errors.Is(err, ErrMalformedAnswers) {
		t.Fatalf("expected ErrMalformedAnswers, got %v", err)
	}
}

func TestGrade_ShortAndLongAnswerLists(t *testing.T) {
	questions := FromSpecs([]model.QuestionSpec{
		spec(model.TrueFalse, `true`),
		spec(model.TrueFalse, `false`),
	})

	out, err := Grade(questions, mustDecode(t, `[true]`))
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if out.CorrectCount != 1 || out.Results[1].UserAnswer.Kind() != AnswerMissing {
		t.Fatalf("expected trailing answer to be unanswered, got %+v", out.Results)
	}

	out, err = Grade(questions, mustDecode(t, `[true, false, true, true]`))
	if err != nil {
		t.Fatalf("Grade: %v", err)
	}
	if out.CorrectCount != 2 || len(out.Results) != 2 {
		t.Fatalf("expected extra answers to be ignored, got %+v", out)
	}
}

func TestScore_RoundsHalfUp(t *testing.T) {
	cases := []struct{ correct, total, want int }{
		{0, 3, 0},
		{1, 3, 33},
		{2, 3, 67},
		{3, 3, 100},
		{1, 8, 13},
		{3, 8, 38},
		{1, 200, 1},
		{1, 201, 0},
		{7, 9, 78},
	}
	for _, tc := range cases {
		if got := Score(tc.correct, tc.total); got != tc.want {
			t.Fatalf("Score(%d, %d) = %d, want %d", tc.correct, tc.total, got, tc.want)
		}
	}
}

func TestScore_PassedMatchesThresholdForAllCounts(t *testing.T) {
	for n := 1; n <= 12; n++ {
		for k := 0; k <= n; k++ {
			score := Score(k, n)
			if score < 0 || score > 100 {
				t.Fatalf("Score(%d, %d) = %d out of range", k, n, score)
			}
			for _, p := range []int{0, 50, 67, 70, 100} {
				if Passed(score, p) != (score >= p) {
					t.Fatalf("Passed(%d, %d) mismatch", score, p)
				}
			}
		}
	}
}

func TestDecodeAnswers_RejectsMalformedShapes(t *testing.T) {
	for _, raw := range []string{``, `null`, `{"0": 1}`, `"abc"`, `[[1]]`, `[{"a": 1}]`, `[1,`} {
		if _, err := DecodeAnswers(json.RawMessage(raw)); !errors.Is(err, ErrMalformedAnswers) {
			t.Fatalf("DecodeAnswers(%q): expected ErrMalformedAnswers, got %v", raw, err)
		}
	}

	answers, err := DecodeAnswers(json.RawMessage(`[]`))
	if err != nil || answers == nil || len(answers) != 0 {
		t.Fatalf("expected empty non-nil answers, got %v, %v", answers, err)
	}
}

func TestAnswer_MarshalKeepsType(t *testing.T) {
	answers := mustDecode(t, `[1, "1", true, null, 2.5]`)
	b, err := json.Marshal(answers)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(b) != `[1,"1",true,null,2.5]` {
		t.Fatalf("unexpected encoding %s", b)
	}
}

func TestParseQuestion_Validation(t *testing.T) {
	bad := []model.QuestionSpec{
		{Type: model.MultipleChoice, Prompt: "", Options: []string{"a"}, CorrectAnswer: json.RawMessage(`0`)},
		{Type: model.MultipleChoice, Prompt: "q", CorrectAnswer: json.RawMessage(`0`)},
		{Type: model.TrueFalse, Prompt: "q"},
		{Type: model.TrueFalse, Prompt: "q", CorrectAnswer: json.RawMessage(`null`)},
		{Type: model.FillInTheBlank, Prompt: "q", CorrectAnswer: json.RawMessage(`3`)},
		{Type: "matching", Prompt: "q", CorrectAnswer: json.RawMessage(`"x"`)},
	}
	for i, s := range bad {
		if _, err := ParseQuestion(s); !errors.Is(err, ErrInvalidQuestion) {
			t.Fatalf("case %d: expected ErrInvalidQuestion, got %v", i, err)
		}
	}

	q, err := ParseQuestion(spec(model.FillInTheBlank, `"Paris"`))
	if err != nil {
		t.Fatalf("ParseQuestion: %v", err)
	}
	if fb, ok := q.(FillInTheBlank); !ok || fb.Answer != "Paris" {
		t.Fatalf("unexpected question %#v", q)
	}
}
