package grading

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrMalformedAnswers = errors.New("answers must be an ordered list of scalar values")
	ErrInvalidQuiz      = errors.New("quiz has no questions")
)

type AnswerKind int

const (
	AnswerMissing AnswerKind = iota
	AnswerBool
	AnswerNumber
	AnswerString
)

func (k AnswerKind) String() string {
	switch k {
	case AnswerBool:
		return "bool"
	case AnswerNumber:
		return "number"
	case AnswerString:
		return "string"
	default:
		return "missing"
	}
}

// Answer 是一个带类型标记的 JSON 标量。零值表示未作答。
type Answer struct {
	kind AnswerKind
	b    bool
	n    float64
	s    string
}

func Missing() Answer         { return Answer{} }
func Bool(v bool) Answer      { return Answer{kind: AnswerBool, b: v} }
func Number(v float64) Answer { return Answer{kind: AnswerNumber, n: v} }
func String(v string) Answer  { return Answer{kind: AnswerString, s: v} }

func (a Answer) Kind() AnswerKind { return a.kind }

// Equal 严格比较：类型不同即不相等，数字 1 与字符串 "1" 不相等
func (a Answer) Equal(o Answer) bool {
	if a.kind != o.kind {
		return false
	}
	switch a.kind {
	case AnswerBool:
		return a.b == o.b
	case AnswerNumber:
		return a.n == o.n
	case AnswerString:
		return a.s == o.s
	default:
		return true
	}
}

func (a Answer) MarshalJSON() ([]byte, error) {
	switch a.kind {
	case AnswerBool:
		return json.Marshal(a.b)
	case AnswerNumber:
		return []byte(strconv.FormatFloat(a.n, 'f', -1, 64)), nil
	case AnswerString:
		return json.Marshal(a.s)
	default:
		return []byte("null"), nil
	}
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return err
	}

	switch t := v.(type) {
	case nil:
		*a = Missing()
	case bool:
		*a = Bool(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return fmt.Errorf("invalid number %q: %w", t.String(), err)
		}
		*a = Number(f)
	case string:
		*a = String(t)
	default:
		return fmt.Errorf("unsupported answer value of type %T", v)
	}
	return nil
}

// DecodeAnswers 解析提交的答案数组。缺失、null、非数组或含有对象/数组元素时返回 ErrMalformedAnswers。
// 空数组是合法的，表示全部未作答。
func DecodeAnswers(raw json.RawMessage) ([]Answer, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || trimmed[0] != '[' {
		return nil, ErrMalformedAnswers
	}

	var items []json.RawMessage
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedAnswers, err)
	}

	answers := make([]Answer, len(items))
	for i, item := range items {
		if err := answers[i].UnmarshalJSON(item); err != nil {
			return nil, fmt.Errorf("%w: answer %d: %v", ErrMalformedAnswers, i, err)
		}
	}
	return answers, nil
}
