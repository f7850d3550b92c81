package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	MaxTaskLength = 100
	MaxStepLength = 200
	MaxMemoLength = 500
)

// DateLayout is the wire and storage format of a due date.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time of day.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// DateFromTime drops the time of day and location of t.
func DateFromTime(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

type Todo struct {
	ID      int64   `json:"id"`
	Task    string  `json:"task"`
	Status  bool    `json:"status"`
	DueDate *Date   `json:"due_date"`
	Memo    *string `json:"memo"`
	Steps   []Step  `json:"steps"`
}

type Step struct {
	ID     int64  `json:"id"`
	TodoID int64  `json:"todo_id"`
	Status bool   `json:"status"`
	Step   string `json:"step"`
}

type TodoListParams struct {
	// Prefix restricts the result to todos whose task starts with it.
	// Matching is case-sensitive.
	Prefix string
}

// Optional distinguishes an omitted JSON field from an explicit null.
// Set is true whenever the key was present in the document.
type Optional[T any] struct {
	Set   bool
	Value *T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}
