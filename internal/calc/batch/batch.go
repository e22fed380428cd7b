// Package batch evaluates many structures at once, from a JSON list or from
// an uploaded spreadsheet.
package batch

import (
	"errors"
	"fmt"

	"SafeStruct/internal/calc/assess"
	"SafeStruct/internal/calc/irs"
)

var (
	ErrEmptyBatch   = errors.New("no items")
	ErrTooManyItems = errors.New("too many items")
)

// ItemError reports which item of a batch failed. Index is zero-based.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("items[%d]: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error { return e.Err }

type Input struct {
	Items []assess.Input `json:"items"`
}

type Result struct {
	Count   int                  `json:"count"`
	Summary map[irs.Category]int `json:"summary"`
	Results []assess.Assessment  `json:"results"`
}

func newResult(capacity int) Result {
	return Result{
		Summary: map[irs.Category]int{
			irs.CategorySafe:     0,
			irs.CategoryModerate: 0,
			irs.CategoryCritical: 0,
		},
		Results: make([]assess.Assessment, 0, capacity),
	}
}

func (r *Result) add(a assess.Assessment) {
	r.Results = append(r.Results, a)
	r.Summary[a.Result.Category]++
	r.Count++
}

// Evaluate scores every item in order. The first invalid item fails the
// whole batch. max <= 0 means no limit.
func Evaluate(ev *assess.Evaluator, items []assess.Input, max int) (Result, error) {
	if len(items) == 0 {
		return Result{}, ErrEmptyBatch
	}
	if max > 0 && len(items) > max {
		return Result{}, fmt.Errorf("%w: %d > %d", ErrTooManyItems, len(items), max)
	}
	out := newResult(len(items))
	for i, item := range items {
		a, err := ev.Evaluate(item)
		if err != nil {
			return Result{}, &ItemError{Index: i, Err: err}
		}
		out.add(a)
	}
	return out, nil
}
