package textual

import (
	"github.com/robinvdvleuten/ledger/errors"
)

// TagApplication is the value of an "apply tag" block: a bare tag or a
// "key: value" pair.
type TagApplication string

// YearApplication is the value of an "apply year" block.
type YearApplication int

type application struct {
	label string
	value any
}

// ApplyStack tracks the "apply" blocks open in one file. An included file
// gets a child stack whose parent is the including file's stack, so blocks
// opened around an include are visible inside it.
type ApplyStack struct {
	parent  *ApplyStack
	entries []application
}

// NewApplyStack creates an empty stack on top of parent, which may be nil.
func NewApplyStack(parent *ApplyStack) *ApplyStack {
	return &ApplyStack{parent: parent}
}

// Parent returns the enclosing file's stack.
func (s *ApplyStack) Parent() *ApplyStack {
	return s.parent
}

// Len returns the number of local entries.
func (s *ApplyStack) Len() int {
	return len(s.entries)
}

// PushFront opens a block.
func (s *ApplyStack) PushFront(label string, value any) {
	s.entries = append(s.entries, application{label: label, value: value})
}

// PopFront closes the innermost local block.
func (s *ApplyStack) PopFront() error {
	if len(s.entries) == 0 {
		return errors.NewLogicError("Apply stack is empty")
	}
	s.entries = s.entries[:len(s.entries)-1]
	return nil
}

// FrontLabel returns the label of the innermost local block.
func (s *ApplyStack) FrontLabel() (string, bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	return s.entries[len(s.entries)-1].label, true
}

// IsFrontType reports whether the innermost local block holds a T.
func IsFrontType[T any](s *ApplyStack) bool {
	if len(s.entries) == 0 {
		return false
	}
	_, ok := s.entries[len(s.entries)-1].value.(T)
	return ok
}

// Front returns the innermost local block's value as a T.
func Front[T any](s *ApplyStack) (T, error) {
	var zero T
	if len(s.entries) == 0 {
		return zero, errors.NewLogicError("Apply stack is empty")
	}
	top := s.entries[len(s.entries)-1]
	v, ok := top.value.(T)
	if !ok {
		return zero, errors.NewLogicError("Front of the apply stack is '%s', not %T", top.label, zero)
	}
	return v, nil
}

// GetApplication returns the innermost value of type T, searching local
// blocks before the parent's.
func GetApplication[T any](s *ApplyStack) (T, bool) {
	for stack := s; stack != nil; stack = stack.parent {
		for i := len(stack.entries) - 1; i >= 0; i-- {
			if v, ok := stack.entries[i].value.(T); ok {
				return v, true
			}
		}
	}
	var zero T
	return zero, false
}

// GetApplications returns every value of type T, innermost first, local
// blocks before the parent's.
func GetApplications[T any](s *ApplyStack) []T {
	var result []T
	for stack := s; stack != nil; stack = stack.parent {
		for i := len(stack.entries) - 1; i >= 0; i-- {
			if v, ok := stack.entries[i].value.(T); ok {
				result = append(result, v)
			}
		}
	}
	return result
}
