package diagnostics

import "strings"

// Set collects diagnostics in the order they were raised.
type Set struct {
	items []*DiagnosticError
}

func NewSet(items ...*DiagnosticError) *Set {
	s := &Set{}
	s.Add(items...)
	return s
}

func (s *Set) Add(items ...*DiagnosticError) {
	for _, d := range items {
		if d != nil {
			s.items = append(s.items, d)
		}
	}
}

// Merge appends every item of other.
func (s *Set) Merge(other *Set) {
	if other == nil {
		return
	}
	s.items = append(s.items, other.items...)
}

func (s *Set) Items() []*DiagnosticError {
	if s == nil {
		return nil
	}
	return s.items
}

func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Errors returns only error-severity items.
func (s *Set) Errors() []*DiagnosticError {
	return s.filter(func(d *DiagnosticError) bool { return d.Severity == SeverityError })
}

// Warnings returns warnings and notes.
func (s *Set) Warnings() []*DiagnosticError {
	return s.filter(func(d *DiagnosticError) bool { return d.Severity != SeverityError })
}

// ByCode returns items carrying the given code.
func (s *Set) ByCode(code ErrorCode) []*DiagnosticError {
	return s.filter(func(d *DiagnosticError) bool { return d.Code == code })
}

func (s *Set) HasErrors() bool {
	return len(s.Errors()) > 0
}

// Fatal returns the first fatal item, or nil.
func (s *Set) Fatal() *DiagnosticError {
	for _, d := range s.Items() {
		if d.Fatal() {
			return d
		}
	}
	return nil
}

// SetEnum attributes every unattributed item to enum.
func (s *Set) SetEnum(enum string) {
	for _, d := range s.Items() {
		if d.Enum == "" {
			d.Enum = enum
		}
	}
}

// SetFile attributes every unattributed item to file.
func (s *Set) SetFile(file string) {
	for _, d := range s.Items() {
		if d.File == "" {
			d.File = file
		}
	}
}

// Err returns the set as an error when it holds errors, nil otherwise.
func (s *Set) Err() error {
	if !s.HasErrors() {
		return nil
	}
	return s
}

func (s *Set) Error() string {
	errs := s.Errors()
	msgs := make([]string, len(errs))
	for i, d := range errs {
		msgs[i] = d.Error()
	}
	return strings.Join(msgs, "\n")
}

func (s *Set) filter(keep func(*DiagnosticError) bool) []*DiagnosticError {
	var out []*DiagnosticError
	for _, d := range s.Items() {
		if keep(d) {
			out = append(out, d)
		}
	}
	return out
}
