package store

import (
	"errors"
	"slices"
	"strings"
)

// ErrInvalidSubject is returned for subject names that are not a single,
// non-hidden path segment.
var ErrInvalidSubject = errors.New("invalid subject name")

// ValidateSubject checks a subject name. The empty name selects the default
// namespace and is valid.
func ValidateSubject(subject string) error {
	if subject == "" {
		return nil
	}
	if strings.HasPrefix(subject, ".") || strings.ContainsAny(subject, `/\`) || strings.TrimSpace(subject) != subject {
		return ErrInvalidSubject
	}
	return nil
}

// Subjects lists the subjects known to the backend.
func Subjects(b Backend) ([]string, error) {
	return b.Subjects()
}

// SubjectExists reports whether the backend already holds the subject.
func SubjectExists(b Backend, subject string) (bool, error) {
	subjects, err := b.Subjects()
	if err != nil {
		return false, err
	}
	return slices.Contains(subjects, subject), nil
}
