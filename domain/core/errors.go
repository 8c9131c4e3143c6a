package core

import (
	"errors"
	"fmt"
)

// Domain errors - centralized error definitions
var (
	// Configuration errors
	ErrInvalidComparison  = errors.New("invalid comparison")
	ErrConflictingParams  = errors.New("conflicting comparison parameters")
	ErrInvalidAlternative = errors.New("invalid alternative hypothesis")
	ErrInvalidPValueMode  = errors.New("invalid p-value approximation")
	ErrGroupRequired      = errors.New("comparison group required")

	// Resolution errors
	ErrGroupNotFound = errors.New("group not found")

	// Empty result errors
	ErrInsufficientGroups = errors.New("not enough groups to compare")
	ErrNoSubjectOverlap   = errors.New("no subject overlap")

	// Sample data errors
	ErrMissingValue     = errors.New("missing value in sample")
	ErrMissingSubject   = errors.New("missing subject identifier")
	ErrDuplicateSubject = errors.New("duplicate subject within group")
	ErrEmptySample      = errors.New("empty sample")
)

// Error constructors with context
func NewGroupNotFoundError(value string) error {
	return fmt.Errorf("%w: %q was not found as a group within the distribution", ErrGroupNotFound, value)
}

func NewGroupRequiredError(param string) error {
	return fmt.Errorf("%w: %s must be provided", ErrGroupRequired, param)
}

func NewAlternativeError(value string) error {
	return fmt.Errorf("%w: %q; choose two-sided, greater or less", ErrInvalidAlternative, value)
}

func NewComparisonError(token string, validA, validB string) error {
	return fmt.Errorf("%w: %q; choose %s or %s", ErrInvalidComparison, token, validA, validB)
}

func NewConflictError(selected, conflicting string) error {
	return fmt.Errorf("%w: %s was selected as the comparison, but %s was also set; select the other comparison or remove %s",
		ErrConflictingParams, selected, conflicting, conflicting)
}

func NewSubjectOverlapError(groupA, groupB string, subjectsA, subjectsB []string) error {
	return fmt.Errorf("%w: there is no subject overlap between group %s and group %s;"+
		" there has to be at least 1 subject overlap between the groups;"+
		" group %s contains these subjects: %v and group %s contains these subjects: %v",
		ErrNoSubjectOverlap, groupA, groupB, groupA, subjectsA, groupB, subjectsB)
}

// Error checking helpers
func IsConfigError(err error) bool {
	return errors.Is(err, ErrInvalidComparison) ||
		errors.Is(err, ErrConflictingParams) ||
		errors.Is(err, ErrInvalidAlternative) ||
		errors.Is(err, ErrInvalidPValueMode) ||
		errors.Is(err, ErrGroupRequired)
}

func IsEmptyResultError(err error) bool {
	return errors.Is(err, ErrInsufficientGroups) ||
		errors.Is(err, ErrNoSubjectOverlap)
}

func IsSampleError(err error) bool {
	return errors.Is(err, ErrMissingValue) ||
		errors.Is(err, ErrMissingSubject) ||
		errors.Is(err, ErrDuplicateSubject) ||
		errors.Is(err, ErrEmptySample)
}
