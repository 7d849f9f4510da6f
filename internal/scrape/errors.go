// internal/scrape/errors.go
package scrape

import (
	"errors"
	"fmt"
)

// ErrorCode identifies the class of a terminal scrape failure
type ErrorCode string

const (
	ErrCodeUserNotFound    ErrorCode = "USER_NOT_FOUND"
	ErrCodeStructureChange ErrorCode = "STRUCTURE_CHANGE"
	ErrCodeAntiBotBlock    ErrorCode = "ANTI_BOT_BLOCK"
	ErrCodeFetchFailed     ErrorCode = "FETCH_FAILED"
)

// Sentinels for errors.Is; matching is by code only
var (
	ErrUserNotFound    = &Error{Code: ErrCodeUserNotFound}
	ErrStructureChange = &Error{Code: ErrCodeStructureChange}
	ErrAntiBotBlock    = &Error{Code: ErrCodeAntiBotBlock}
	ErrFetchFailed     = &Error{Code: ErrCodeFetchFailed}
)

// Error is the single terminal failure of a scrape run
type Error struct {
	Code ErrorCode

	// UserID is set for USER_NOT_FOUND
	UserID int

	// Field and Marker are set for STRUCTURE_CHANGE
	Field  string
	Marker string

	// Page is the 1-based page index the failure was observed on
	Page int

	// URL and Underlying are set for FETCH_FAILED
	URL        string
	Underlying error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeUserNotFound:
		return fmt.Sprintf("user with id %d not found", e.UserID)
	case ErrCodeStructureChange:
		return fmt.Sprintf("%s: '%s' not found, FilmAffinity's HTML structure has changed", e.Field, e.Marker)
	case ErrCodeAntiBotBlock:
		return fmt.Sprintf("page %d returned no movies after earlier pages did; the browser is being blocked by anti-bot protection", e.Page)
	case ErrCodeFetchFailed:
		if e.Underlying != nil {
			return fmt.Sprintf("failed to fetch %s: %v", e.URL, e.Underlying)
		}
		return fmt.Sprintf("failed to fetch %s", e.URL)
	default:
		return string(e.Code)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is checks if the error matches the target
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// UserNotFound reports that the first page of the user's ratings does not exist
func UserNotFound(userID int) *Error {
	return &Error{Code: ErrCodeUserNotFound, UserID: userID, Page: 1}
}

// StructureChange reports that field could not be located through marker
func StructureChange(field, marker string) *Error {
	return &Error{Code: ErrCodeStructureChange, Field: field, Marker: marker}
}

// AntiBotBlock reports a page without containers after earlier pages produced records
func AntiBotBlock(page int) *Error {
	return &Error{Code: ErrCodeAntiBotBlock, Page: page}
}

// FetchFailed wraps a navigation collaborator failure
func FetchFailed(page int, url string, err error) *Error {
	return &Error{Code: ErrCodeFetchFailed, Page: page, URL: url, Underlying: err}
}

// CodeOf returns the code of a scrape error anywhere in err's chain
func CodeOf(err error) (ErrorCode, bool) {
	var se *Error
	if errors.As(err, &se) {
		return se.Code, true
	}
	return "", false
}
