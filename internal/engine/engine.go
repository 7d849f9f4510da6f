package engine

import "context"

// Kind selects a navigator implementation
type Kind string

const (
	// KindDynamic renders pages in headless Chrome
	KindDynamic Kind = "dynamic"
	// KindStatic fetches raw HTML over HTTP without running scripts
	KindStatic Kind = "static"
)

// ParseKind validates an engine name given on the command line
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindDynamic, "":
		return KindDynamic, nil
	case KindStatic:
		return KindStatic, nil
	default:
		return "", NewNavigationError(ErrCodeValidation, "unknown engine "+s+" (must be dynamic or static)", nil)
	}
}

// Navigator is the interface every page engine implements. A navigator holds a
// single current page and is not safe for concurrent use.
type Navigator interface {
	// Navigate loads url, replacing the current page
	Navigate(ctx context.Context, url string) error

	// CurrentHTML returns the markup of the current page
	CurrentHTML(ctx context.Context) (string, error)

	// Name returns the name of the engine implementation
	Name() string

	// Close releases the browser or connections held by the navigator
	Close() error
}
