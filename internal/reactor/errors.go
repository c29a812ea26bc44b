package reactor

import (
	"fmt"

	"github.com/1broseidon/tilewm/internal/platform"
)

// LayoutError is returned by UpdateLayout when the layout engine cannot
// produce frames for a space.
type LayoutError struct {
	Space platform.SpaceID
	Err   error
}

func (e *LayoutError) Error() string {
	return fmt.Sprintf("layout of space %d: %v", e.Space, e.Err)
}

func (e *LayoutError) Unwrap() error { return e.Err }

// ParseError reports a malformed or truncated recording. Line is 1-based.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("record line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
