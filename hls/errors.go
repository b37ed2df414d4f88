package hls

import "fmt"

// EncodingError reports a non-zero exit from one external encoder invocation.
// Output carries the captured stderr so operators can see the tool's own
// diagnostic; it is what ends up in the failure store.
type EncodingError struct {
	Rendition string // rendition name, or "thumbnail"
	ExitCode  int    // -1 when the process could not be started
	Output    string // captured stderr, trimmed
}

func (e *EncodingError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("encoder exited with code %d for %s", e.ExitCode, e.Rendition)
	}
	return fmt.Sprintf("encoder exited with code %d for %s: %s", e.ExitCode, e.Rendition, e.Output)
}
