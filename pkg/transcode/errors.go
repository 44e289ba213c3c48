// Kunhua Huang 2026

package transcode

import "fmt"

// ExitError reports a transcoding process that ran but exited with a
// non-zero status. Stderr carries the captured diagnostic text.
type ExitError struct {
	ExitCode int
	Stderr   string
}

func (e *ExitError) Error() string {
	if e.Stderr == "" {
		return fmt.Sprintf("transcoder exited with status %d", e.ExitCode)
	}
	return fmt.Sprintf("transcoder exited with status %d, stderr:\n%s", e.ExitCode, e.Stderr)
}
