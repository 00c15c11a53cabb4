package render

import (
	"fmt"
	"io"
	"time"

	"github.com/joss/calc/internal/dispatch"
)

// Writer wraps an io.Writer with a Renderer.
// Use this for direct-to-output writing without string building.
type Writer struct {
	out io.Writer
	r   *Renderer
}

// NewWriter creates a Writer that renders with r to w.
func NewWriter(w io.Writer, r *Renderer) *Writer {
	return &Writer{out: w, r: r}
}

// Result writes a dispatch result followed by a newline. Empty renderings
// write nothing.
func (w *Writer) Result(res dispatch.Result) {
	w.line(w.r.Result(res))
}

// Error writes a formatted error.
func (w *Writer) Error(err error) {
	w.line(w.r.Error(err))
}

// Println writes formatted text with newline.
func (w *Writer) Println(format string, args ...any) {
	fmt.Fprintf(w.out, format+"\n", args...)
}

// Print writes text without a trailing newline, for prompts.
func (w *Writer) Print(s string) {
	fmt.Fprint(w.out, s)
}

func (w *Writer) line(s string) {
	if s != "" {
		fmt.Fprintln(w.out, s)
	}
}

// FormatDuration formats a duration in human-readable form.
func FormatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
}
