package internal

import (
	"fmt"
	"html/template"
	"net/http"
	"os"
	"runtime"
	"strings"
)

// excerptRadius is how many source lines surround the failing line on
// the dev error page.
const excerptRadius = 7

// errorResponse builds the error page for a recovered panic or an
// internal failure. Dev mode shows the error, the request id, and a
// source excerpt around the panic site; prod shows a generic page.
func errorResponse(dev bool, status int, requestID string, err error) *Response {
	if !dev {
		return NewResponse(status).WithHTMLBody(fmt.Sprintf(
			"<!doctype html><html><body><h1>%d %s</h1><p>Request ID: %s</p></body></html>",
			status, http.StatusText(status), template.HTMLEscapeString(requestID)))
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<!doctype html><html><body><h1>%d %s</h1>", status, http.StatusText(status))
	if err != nil {
		fmt.Fprintf(&b, "<p><strong>%s</strong></p>", template.HTMLEscapeString(err.Error()))
	}
	fmt.Fprintf(&b, "<p>Request ID: %s</p>", template.HTMLEscapeString(requestID))

	if file, line, ok := panicLocation(); ok {
		fmt.Fprintf(&b, "<p><code>%s:%d</code></p>", template.HTMLEscapeString(file), line)
		if excerpt := sourceExcerpt(file, line, excerptRadius); excerpt != "" {
			fmt.Fprintf(&b, "<pre>%s</pre>", template.HTMLEscapeString(excerpt))
		}
	}

	b.WriteString("</body></html>")
	return NewResponse(status).WithHTMLBody(b.String())
}

// panicLocation walks the stack of a recovered panic and returns the
// first frame after the runtime's panic machinery.
func panicLocation() (string, int, bool) {
	pcs := make([]uintptr, 32)
	n := runtime.Callers(3, pcs)
	if n == 0 {
		return "", 0, false
	}

	frames := runtime.CallersFrames(pcs[:n])
	seenPanic := false
	for {
		frame, more := frames.Next()
		if strings.HasPrefix(frame.Function, "runtime.gopanic") {
			seenPanic = true
		} else if seenPanic && !strings.HasPrefix(frame.Function, "runtime.") {
			return frame.File, frame.Line, true
		}
		if !more {
			return "", 0, false
		}
	}
}

// sourceExcerpt reads radius lines around the given line, with the
// failing line marked. Returns "" when the file is unreadable.
func sourceExcerpt(file string, line, radius int) string {
	data, err := os.ReadFile(file)
	if err != nil {
		return ""
	}

	lines := strings.Split(string(data), "\n")
	start := max(line-radius-1, 0)
	end := min(line+radius, len(lines))

	var b strings.Builder
	for i := start; i < end; i++ {
		marker := "  "
		if i == line-1 {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%4d  %s\n", marker, i+1, lines[i])
	}
	return b.String()
}
