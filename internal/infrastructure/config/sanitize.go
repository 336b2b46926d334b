package configinfra

import (
	"strings"
)

const (
	backtickFence = "```"
	quoteFence    = `"""`
)

// Sanitize removes code-fence or triple-quote wrapping that spans the whole of
// a wiki page. Nested wrappers are removed until the content is bare, which
// keeps Sanitize(Sanitize(x)) == Sanitize(x). Unwrapped text is returned as is.
func Sanitize(text string) string {
	for {
		body, ok := UnwrapOnce(text)
		if !ok {
			return text
		}
		text = body
	}
}

// UnwrapOnce strips a single wrapper layer. It reports false when the content
// is not wrapped.
func UnwrapOnce(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(trimmed, backtickFence):
		return unwrapBackticks(trimmed)
	case strings.HasPrefix(trimmed, quoteFence):
		return unwrapQuotes(trimmed)
	}
	return "", false
}

// unwrapBackticks handles
//
//	```toml
//	...
//	```
//
// The opening line may carry an info string; the closing fence must be on its
// own line.
func unwrapBackticks(trimmed string) (string, bool) {
	trimmed = strings.ReplaceAll(trimmed, "\r\n", "\n")
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return "", false
	}
	info := strings.TrimPrefix(lines[0], backtickFence)
	if strings.Contains(info, "`") {
		return "", false
	}
	if strings.TrimSpace(lines[len(lines)-1]) != backtickFence {
		return "", false
	}
	body := lines[1 : len(lines)-1]
	for _, line := range body {
		if strings.TrimSpace(line) == backtickFence {
			// two adjacent blocks, not a single wrapper
			return "", false
		}
	}
	return strings.Join(body, "\n"), true
}

func unwrapQuotes(trimmed string) (string, bool) {
	if len(trimmed) < 2*len(quoteFence) || !strings.HasSuffix(trimmed, quoteFence) {
		return "", false
	}
	body := trimmed[len(quoteFence) : len(trimmed)-len(quoteFence)]
	if strings.Contains(body, quoteFence) {
		return "", false
	}
	return strings.TrimPrefix(strings.TrimPrefix(body, "\r\n"), "\n"), true
}
