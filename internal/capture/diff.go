package capture

import (
	"context"
	"fmt"
	"strings"

	udiff "github.com/aymanbagabas/go-udiff"
)

// Diff renders a unified diff of two captures: the status line, then the
// response headers, then the formatted response bodies. Identical sections
// are left out, so two equal captures yield "".
func Diff(ctx context.Context, a, b *Record) (string, error) {
	if a == nil || b == nil {
		return "", fmt.Errorf("diff: both captures are required")
	}
	bodyA, err := a.ResponseBody(ctx)
	if err != nil {
		return "", fmt.Errorf("diff: load %s: %w", a.ID, err)
	}
	bodyB, err := b.ResponseBody(ctx)
	if err != nil {
		return "", fmt.Errorf("diff: load %s: %w", b.ID, err)
	}

	var out []string
	section := func(name, left, right string) {
		left, right = withNewline(left), withNewline(right)
		if left == right {
			return
		}
		d := udiff.Unified(a.ID+" "+name, b.ID+" "+name, left, right)
		if strings.TrimSpace(d) != "" {
			out = append(out, d)
		}
	}
	section("status", statusLine(a), statusLine(b))
	section("headers", headerLines(a.ResponseHeaders), headerLines(b.ResponseHeaders))
	section("body", bodyA, bodyB)
	return strings.Join(out, "\n"), nil
}

func statusLine(r *Record) string {
	if r.Error != "" {
		return fmt.Sprintf("%s %s -> error: %s", r.Method, r.URL, r.Error)
	}
	return fmt.Sprintf("%s %s -> %d", r.Method, r.URL, r.Status)
}

func headerLines(h Headers) string {
	var b strings.Builder
	for _, e := range h {
		b.WriteString(e.Name)
		b.WriteString(": ")
		b.WriteString(e.Value)
		b.WriteByte('\n')
	}
	return b.String()
}

func withNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
