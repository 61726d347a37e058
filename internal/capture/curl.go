package capture

import "strings"

// CurlRequest renders a curl command that replays the captured request.
func (r *Record) CurlRequest() string {
	if r == nil {
		return ""
	}
	parts := []string{"curl"}
	method := strings.ToUpper(strings.TrimSpace(r.Method))
	if method != "" && method != "GET" {
		parts = append(parts, "-X"+method)
	}
	for _, h := range r.RequestHeaders {
		parts = append(parts, "-H", shellQuote(h.Name+": "+h.Value))
	}
	if r.DataSent != "" {
		parts = append(parts, "-d", shellQuote(r.DataSent))
	}
	parts = append(parts, shellQuote(r.URL))
	return strings.Join(parts, " ")
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
