package capture

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"
)

// FormatBody indents JSON and XML bodies. Anything that fails to parse is
// returned untouched.
func FormatBody(body, contentType string) string {
	if strings.TrimSpace(body) == "" {
		return body
	}
	ct := strings.ToLower(contentType)
	switch {
	case strings.Contains(ct, "json") || looksLikeJSON(body):
		if out, ok := indentJSON(body); ok {
			return out
		}
	case strings.Contains(ct, "xml"):
		if out, ok := indentXML(body); ok {
			return out
		}
	}
	return body
}

func looksLikeJSON(body string) bool {
	trimmed := strings.TrimSpace(body)
	return strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[")
}

func indentJSON(body string) (string, bool) {
	var buf bytes.Buffer
	if err := json.Indent(&buf, []byte(strings.TrimSpace(body)), "", "  "); err != nil {
		return "", false
	}
	return buf.String(), true
}

func indentXML(body string) (string, bool) {
	decoder := xml.NewDecoder(strings.NewReader(body))
	var buf bytes.Buffer
	encoder := xml.NewEncoder(&buf)
	encoder.Indent("", "  ")
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return "", false
		}
		if cd, ok := tok.(xml.CharData); ok && len(bytes.TrimSpace(cd)) == 0 {
			continue
		}
		if err := encoder.EncodeToken(tok); err != nil {
			return "", false
		}
	}
	if err := encoder.Flush(); err != nil {
		return "", false
	}
	return buf.String(), true
}
