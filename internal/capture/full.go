package capture

import (
	"encoding/json"
	"time"
)

type fullRequest struct {
	*Record
	Response any     `json:"response,omitempty"`
	Duration float64 `json:"duration"`
}

// FullRequest merges a record with its displayed response body into one
// indented JSON document. The body is embedded as parsed JSON when it parses,
// otherwise as the raw string. The result is for sharing only and does not
// decode back into a Record.
func FullRequest(r *Record, responseBody string) (string, error) {
	if r == nil {
		r = &Record{}
	}
	var response any
	if responseBody != "" {
		if err := json.Unmarshal([]byte(responseBody), &response); err != nil {
			response = responseBody
		}
	}
	out, err := json.MarshalIndent(fullRequest{
		Record:   r,
		Response: response,
		Duration: float64(r.Duration()) / float64(time.Millisecond),
	}, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}
