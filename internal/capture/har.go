package capture

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

type harFile struct {
	Log struct {
		Entries []harEntry `json:"entries"`
	} `json:"log"`
}

type harEntry struct {
	StartedDateTime time.Time   `json:"startedDateTime"`
	Time            float64     `json:"time"`
	Request         harRequest  `json:"request"`
	Response        harResponse `json:"response"`
}

type harNameValue struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type harRequest struct {
	Method   string         `json:"method"`
	URL      string         `json:"url"`
	Headers  []harNameValue `json:"headers"`
	PostData *struct {
		MimeType string `json:"mimeType"`
		Text     string `json:"text"`
	} `json:"postData"`
}

type harResponse struct {
	Status  int            `json:"status"`
	Headers []harNameValue `json:"headers"`
	Content struct {
		Size     int    `json:"size"`
		MimeType string `json:"mimeType"`
		Text     string `json:"text"`
		Encoding string `json:"encoding"`
	} `json:"content"`
}

// LoadHAR converts the entries of a HAR 1.2 log into records.
func LoadHAR(r io.Reader) ([]*Record, error) {
	var doc harFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode har: %w", err)
	}
	out := make([]*Record, 0, len(doc.Log.Entries))
	for i, entry := range doc.Log.Entries {
		rec, err := recordFromHAR(entry)
		if err != nil {
			return nil, fmt.Errorf("har entry %d: %w", i, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func recordFromHAR(e harEntry) (*Record, error) {
	rec := &Record{
		ID:                  uuid.NewString(),
		Method:              e.Request.Method,
		URL:                 e.Request.URL,
		Status:              e.Response.Status,
		StartTime:           e.StartedDateTime,
		RequestHeaders:      harHeaders(e.Request.Headers),
		ResponseHeaders:     harHeaders(e.Response.Headers),
		ResponseContentType: e.Response.Content.MimeType,
		ResponseSize:        e.Response.Content.Size,
	}
	if !e.StartedDateTime.IsZero() && e.Time > 0 {
		rec.EndTime = e.StartedDateTime.Add(time.Duration(e.Time * float64(time.Millisecond)))
	}
	if pd := e.Request.PostData; pd != nil {
		rec.DataSent = pd.Text
		rec.GQLOperation = DetectGQL(pd.Text)
	}
	text := e.Response.Content.Text
	if e.Response.Content.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(text)
		if err != nil {
			return nil, fmt.Errorf("decode response content: %w", err)
		}
		text = string(decoded)
	}
	rec.Response = text
	return rec, nil
}

func harHeaders(in []harNameValue) Headers {
	if len(in) == 0 {
		return nil
	}
	out := make(Headers, 0, len(in))
	for _, h := range in {
		out = append(out, Header{Name: h.Name, Value: h.Value})
	}
	return out
}
