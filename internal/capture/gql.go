package capture

import (
	"encoding/json"
	"strings"
)

type GQLOperation struct {
	OperationName string         `json:"operationName,omitempty"`
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
}

// DetectGQL reports the GraphQL operation carried by a request body, if any.
func DetectGQL(body string) *GQLOperation {
	trimmed := strings.TrimSpace(body)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var payload struct {
		OperationName string         `json:"operationName"`
		Query         *string        `json:"query"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.Unmarshal([]byte(trimmed), &payload); err != nil {
		return nil
	}
	if payload.Query == nil || strings.TrimSpace(*payload.Query) == "" {
		return nil
	}
	name := strings.TrimSpace(payload.OperationName)
	if name == "" {
		name = operationNameFromQuery(*payload.Query)
	}
	return &GQLOperation{
		OperationName: name,
		Query:         *payload.Query,
		Variables:     payload.Variables,
	}
}

// query GetUser($id: ID!) { ... } -> GetUser
func operationNameFromQuery(q string) string {
	fields := strings.FieldsFunc(q, func(r rune) bool {
		return r == ' ' || r == '\n' || r == '\t' || r == '(' || r == '{' || r == '\r'
	})
	if len(fields) < 2 {
		return ""
	}
	switch fields[0] {
	case "query", "mutation", "subscription":
		return fields[1]
	}
	return ""
}
