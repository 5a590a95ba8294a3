package shop

import (
	"fmt"
	"strings"
)

// ErrorEntry is one member of a GraphQL errors list.
type ErrorEntry struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

// GraphQLError is returned when the response carries a non-empty errors list.
type GraphQLError struct {
	Operation  string
	StatusCode int
	Errors     []ErrorEntry
}

func (e *GraphQLError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, entry := range e.Errors {
		msgs = append(msgs, entry.Message)
	}
	return fmt.Sprintf("%s returned GraphQL errors (HTTP %d): %s", e.Operation, e.StatusCode, strings.Join(msgs, "; "))
}

// HTTPStatusError is returned for non-2xx responses without a GraphQL errors list.
type HTTPStatusError struct {
	Operation  string
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%s: shop service returned status %d: %s", e.Operation, e.StatusCode, e.Body)
}
