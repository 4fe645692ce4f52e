// Package errors provides structured error handling for the catalog service.
package errors

import "net/http"

// Code is a machine-readable error code.
type Code string

const (
	// CodeUnknown represents an unknown error.
	CodeUnknown Code = "UNKNOWN"

	// Authentication and scoping errors
	CodeUnauthenticated Code = "UNAUTHENTICATED"
	CodeUnauthorized    Code = "UNAUTHORIZED"

	// Lookup errors
	CodeNotFound       Code = "NOT_FOUND"
	CodeParentNotFound Code = "PARENT_NOT_FOUND"

	// Validation errors
	CodeFieldRequired          Code = "FIELD_REQUIRED"
	CodeFieldInvalid           Code = "FIELD_INVALID"
	CodeChoiceInvalid          Code = "CHOICE_INVALID"
	CodePayloadInvalid         Code = "PAYLOAD_INVALID"
	CodeProcessDataMissing     Code = "PROCESS_DATA_MISSING"
	CodeSearchFilterInvalid    Code = "SEARCH_FILTER_INVALID"
	CodeUnknownEntityKind      Code = "UNKNOWN_ENTITY_KIND"
	CodeRelatedProcessNotFound Code = "RELATED_PROCESS_NOT_FOUND"

	// Allocation errors
	CodeIdentifierConflict  Code = "IDENTIFIER_CONFLICT"
	CodeIdentifierExhausted Code = "IDENTIFIER_RETRIES_EXHAUSTED"
)

// HTTPStatus maps domain codes to HTTP response statuses.
func (c Code) HTTPStatus() int {
	switch c {
	case CodeUnauthenticated:
		return http.StatusUnauthorized

	case CodeUnauthorized:
		return http.StatusForbidden

	case CodeNotFound,
		CodeParentNotFound:
		return http.StatusNotFound

	case CodeFieldRequired,
		CodeFieldInvalid,
		CodeChoiceInvalid,
		CodePayloadInvalid,
		CodeProcessDataMissing,
		CodeSearchFilterInvalid,
		CodeUnknownEntityKind,
		CodeRelatedProcessNotFound:
		return http.StatusBadRequest

	// Conflicts are retried by the allocator; one that escapes the retry
	// budget is a server fault, not a client one.
	case CodeIdentifierConflict:
		return http.StatusConflict
	case CodeIdentifierExhausted:
		return http.StatusInternalServerError

	default:
		return http.StatusInternalServerError
	}
}
