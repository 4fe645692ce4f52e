package i18n

// Error codes must match the codes defined in internal/errors/codes.go.
// These are duplicated as strings to avoid an import cycle.
const (
	CodeUnknown                = "UNKNOWN"
	CodeUnauthenticated        = "UNAUTHENTICATED"
	CodeUnauthorized           = "UNAUTHORIZED"
	CodeNotFound               = "NOT_FOUND"
	CodeParentNotFound         = "PARENT_NOT_FOUND"
	CodeFieldRequired          = "FIELD_REQUIRED"
	CodeFieldInvalid           = "FIELD_INVALID"
	CodeChoiceInvalid          = "CHOICE_INVALID"
	CodePayloadInvalid         = "PAYLOAD_INVALID"
	CodeProcessDataMissing     = "PROCESS_DATA_MISSING"
	CodeSearchFilterInvalid    = "SEARCH_FILTER_INVALID"
	CodeUnknownEntityKind      = "UNKNOWN_ENTITY_KIND"
	CodeRelatedProcessNotFound = "RELATED_PROCESS_NOT_FOUND"
	CodeIdentifierConflict     = "IDENTIFIER_CONFLICT"
	CodeIdentifierExhausted    = "IDENTIFIER_RETRIES_EXHAUSTED"
)

var enUSMessages = map[Code]string{
	CodeUnknown:                "An unexpected error occurred",
	CodeUnauthenticated:        "Authentication is required",
	CodeUnauthorized:           "You do not have access to this organization's catalog",
	CodeNotFound:               "{{.Kind}} was not found",
	CodeParentNotFound:         "Parent {{.Kind}} was not found",
	CodeFieldRequired:          "Field {{.Field}} is required",
	CodeFieldInvalid:           "Field {{.Field}} has an invalid value",
	CodeChoiceInvalid:          "Value {{.Value}} is not a valid choice for {{.Field}}",
	CodePayloadInvalid:         "Request payload is invalid",
	CodeProcessDataMissing:     "Process has no process data record to update",
	CodeSearchFilterInvalid:    "List filter expression is invalid",
	CodeUnknownEntityKind:      "Unknown catalog entity kind {{.Kind}}",
	CodeRelatedProcessNotFound: "Related process {{.ID}} was not found",
	CodeIdentifierConflict:     "Identifier {{.Identifier}} was already assigned",
	CodeIdentifierExhausted:    "Could not assign a unique identifier, please retry",
}
