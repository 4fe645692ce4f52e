package errors

import (
	"errors"
	"net/http"

	"github.com/civikit/catalog/internal/errors/i18n"
)

// DefaultLocale is the default locale for user-facing error messages.
const DefaultLocale = "en-US"

// HTTPResponse is the JSON body written for a failed request.
type HTTPResponse struct {
	Code     string            `json:"code"`
	Message  string            `json:"message"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// GetCode extracts the error code from any error.
// Returns CodeUnknown if the error is not a domain error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// IsCode checks if the error has the specified code.
func IsCode(err error, code Code) bool {
	return GetCode(err) == code
}

// HTTPStatus resolves the response status for any error.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	return GetCode(err).HTTPStatus()
}

// ToHTTP converts an error into a status code and localized response body.
// The localized message comes from the i18n catalog for the given locale,
// defaulting to en-US; unknown errors collapse into a generic server error so
// internal details never leak to clients.
func ToHTTP(err error, locale string) (int, HTTPResponse) {
	if locale == "" {
		locale = DefaultLocale
	}

	var appErr *Error
	if errors.As(err, &appErr) {
		catalog := i18n.GetCatalog(locale)
		return appErr.Code.HTTPStatus(), HTTPResponse{
			Code:     string(appErr.Code),
			Message:  catalog.Format(string(appErr.Code), appErr.Metadata),
			Metadata: appErr.Metadata,
		}
	}

	return http.StatusInternalServerError, HTTPResponse{
		Code:    string(CodeUnknown),
		Message: "an unexpected error occurred",
	}
}
