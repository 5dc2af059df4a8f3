package authz

import "net/http"

// Deny codes carried in the deny envelope. Handlers treat these as terminal
// outcomes, never as errors to retry.
const (
	CodeAuthenticationRequired = "authentication_required"
	CodeInsufficientRole       = "insufficient_role"
	CodeInsufficientPermission = "insufficient_permission"
	CodeSchoolAccessDenied     = "school_access_denied"
	CodeSchoolInfoMissing      = "school_info_missing"
)

// Denial is the terminal failure value an authorization gate produces in
// place of a Principal. It is a value, not an error: expected authorization
// failures never travel through panic or error returns.
type Denial struct {
	Status  int
	Code    string
	Message string
}

func denyUnauthenticated() *Denial {
	return &Denial{
		Status:  http.StatusUnauthorized,
		Code:    CodeAuthenticationRequired,
		Message: "authentication required",
	}
}

func denyForbidden(code, message string) *Denial {
	return &Denial{Status: http.StatusForbidden, Code: code, Message: message}
}

func denySchoolInfoMissing() *Denial {
	return &Denial{
		Status:  http.StatusBadRequest,
		Code:    CodeSchoolInfoMissing,
		Message: "school information missing",
	}
}
