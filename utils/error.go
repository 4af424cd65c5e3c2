package utils

import "errors"

var (
	ErrorRecordNotFound    = errors.New("record not found")
	ErrorUnauthorized      = errors.New("unauthorized")
	ErrorForbidden         = errors.New("permission denied")
	ErrorInvalidTransition = errors.New("status transition not allowed")
	ErrorDocumentLocked    = errors.New("document can no longer be edited")
	ErrorDuplicateCode     = errors.New("duplicate document code")
	ErrorDuplicateValue    = errors.New("value already taken")
)

// GenericErrorMessage is shown to users when an error carries no safe message.
const GenericErrorMessage = "something went wrong, please try again"
