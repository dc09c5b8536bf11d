package usecase

import "errors"

const (
	CodeSubmitDisabled     = "submit_disabled"
	CodeSubmitInFlight     = "submit_in_flight"
	CodeDeleteNotConfirmed = "delete_not_confirmed"
	CodeProductNotFound    = "product_not_found"
	CodeInvalidTab         = "invalid_tab"
	CodeInvalidDraft       = "invalid_draft"
	CodeMissingActor       = "missing_actor"
	CodeFormClosed         = "form_closed"
)

// DomainError is a console guard refusing an operation; nothing was sent
// to the product API.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

func IsDomainError(err error) bool {
	var de *DomainError
	return errors.As(err, &de)
}

// HasCode reports whether err is a DomainError carrying code.
func HasCode(err error, code string) bool {
	var de *DomainError
	return errors.As(err, &de) && de.Code == code
}

// TechnicalError wraps a failure of the product API or of the transport.
type TechnicalError struct {
	Code    string
	Message string
	Err     error
}

func (e *TechnicalError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *TechnicalError) Unwrap() error {
	return e.Err
}

func IsTechnicalError(err error) bool {
	var te *TechnicalError
	return errors.As(err, &te)
}
