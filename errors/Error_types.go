package errors

import "strconv"

// ERR is the error code carried by every *Error.
type ERR int32

const (
	// general
	ERR_UNKNOWN          ERR = 0
	ERR_INVALID_ARGUMENT ERR = 1
	ERR_NOT_FOUND        ERR = 2
	ERR_PROCESSING       ERR = 3
	ERR_CONFIGURATION    ERR = 4
	ERR_CONTEXT          ERR = 5
	ERR_CONTEXT_CANCELED ERR = 6
	ERR_ERROR            ERR = 9

	// header chain
	ERR_MALFORMED_MANTISSA     ERR = 10
	ERR_PARENT_HASH_MISMATCH   ERR = 11
	ERR_THRESHOLD_MISMATCH     ERR = 12
	ERR_PROOF_OF_WORK          ERR = 13
	ERR_RETARGET_MISMATCH      ERR = 14
	ERR_PERIOD_ANCHOR_MISMATCH ERR = 15
	ERR_UNSUPPORTED_SPAN       ERR = 16
	ERR_HEADER_INVALID         ERR = 17

	// service
	ERR_SERVICE_UNAVAILABLE ERR = 50
	ERR_SERVICE_ERROR       ERR = 51

	// network
	ERR_NETWORK_ERROR              ERR = 110
	ERR_NETWORK_TIMEOUT            ERR = 111
	ERR_NETWORK_CONNECTION_REFUSED ERR = 112
	ERR_NETWORK_INVALID_RESPONSE   ERR = 113
)

var ERR_name = map[int32]string{
	0:   "UNKNOWN",
	1:   "INVALID_ARGUMENT",
	2:   "NOT_FOUND",
	3:   "PROCESSING",
	4:   "CONFIGURATION",
	5:   "CONTEXT",
	6:   "CONTEXT_CANCELED",
	9:   "ERROR",
	10:  "MALFORMED_MANTISSA",
	11:  "PARENT_HASH_MISMATCH",
	12:  "THRESHOLD_MISMATCH",
	13:  "PROOF_OF_WORK",
	14:  "RETARGET_MISMATCH",
	15:  "PERIOD_ANCHOR_MISMATCH",
	16:  "UNSUPPORTED_SPAN",
	17:  "HEADER_INVALID",
	50:  "SERVICE_UNAVAILABLE",
	51:  "SERVICE_ERROR",
	110: "NETWORK_ERROR",
	111: "NETWORK_TIMEOUT",
	112: "NETWORK_CONNECTION_REFUSED",
	113: "NETWORK_INVALID_RESPONSE",
}

func (x ERR) String() string {
	if name, ok := ERR_name[int32(x)]; ok {
		return name
	}

	return strconv.Itoa(int(x))
}

var (
	ErrUnknown                  = New(ERR_UNKNOWN, "unknown error")
	ErrInvalidArgument          = New(ERR_INVALID_ARGUMENT, "invalid argument")
	ErrNotFound                 = New(ERR_NOT_FOUND, "not found")
	ErrProcessing               = New(ERR_PROCESSING, "error processing")
	ErrConfiguration            = New(ERR_CONFIGURATION, "configuration error")
	ErrContext                  = New(ERR_CONTEXT, "context error")
	ErrContextCanceled          = New(ERR_CONTEXT_CANCELED, "context canceled")
	ErrError                    = New(ERR_ERROR, "generic error")
	ErrMalformedMantissa        = New(ERR_MALFORMED_MANTISSA, "malformed mantissa")
	ErrParentHashMismatch       = New(ERR_PARENT_HASH_MISMATCH, "parent hash mismatch")
	ErrThresholdMismatch        = New(ERR_THRESHOLD_MISMATCH, "threshold mismatch")
	ErrProofOfWork              = New(ERR_PROOF_OF_WORK, "proof of work failure")
	ErrRetargetMismatch         = New(ERR_RETARGET_MISMATCH, "retarget mismatch")
	ErrPeriodAnchorMismatch     = New(ERR_PERIOD_ANCHOR_MISMATCH, "period anchor mismatch")
	ErrUnsupportedSpan          = New(ERR_UNSUPPORTED_SPAN, "unsupported span")
	ErrHeaderInvalid            = New(ERR_HEADER_INVALID, "header invalid")
	ErrServiceUnavailable       = New(ERR_SERVICE_UNAVAILABLE, "service unavailable")
	ErrServiceError             = New(ERR_SERVICE_ERROR, "service error")
	ErrNetwork                  = New(ERR_NETWORK_ERROR, "network error")
	ErrNetworkTimeout           = New(ERR_NETWORK_TIMEOUT, "network timeout")
	ErrNetworkConnectionRefused = New(ERR_NETWORK_CONNECTION_REFUSED, "network connection refused")
	ErrNetworkInvalidResponse   = New(ERR_NETWORK_INVALID_RESPONSE, "network invalid response")
)

// errors initialization functions

func NewUnknownError(message string, params ...interface{}) error {
	return New(ERR_UNKNOWN, message, params...)
}
func NewInvalidArgumentError(message string, params ...interface{}) error {
	return New(ERR_INVALID_ARGUMENT, message, params...)
}
func NewNotFoundError(message string, params ...interface{}) error {
	return New(ERR_NOT_FOUND, message, params...)
}
func NewProcessingError(message string, params ...interface{}) error {
	return New(ERR_PROCESSING, message, params...)
}
func NewConfigurationError(message string, params ...interface{}) error {
	return New(ERR_CONFIGURATION, message, params...)
}
func NewContextError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT, message, params...)
}
func NewContextCanceledError(message string, params ...interface{}) error {
	return New(ERR_CONTEXT_CANCELED, message, params...)
}
func NewError(message string, params ...interface{}) error {
	return New(ERR_ERROR, message, params...)
}
func NewMalformedMantissaError(message string, params ...interface{}) error {
	return New(ERR_MALFORMED_MANTISSA, message, params...)
}
func NewParentHashMismatchError(index int, message string, params ...interface{}) error {
	return NewWithIndex(ERR_PARENT_HASH_MISMATCH, index, message, params...)
}
func NewThresholdMismatchError(index int, message string, params ...interface{}) error {
	return NewWithIndex(ERR_THRESHOLD_MISMATCH, index, message, params...)
}
func NewProofOfWorkError(index int, message string, params ...interface{}) error {
	return NewWithIndex(ERR_PROOF_OF_WORK, index, message, params...)
}
func NewRetargetMismatchError(message string, params ...interface{}) error {
	return New(ERR_RETARGET_MISMATCH, message, params...)
}
func NewPeriodAnchorMismatchError(message string, params ...interface{}) error {
	return New(ERR_PERIOD_ANCHOR_MISMATCH, message, params...)
}
func NewUnsupportedSpanError(message string, params ...interface{}) error {
	return New(ERR_UNSUPPORTED_SPAN, message, params...)
}
func NewHeaderInvalidError(message string, params ...interface{}) error {
	return New(ERR_HEADER_INVALID, message, params...)
}
func NewServiceUnavailableError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_UNAVAILABLE, message, params...)
}
func NewServiceError(message string, params ...interface{}) error {
	return New(ERR_SERVICE_ERROR, message, params...)
}
func NewNetworkError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_ERROR, message, params...)
}
func NewNetworkTimeoutError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_TIMEOUT, message, params...)
}
func NewNetworkConnectionRefusedError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_CONNECTION_REFUSED, message, params...)
}
func NewNetworkInvalidResponseError(message string, params ...interface{}) error {
	return New(ERR_NETWORK_INVALID_RESPONSE, message, params...)
}
