package httperr

import "errors"

type BusinessError struct {
	Code string
}

func (e BusinessError) Error() string {
	return e.Code
}

func ErrBusiness(code string) error {
	return BusinessError{Code: code}
}

func IsBusiness(err error, code string) bool {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code == code
	}
	return false
}

// Code returns the business code carried by err, or "" for any other error.
func Code(err error) string {
	var be BusinessError
	if errors.As(err, &be) {
		return be.Code
	}
	return ""
}

const (
	CodeTimeout            = "timeout"
	CodeStorageUnavailable = "storage_unavailable"
)

// IsRetryable reports whether the caller may resend the same request unchanged.
func IsRetryable(err error) bool {
	switch Code(err) {
	case CodeTimeout, CodeStorageUnavailable:
		return true
	}
	return false
}
