package common

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error codes surfaced to callers. These strings are part of the wire contract.
const (
	CodeUnauthenticated    = "UNAUTHENTICATED"
	CodeBadRequest         = "BAD_REQUEST"
	CodeFileTooLarge       = "FILE_TOO_LARGE"
	CodeFileDownloadFailed = "FILE_DOWNLOAD_FAILED"

	CodeOCRAPIKeyMissing = "OCR_API_KEY_MISSING"
	CodeOCRQuota         = "OCR_QUOTA"
	CodeNoTextDetected   = "NO_TEXT_DETECTED"
	CodeOCRTimeout       = "OCR_TIMEOUT"
	CodeOCRAuthFailed    = "OCR_AUTH_FAILED"
	CodeOCRBadRequest    = "OCR_BAD_REQUEST"
	CodeOCRParseError    = "OCR_PARSE_ERROR"
	CodeOCRSpaceError    = "OCR_SPACE_ERROR"
	CodeOCRFailed        = "OCR_FAILED"

	CodeTranslatePermission  = "TRANSLATE_PERMISSION"
	CodeTranslateAuth        = "TRANSLATE_AUTH"
	CodeTranslateQuota       = "TRANSLATE_QUOTA"
	CodeTranslateAPIDisabled = "TRANSLATE_API_DISABLED"
	CodeTranslateFailed      = "TRANSLATE_FAILED"

	CodeUnknown = "UNKNOWN"
	CodeConfig  = "CONFIG_ERROR"
)

// Kind is the callable error category, mirrored onto HTTP status codes.
type Kind string

const (
	KindUnauthenticated Kind = "unauthenticated"
	KindInvalidArgument Kind = "invalid-argument"
	KindInternal        Kind = "internal"
)

// AppError represents application-specific errors
type AppError struct {
	Code      string
	Kind      Kind
	Message   string
	Cause     error
	RequestID string
	Details   map[string]any
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error kind onto an HTTP status code.
func (e *AppError) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// GRPCStatus lets status.FromError understand AppError.
func (e *AppError) GRPCStatus() *status.Status {
	c := codes.Internal
	switch e.Kind {
	case KindUnauthenticated:
		c = codes.Unauthenticated
	case KindInvalidArgument:
		c = codes.InvalidArgument
	}
	return status.New(c, e.Code+": "+e.Message)
}

var (
	// ErrNotFound is returned by the record store for a missing laborer document.
	ErrNotFound = errors.New("resource not found")
	// ErrInvalidInput wraps configuration validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// safeMessages holds the client-facing text for each code. Raw provider errors never reach the caller.
var safeMessages = map[string]string{
	CodeUnauthenticated:    "You must be signed in to scan documents.",
	CodeBadRequest:         "The request is missing a file or uses an unsupported file type (pdf, jpg, jpeg, png).",
	CodeFileTooLarge:       "The file exceeds the 20 MB limit.",
	CodeFileDownloadFailed: "The uploaded file could not be downloaded.",

	CodeOCRAPIKeyMissing: "OCR service is not configured.",
	CodeOCRQuota:         "OCR quota exceeded. Please try again later.",
	CodeNoTextDetected:   "No text was detected in the document.",
	CodeOCRTimeout:       "OCR timed out. Try a smaller or clearer file.",
	CodeOCRAuthFailed:    "OCR service rejected our credentials.",
	CodeOCRBadRequest:    "OCR service rejected the file.",
	CodeOCRParseError:    "OCR service returned an unreadable response.",
	CodeOCRSpaceError:    "OCR service could not process the file.",
	CodeOCRFailed:        "OCR failed.",

	CodeTranslatePermission:  "Translation service permission denied.",
	CodeTranslateAuth:        "Translation service authentication failed.",
	CodeTranslateQuota:       "Translation quota exceeded. Please try again later.",
	CodeTranslateAPIDisabled: "Translation API is not enabled for this project.",
	CodeTranslateFailed:      "Translation failed.",

	CodeUnknown: "An unexpected error occurred.",
}

// SafeMessage returns the client-facing message for a code.
func SafeMessage(code string) string {
	if m, ok := safeMessages[code]; ok {
		return m
	}
	return safeMessages[CodeUnknown]
}

// kindByCode assigns the callable kind for each code; unlisted codes are internal.
var kindByCode = map[string]Kind{
	CodeUnauthenticated: KindUnauthenticated,
	CodeBadRequest:      KindInvalidArgument,
	CodeFileTooLarge:    KindInvalidArgument,
}

// KindOf returns the callable kind for a code.
func KindOf(code string) Kind {
	if k, ok := kindByCode[code]; ok {
		return k
	}
	return KindInternal
}

// NewAppError builds an error with the kind derived from the code.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Kind:    KindOf(code),
		Message: message,
		Cause:   cause,
	}
}

// NewCodedError builds an error carrying the fixed client-safe message for the code.
func NewCodedError(code string, cause error) *AppError {
	return NewAppError(code, SafeMessage(code), cause)
}

// CodeOf returns the taxonomy code of err, or UNKNOWN when err carries none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// AsAppError returns err as an *AppError, wrapping unclassified errors as UNKNOWN.
func AsAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr
	}
	return NewCodedError(CodeUnknown, err)
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
