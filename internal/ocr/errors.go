package ocr

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docintel/internal/common"
)

// Provider-side conditions the clients detect themselves.
var (
	ErrAPIKeyMissing      = errors.New("ocr api key is not configured")
	ErrMalformedResponse  = errors.New("malformed ocr response")
	ErrProviderProcessing = errors.New("ocr provider reported a processing error")
	ErrNoText             = errors.New("no text detected")
)

// Failure collects every signal available about a failed provider call.
type Failure struct {
	Err        error
	HTTPStatus int
	Message    string
}

func (f Failure) grpcCode() codes.Code {
	if f.Err == nil {
		return codes.OK
	}
	if st, ok := status.FromError(f.Err); ok {
		return st.Code()
	}
	return codes.Unknown
}

func (f Failure) text() string {
	var b strings.Builder
	if f.Err != nil {
		b.WriteString(f.Err.Error())
		b.WriteByte(' ')
	}
	b.WriteString(f.Message)
	return strings.ToLower(b.String())
}

type errorRule struct {
	name  string
	match func(f Failure) bool
	code  string
}

// errorRules is evaluated top to bottom; the first match decides the code.
var errorRules = []errorRule{
	{
		name:  "api_key_missing",
		match: func(f Failure) bool { return errors.Is(f.Err, ErrAPIKeyMissing) },
		code:  common.CodeOCRAPIKeyMissing,
	},
	{
		name: "timeout",
		match: func(f Failure) bool {
			if errors.Is(f.Err, context.DeadlineExceeded) || f.grpcCode() == codes.DeadlineExceeded {
				return true
			}
			var ne net.Error
			if errors.As(f.Err, &ne) && ne.Timeout() {
				return true
			}
			if f.HTTPStatus == http.StatusRequestTimeout || f.HTTPStatus == http.StatusGatewayTimeout {
				return true
			}
			return strings.Contains(f.text(), "timed out")
		},
		code: common.CodeOCRTimeout,
	},
	{
		name: "quota",
		match: func(f Failure) bool {
			if f.HTTPStatus == http.StatusTooManyRequests || f.grpcCode() == codes.ResourceExhausted {
				return true
			}
			t := f.text()
			return strings.Contains(t, "quota") || strings.Contains(t, "limit")
		},
		code: common.CodeOCRQuota,
	},
	{
		name: "auth",
		match: func(f Failure) bool {
			return f.HTTPStatus == http.StatusUnauthorized ||
				f.grpcCode() == codes.Unauthenticated ||
				f.grpcCode() == codes.PermissionDenied ||
				strings.Contains(f.text(), "api key is invalid")
		},
		code: common.CodeOCRAuthFailed,
	},
	{
		name: "bad_request",
		match: func(f Failure) bool {
			return f.HTTPStatus == http.StatusBadRequest || f.grpcCode() == codes.InvalidArgument
		},
		code: common.CodeOCRBadRequest,
	},
	{
		name:  "parse",
		match: func(f Failure) bool { return errors.Is(f.Err, ErrMalformedResponse) },
		code:  common.CodeOCRParseError,
	},
	{
		name:  "provider_processing",
		match: func(f Failure) bool { return errors.Is(f.Err, ErrProviderProcessing) },
		code:  common.CodeOCRSpaceError,
	},
	{
		name:  "no_text",
		match: func(f Failure) bool { return errors.Is(f.Err, ErrNoText) },
		code:  common.CodeNoTextDetected,
	},
}

// Classify maps a provider failure onto the OCR error taxonomy.
func Classify(f Failure) string {
	for _, r := range errorRules {
		if r.match(f) {
			return r.code
		}
	}
	return common.CodeOCRFailed
}

// newError classifies f and wraps it with a client-safe message. The raw cause stays on the error for logging.
func newError(f Failure) *common.AppError {
	code := Classify(f)
	cause := f.Err
	if cause == nil {
		cause = errors.New(f.Message)
	} else if f.Message != "" {
		cause = common.WrapError(cause, f.Message)
	}
	appErr := common.NewCodedError(code, cause)
	if f.HTTPStatus != 0 {
		appErr.Details = map[string]any{"httpStatus": f.HTTPStatus}
	}
	return appErr
}
