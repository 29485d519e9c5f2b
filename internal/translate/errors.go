package translate

import (
	"errors"
	"strings"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/joseph-ayodele/docintel/internal/common"
)

type errorRule struct {
	name  string
	match func(code codes.Code, msg string) bool
	code  string
}

// errorRules is evaluated top to bottom. A disabled API is reported as PermissionDenied,
// so the disabled check must come first.
var errorRules = []errorRule{
	{
		name: "api_disabled",
		match: func(_ codes.Code, msg string) bool {
			return strings.Contains(msg, "service_disabled") ||
				strings.Contains(msg, "has not been used") ||
				strings.Contains(msg, "is disabled")
		},
		code: common.CodeTranslateAPIDisabled,
	},
	{
		name: "permission",
		match: func(c codes.Code, msg string) bool {
			return c == codes.PermissionDenied || strings.Contains(msg, "permission denied")
		},
		code: common.CodeTranslatePermission,
	},
	{
		name: "auth",
		match: func(c codes.Code, msg string) bool {
			return c == codes.Unauthenticated || strings.Contains(msg, "unauthenticated")
		},
		code: common.CodeTranslateAuth,
	},
	{
		name: "quota",
		match: func(c codes.Code, msg string) bool {
			return c == codes.ResourceExhausted || strings.Contains(msg, "quota")
		},
		code: common.CodeTranslateQuota,
	},
}

// Classify maps a provider error onto the translation error taxonomy.
func Classify(err error) string {
	if err == nil {
		return ""
	}
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	c := codes.Unknown
	if st, ok := status.FromError(err); ok {
		c = st.Code()
	}
	msg := strings.ToLower(err.Error())
	for _, r := range errorRules {
		if r.match(c, msg) {
			return r.code
		}
	}
	return common.CodeTranslateFailed
}
