package common

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestNewCodedError_KindAndStatus(t *testing.T) {
	tests := []struct {
		code   string
		kind   Kind
		status int
		grpc   codes.Code
	}{
		{CodeUnauthenticated, KindUnauthenticated, http.StatusUnauthorized, codes.Unauthenticated},
		{CodeBadRequest, KindInvalidArgument, http.StatusBadRequest, codes.InvalidArgument},
		{CodeFileTooLarge, KindInvalidArgument, http.StatusBadRequest, codes.InvalidArgument},
		{CodeFileDownloadFailed, KindInternal, http.StatusInternalServerError, codes.Internal},
		{CodeOCRQuota, KindInternal, http.StatusInternalServerError, codes.Internal},
		{CodeTranslateFailed, KindInternal, http.StatusInternalServerError, codes.Internal},
		{CodeUnknown, KindInternal, http.StatusInternalServerError, codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			err := NewCodedError(tt.code, errors.New("raw provider detail"))
			assert.Equal(t, tt.kind, err.Kind)
			assert.Equal(t, tt.status, err.HTTPStatus())
			assert.Equal(t, SafeMessage(tt.code), err.Message)
			assert.NotContains(t, err.Message, "raw provider detail")

			st, ok := status.FromError(err)
			assert.True(t, ok)
			assert.Equal(t, tt.grpc, st.Code())
		})
	}
}

func TestCodeOf(t *testing.T) {
	wrapped := fmt.Errorf("scan: %w", NewCodedError(CodeOCRTimeout, nil))
	assert.Equal(t, CodeOCRTimeout, CodeOf(wrapped))
	assert.Equal(t, CodeUnknown, CodeOf(errors.New("plain")))
}

func TestAsAppError(t *testing.T) {
	assert.Nil(t, AsAppError(nil))

	plain := errors.New("boom")
	appErr := AsAppError(plain)
	assert.Equal(t, CodeUnknown, appErr.Code)
	assert.ErrorIs(t, appErr, plain)

	orig := NewCodedError(CodeBadRequest, nil)
	assert.Same(t, orig, AsAppError(fmt.Errorf("ctx: %w", orig)))
}

func TestSafeMessage_UnknownCodeFallsBack(t *testing.T) {
	assert.Equal(t, SafeMessage(CodeUnknown), SafeMessage("NOT_A_CODE"))
}

func TestWrapError(t *testing.T) {
	assert.NoError(t, WrapError(nil, "ctx"))
	err := WrapError(ErrNotFound, "load laborer")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, "load laborer: resource not found", err.Error())
}
