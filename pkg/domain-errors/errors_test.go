package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_CarriesCodeAndMessage(t *testing.T) {
	err := New(CodeWrongPayment, "payment must equal fee times batch size")

	require.Error(t, err)
	assert.Equal(t, "payment must equal fee times batch size", err.Error())
	assert.True(t, HasCode(err, CodeWrongPayment))
	assert.False(t, HasCode(err, CodeDuplicateEntrant))
	assert.Equal(t, CodeWrongPayment, CodeOf(err))
}

func TestWrap_PreservesChain(t *testing.T) {
	base := errors.New("connection reset")
	wrapped := Wrap(base, CodeInternal, "failed to archive round")

	require.Error(t, wrapped)
	assert.Equal(t, "failed to archive round: connection reset", wrapped.Error())
	assert.True(t, errors.Is(wrapped, base), "errors.Is must see through the wrapper")
	assert.True(t, HasCode(wrapped, CodeInternal))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.NoError(t, Wrap(nil, CodeInternal, "ignored"))
}

func TestHasCode_FindsInnerCode(t *testing.T) {
	inner := New(CodeAlreadyRefunded, "slot 3 is no longer active")
	outer := Wrap(inner, CodeInternal, "refund failed")

	assert.True(t, HasCode(outer, CodeInternal))
	assert.True(t, HasCode(outer, CodeAlreadyRefunded), "inner codes stay visible through wrapping")
	assert.False(t, HasCode(outer, CodeNoEntrants))
}

func TestHasCode_SeesThroughFmtWrapping(t *testing.T) {
	err := fmt.Errorf("enter: %w", New(CodeDuplicateEntrant, "identity already active"))
	assert.True(t, HasCode(err, CodeDuplicateEntrant))
}

func TestCodeOf_UncodedErrorDefaultsToInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("plain")))
}

func TestIs_MatchesHasCode(t *testing.T) {
	err := New(CodeRoundNotOver, "deadline not reached")
	assert.True(t, Is(err, CodeRoundNotOver))
	assert.False(t, Is(err, CodeNoEntrants))
}

func TestErrorsIs_ComparesByCodeAndMessage(t *testing.T) {
	err := New(CodeUnauthorized, "invalid token")

	assert.True(t, errors.Is(err, New(CodeUnauthorized, "invalid token")))
	assert.False(t, errors.Is(err, New(CodeUnauthorized, "token has expired")))
	assert.False(t, errors.Is(err, New(CodeForbidden, "invalid token")))
}

func TestToHTTPStatus(t *testing.T) {
	tests := []struct {
		code Code
		want int
	}{
		{CodeWrongPayment, http.StatusPaymentRequired},
		{CodeDuplicateEntrant, http.StatusConflict},
		{CodeInvalidIndex, http.StatusNotFound},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeAlreadyRefunded, http.StatusConflict},
		{CodeRoundNotOver, http.StatusConflict},
		{CodeNoEntrants, http.StatusConflict},
		{CodeInsufficientPool, http.StatusConflict},
		{CodeTransferRejected, http.StatusBadGateway},
		{CodeValidation, http.StatusBadRequest},
		{CodeInvalidInput, http.StatusBadRequest},
		{CodeBadRequest, http.StatusBadRequest},
		{CodeNotFound, http.StatusNotFound},
		{CodeForbidden, http.StatusForbidden},
		{CodeInvariantViolation, http.StatusInternalServerError},
		{CodeInternal, http.StatusInternalServerError},
		{Code("unknown_future_code"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, ToHTTPStatus(tt.code))
		})
	}
}
