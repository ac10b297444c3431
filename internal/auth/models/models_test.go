package models

import (
	"encoding/json"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenPayload_EncodeIsCompact(t *testing.T) {
	encoded, err := NewTokenPayload("abc123").Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"token":"abc123","provider":"github"}`, encoded)
}

func TestExchangeError_Is(t *testing.T) {
	cause := &net.OpError{Op: "dial", Err: errors.New("connection refused")}

	tests := []struct {
		name     string
		err      *ExchangeError
		sentinel error
	}{
		{name: "exchange failed", err: &ExchangeError{Kind: ErrorKindExchangeFailed, Err: cause}, sentinel: ErrExchangeFailed},
		{name: "token missing", err: &ExchangeError{Kind: ErrorKindTokenMissing, Code: "bad_verification_code"}, sentinel: ErrTokenMissing},
		{name: "missing code", err: &ExchangeError{Kind: ErrorKindMissingCode}, sentinel: ErrMissingCode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var err error = tt.err
			assert.ErrorIs(t, err, tt.sentinel)
		})
	}

	var opErr *net.OpError
	assert.ErrorAs(t, error(tests[0].err), &opErr)
}

func TestExchangeError_Message(t *testing.T) {
	err := &ExchangeError{
		Kind:        ErrorKindTokenMissing,
		Code:        "bad_verification_code",
		Description: "The code passed is incorrect or expired.",
	}
	assert.Equal(t, "token_missing: bad_verification_code: The code passed is incorrect or expired.", err.Error())
	assert.Equal(t, "bad_verification_code", err.ErrorCode())

	bare := &ExchangeError{Kind: ErrorKindMissingCode}
	assert.Equal(t, "missing_code", bare.ErrorCode())
}

func TestExchangeResult(t *testing.T) {
	ok := Success(NewTokenPayload("abc123"))
	assert.True(t, ok.OK())
	assert.Equal(t, "success", ok.Outcome())

	failed := Failure(&ExchangeError{Kind: ErrorKindTokenMissing})
	assert.False(t, failed.OK())
	assert.Equal(t, "token_missing", failed.Outcome())

	assert.False(t, ExchangeResult{}.OK())
	assert.Equal(t, "exchange_failed", ExchangeResult{}.Outcome())
}

func TestTokenResponse_HasAccessToken(t *testing.T) {
	tests := []struct {
		body string
		want bool
	}{
		{body: `{"access_token":"abc123"}`, want: true},
		{body: `{"access_token":""}`, want: true},
		{body: `{"access_token":null}`, want: true},
		{body: `{"error":"bad_verification_code"}`, want: false},
		{body: `{}`, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			var resp TokenResponse
			require.NoError(t, json.Unmarshal([]byte(tt.body), &resp))
			assert.Equal(t, tt.want, resp.HasAccessToken())
		})
	}
}

func TestNewRawTokenPayload_Encode(t *testing.T) {
	encoded, err := NewRawTokenPayload(json.RawMessage(`null`)).Encode()
	require.NoError(t, err)
	assert.Equal(t, `{"token":null,"provider":"github"}`, encoded)
}
