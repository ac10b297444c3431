package models

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/brizzai/cms-oauth-relay/internal/auth/constants"
)

// TokenExchangeRequest is built per callback and discarded once the page is rendered
type TokenExchangeRequest struct {
	AuthorizationCode string
	ClientID          string
	ClientSecret      string
}

// TokenResponse is the JSON body returned by the GitHub token endpoint.
// AccessToken is nil only when the field is absent; a JSON null is kept as
// json.RawMessage("null").
type TokenResponse struct {
	AccessToken      json.RawMessage `json:"access_token"`
	TokenType        string `json:"token_type"`
	Scope            string `json:"scope"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorURI         string `json:"error_uri"`
}

// HasAccessToken reports whether the access_token field was sent at all
func (r TokenResponse) HasAccessToken() bool {
	return r.AccessToken != nil
}

// TokenPayload is what the popup posts to its opener on success.
// Token is passed through as sent by the provider, so it may be null.
type TokenPayload struct {
	Token    json.RawMessage `json:"token"`
	Provider string          `json:"provider"`
}

// NewTokenPayload wraps an access token string for the configured provider
func NewTokenPayload(token string) TokenPayload {
	raw, _ := json.Marshal(token)
	return NewRawTokenPayload(raw)
}

// NewRawTokenPayload wraps the access_token value exactly as the provider sent it
func NewRawTokenPayload(token json.RawMessage) TokenPayload {
	return TokenPayload{Token: token, Provider: constants.ProviderName}
}

// Encode serializes the payload without whitespace
func (p TokenPayload) Encode() (string, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("failed to encode token payload: %w", err)
	}
	return string(b), nil
}

// ExchangeErrorKind classifies why a callback could not produce a token
type ExchangeErrorKind string

const (
	ErrorKindExchangeFailed ExchangeErrorKind = "exchange_failed"
	ErrorKindTokenMissing   ExchangeErrorKind = "token_missing"
	ErrorKindMissingCode    ExchangeErrorKind = "missing_code"
)

var (
	ErrExchangeFailed = errors.New("token exchange failed")
	ErrTokenMissing   = errors.New("provider response missing access_token")
	ErrMissingCode    = errors.New("authorization code missing")
)

// ExchangeError is the typed failure handed to the error page
type ExchangeError struct {
	Kind        ExchangeErrorKind
	Code        string // provider error code, e.g. bad_verification_code
	Description string
	Err         error
}

func (e *ExchangeError) Error() string {
	msg := string(e.Kind)
	if e.Code != "" {
		msg += ": " + e.Code
	}
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap exposes both the sentinel for the kind and the underlying cause
func (e *ExchangeError) Unwrap() []error {
	errs := make([]error, 0, 2)
	switch e.Kind {
	case ErrorKindExchangeFailed:
		errs = append(errs, ErrExchangeFailed)
	case ErrorKindTokenMissing:
		errs = append(errs, ErrTokenMissing)
	case ErrorKindMissingCode:
		errs = append(errs, ErrMissingCode)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// ErrorCode returns the provider error code, falling back to the kind
func (e *ExchangeError) ErrorCode() string {
	if e.Code != "" {
		return e.Code
	}
	return string(e.Kind)
}

// ExchangeResult holds exactly one of Payload or Err
type ExchangeResult struct {
	Payload *TokenPayload
	Err     *ExchangeError
}

func Success(payload TokenPayload) ExchangeResult {
	return ExchangeResult{Payload: &payload}
}

func Failure(err *ExchangeError) ExchangeResult {
	return ExchangeResult{Err: err}
}

// OK reports whether the exchange produced a token
func (r ExchangeResult) OK() bool {
	return r.Err == nil && r.Payload != nil
}

// Outcome is a low-cardinality label for logs and metrics
func (r ExchangeResult) Outcome() string {
	if r.OK() {
		return "success"
	}
	if r.Err == nil {
		return string(ErrorKindExchangeFailed)
	}
	return string(r.Err.Kind)
}
