package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrNotSignedIn   = errors.New("not signed in")
	ErrServerProof   = errors.New("server proof did not verify")
	ErrPasswordEmpty = errors.New("password is required")
)

// Error is a non-2xx answer from the server.
type Error struct {
	Status    int
	Code      string
	Message   string
	RequestID string
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// IsSessionInvalid reports whether the device has to sign in again.
func IsSessionInvalid(err error) bool {
	return hasCode(err, "SESSION_INVALID")
}

func IsConflict(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Status == http.StatusConflict
}

func hasCode(err error, code string) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

func decodeError(resp *http.Response) error {
	e := &Error{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return e
	}
	var payload struct {
		Error     string `json:"error"`
		Code      string `json:"code"`
		RequestID string `json:"request_id"`
	}
	if json.Unmarshal(body, &payload) == nil && payload.Error != "" {
		e.Code = payload.Code
		e.Message = payload.Error
		e.RequestID = payload.RequestID
	}
	return e
}
