package apperr

import (
	"errors"
	"net/http"
)

// Response is the JSON body of every error the API returns.
type Response struct {
	Error  string `json:"error"`
	Kind   Kind   `json:"kind,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// HTTPStatus maps err to the status code the API answers with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindUnauthenticated:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindConflict:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindValidation:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// ToResponse renders err for a client. Internal errors are not exposed.
func ToResponse(err error) Response {
	var e *Error
	if !errors.As(err, &e) {
		return Response{Error: "internal server error"}
	}
	msg := e.Msg
	if msg == "" {
		msg = e.Error()
	}
	return Response{Error: msg, Kind: e.Kind, Reason: e.Reason}
}

// FromResponse rebuilds the error a server reported. Bodies without a kind
// yield nil.
func FromResponse(r Response) error {
	if r.Kind == "" {
		return nil
	}
	return &Error{Kind: r.Kind, Reason: r.Reason, Msg: r.Error}
}
