package errors

import (
	"net/http"
)

// Error is a service-level failure carrying the HTTP status it maps to.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

// New creates a new Error with the given message and status code.
func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	// ErrForbidden: actor is not a participant or not authorized for the
	// specific action. A policy violation, not a race.
	ErrForbidden = New("forbidden", http.StatusForbidden)

	// ErrNotFound: a single-entity fetch by id didn't resolve.
	ErrNotFound = New("not found", http.StatusNotFound)

	// ErrInvalidParticipants: requester and provider are the same user.
	ErrInvalidParticipants = New("requester and provider must be different users", http.StatusBadRequest)

	// ErrEmptyPayload: text message with blank content, or file message
	// without attachments.
	ErrEmptyPayload = New("message payload is empty", http.StatusBadRequest)

	// ErrInvalidOffer: non-positive price or delivery days.
	ErrInvalidOffer = New("offer price and delivery days must be positive", http.StatusBadRequest)

	// ErrInvalidTransition: the offer is already terminal, or another
	// response won the race. Clients should refresh and retry.
	ErrInvalidTransition = New("offer can no longer be responded to", http.StatusConflict)

	// ErrWindowExpired: the undo window for deleting a message has passed.
	ErrWindowExpired = New("message can no longer be deleted", http.StatusGone)

	ErrBadRequest          = New("bad request", http.StatusBadRequest)
	ErrUnauthorized        = New("unauthorized", http.StatusUnauthorized)
	ErrInternalServerError = New("internal server error", http.StatusInternalServerError)
)
