package domain

import "errors"

var (
	// ErrRecognitionFailed means the feature-extraction service found no
	// face or plate, or was unreachable. No state is mutated.
	ErrRecognitionFailed = errors.New("could not recognize face or license plate")

	// ErrDuplicateEntry means the plate already has an active IN session.
	ErrDuplicateEntry = errors.New("vehicle is already parked")

	// ErrVerificationFailed means no active session owner matched the face
	// presented at exit.
	ErrVerificationFailed = errors.New("could not verify a matching parked vehicle")

	ErrSessionNotFound = errors.New("parking session not found")
	ErrSessionClosed   = errors.New("parking session already closed")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("access forbidden")
)
