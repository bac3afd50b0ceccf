// Package services defines the business logic for accounts, NGOs, rescue
// cases, case history, tags, and uploads. This file centralizes common
// service-level error values so that they can be consistently returned by
// service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and translation
// into user-facing messages or HTTP status codes should be performed at the
// handler/controller layer.
package services

import (
	"errors"

	"github.com/tbourn/rescue-api/internal/repo"
)

// Account errors.
var (
	// ErrUserNotFound indicates that the referenced user does not exist or
	// was deleted.
	ErrUserNotFound = errors.New("user not found")

	// ErrEmailTaken is returned on signup or user creation when another
	// account, deleted ones included, already uses the address.
	ErrEmailTaken = errors.New("email already exists")

	// ErrInvalidCredentials is returned by Login for an unknown email or a
	// wrong password. The two cases are deliberately indistinguishable.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrInvalidOTP is returned by Verify when no pending validation matches
	// the email and code, or it expired.
	ErrInvalidOTP = errors.New("invalid or expired otp")
)

// NGO and case errors.
var (
	// ErrNGONotFound indicates that the referenced NGO does not exist.
	ErrNGONotFound = errors.New("ngo not found")

	// ErrNoNGO is returned when a case cannot be assigned because no NGO
	// with a usable location exists.
	ErrNoNGO = errors.New("no ngo found")

	// ErrCaseNotFound indicates that the referenced case does not exist.
	ErrCaseNotFound = errors.New("case not found")

	// ErrCaseHistoryNotFound indicates that the history entry does not exist.
	ErrCaseHistoryNotFound = errors.New("case history not found")
)

// Tag and upload errors.
var (
	ErrTagNotFound    = errors.New("tag not found")
	ErrUploadNotFound = errors.New("upload not found")

	// ErrUnsupportedFormat is returned for avatar files that are not PNG or
	// JPEG by extension.
	ErrUnsupportedFormat = errors.New("only .png, .jpg and .jpeg format allowed")

	// ErrFileTooLarge is returned when an upload exceeds the configured cap.
	ErrFileTooLarge = errors.New("file too large")
)

// notFound maps repo.ErrNotFound to the given service error and passes
// anything else through.
func notFound(err, as error) error {
	if errors.Is(err, repo.ErrNotFound) {
		return as
	}
	return err
}
