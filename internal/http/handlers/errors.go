// Package handlers provides HTTP handler implementations for the public API.
//
// This file maps service-level sentinel errors onto the API's typed errors.
// Not-found errors carry a single field naming the missing reference, e.g.
//
//	HTTP/1.1 404 Not Found
//	{ "status": 404, "message": "Not Found", "errors": { "caseId": "Case does not exist." } }
//
// Errors without a mapping pass through unchanged and surface as 500.
package handlers

import (
	"errors"

	"github.com/tbourn/rescue-api/internal/apperror"
	"github.com/tbourn/rescue-api/internal/http/middleware"
	"github.com/tbourn/rescue-api/internal/services"
	"github.com/tbourn/rescue-api/internal/validation"
)

// Messages of the mapped errors.
const (
	MessageEmailTaken         = "Email already exists"
	MessageInvalidCredentials = "Invalid credentials"
	MessageUnsupportedFormat  = "Only .png, .jpg and .jpeg format allowed"
)

type mapping struct {
	target error
	build  func() *apperror.Error
}

func missing(field, what string) func() *apperror.Error {
	return func() *apperror.Error {
		return apperror.NotFound(apperror.Fields{field: what + " does not exist."})
	}
}

var mappings = []mapping{
	{services.ErrUserNotFound, missing("userId", "User")},
	{services.ErrNGONotFound, missing("ngoId", "NGO")},
	{services.ErrCaseNotFound, missing("caseId", "Case")},
	{services.ErrCaseHistoryNotFound, missing("historyId", "History")},
	{services.ErrTagNotFound, missing("tagId", "Tag")},
	{services.ErrUploadNotFound, missing("uploadId", "Upload")},
	{services.ErrNoNGO, func() *apperror.Error {
		return apperror.NotFound(apperror.Fields{"message": "No NGO found"})
	}},
	{services.ErrEmailTaken, func() *apperror.Error {
		return apperror.Conflict(apperror.Fields{"email": MessageEmailTaken}).WithMessage(MessageEmailTaken)
	}},
	{services.ErrInvalidCredentials, func() *apperror.Error {
		return apperror.Conflict().WithMessage(MessageInvalidCredentials)
	}},
	{services.ErrInvalidOTP, func() *apperror.Error {
		return apperror.BadRequest(apperror.Fields{"otp": `"otp" is invalid or expired`}).WithMessage(validation.InvalidDataMessage)
	}},
	{services.ErrUnsupportedFormat, func() *apperror.Error {
		return apperror.BadRequest(apperror.Fields{"avatar": MessageUnsupportedFormat}).WithMessage(MessageUnsupportedFormat)
	}},
}

// mapError translates err for the error middleware.
func mapError(err error) error {
	if _, ok := apperror.As(err); ok {
		return err
	}
	if errors.Is(err, services.ErrFileTooLarge) {
		return middleware.NewBodyError(middleware.BodyTooLarge, err)
	}
	for _, m := range mappings {
		if errors.Is(err, m.target) {
			return m.build().Wrap(err)
		}
	}
	return err
}
