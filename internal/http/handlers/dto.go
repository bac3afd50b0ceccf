package handlers

import (
	"github.com/tbourn/rescue-api/internal/domain"
)

//
// Shared shapes
//

// ListQuery selects one page of a list. Both values are optional.
type ListQuery struct {
	Page  int `json:"page"  validate:"omitempty,min=1"         example:"1"`
	Limit int `json:"limit" validate:"omitempty,min=1,max=100" example:"20"`
}

//
// Auth
//

// SignupRequest is the JSON payload of POST /auth/signup.
type SignupRequest struct {
	Email       string        `json:"email"                 validate:"required,email,max=320"       example:"jane@example.com"`
	Password    string        `json:"password"              validate:"required,min=8,max=360"       example:"s3cret-pass"`
	PhoneNumber string        `json:"phoneNumber,omitempty" validate:"omitempty,len=10,digits"      example:"9876543210"`
	Point       *domain.Point `json:"point,omitempty"       validate:"omitempty"`
}

// LoginRequest is the JSON payload of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email,max=320" example:"jane@example.com"`
	Password string `json:"password" validate:"required,max=360"       example:"s3cret-pass"`
}

// VerifyRequest is the JSON payload of POST /auth/verify.
type VerifyRequest struct {
	Email string `json:"email" validate:"required,email,max=320" example:"jane@example.com"`
	OTP   string `json:"otp"   validate:"required,len=6,digits"  example:"482913"`
}

//
// Users
//

// CreateUserRequest is the JSON payload of POST /users.
type CreateUserRequest struct {
	Email                string        `json:"email"                          validate:"required,email,max=320"`
	Password             string        `json:"password"                       validate:"required,min=8,max=360"`
	Roles                []string      `json:"roles,omitempty"                validate:"omitempty,dive,oneof=ADMIN NGO_ADMIN NGO_FO VOLUNTEER USER"`
	Status               string        `json:"status,omitempty"               validate:"omitempty,oneof=NOT_ACTIVATED ACTIVATED DISABLED DELETED"`
	PhoneNumber          string        `json:"phoneNumber,omitempty"          validate:"omitempty,len=10,digits"`
	AlternatePhoneNumber string        `json:"alternatePhoneNumber,omitempty" validate:"omitempty,len=10,digits"`
	Point                *domain.Point `json:"point,omitempty"                validate:"omitempty"`
}

// UpdateUserRequest is the JSON payload of PUT /users/{id}. Every field is
// optional.
type UpdateUserRequest struct {
	Password             *string       `json:"password,omitempty"             validate:"omitempty,min=8,max=360"`
	Roles                []string      `json:"roles,omitempty"                validate:"omitempty,min=1,dive,oneof=ADMIN NGO_ADMIN NGO_FO VOLUNTEER USER"`
	Status               *string       `json:"status,omitempty"               validate:"omitempty,oneof=NOT_ACTIVATED ACTIVATED DISABLED DELETED"`
	PhoneNumber          *string       `json:"phoneNumber,omitempty"          validate:"omitempty,len=10,digits"`
	AlternatePhoneNumber *string       `json:"alternatePhoneNumber,omitempty" validate:"omitempty,len=10,digits"`
	Point                *domain.Point `json:"point,omitempty"                validate:"omitempty"`
}

//
// NGOs
//

// NearQuery is the query of GET /ngos. Distances are kilometres.
type NearQuery struct {
	Longitude   *float64 `json:"longitude"   validate:"omitempty,gte=-180,lte=180" example:"72.877"`
	Latitude    *float64 `json:"latitude"    validate:"omitempty,gte=-90,lte=90"   example:"19.076"`
	MaxDistance *float64 `json:"maxDistance" validate:"omitempty,gt=0"             example:"8"`
	MinDistance *float64 `json:"minDistance" validate:"omitempty,gte=0"            example:"0"`
}

// CreateNGORequest is the JSON payload of POST /ngos.
type CreateNGORequest struct {
	Name                 string          `json:"name,omitempty"                 validate:"omitempty,min=2,max=120"`
	Description          string          `json:"description,omitempty"          validate:"omitempty,max=2000"`
	Address              string          `json:"address,omitempty"              validate:"omitempty,max=360"`
	PhoneNumber          string          `json:"phoneNumber"                    validate:"required,len=10,digits"`
	AlternatePhoneNumber string          `json:"alternatePhoneNumber,omitempty" validate:"omitempty,len=10,digits"`
	Point                *domain.Point   `json:"point,omitempty"                validate:"omitempty"`
	Area                 *domain.Polygon `json:"area"                           validate:"required"`
}

// UpdateNGORequest is the JSON payload of PUT /ngos/{id}.
type UpdateNGORequest struct {
	Name                 *string         `json:"name,omitempty"                 validate:"omitempty,min=2,max=120"`
	Description          *string         `json:"description,omitempty"          validate:"omitempty,max=2000"`
	Address              *string         `json:"address,omitempty"              validate:"omitempty,max=360"`
	PhoneNumber          *string         `json:"phoneNumber,omitempty"          validate:"omitempty,len=10,digits"`
	AlternatePhoneNumber *string         `json:"alternatePhoneNumber,omitempty" validate:"omitempty,len=10,digits"`
	Point                *domain.Point   `json:"point,omitempty"                validate:"omitempty"`
	Area                 *domain.Polygon `json:"area,omitempty"                 validate:"omitempty"`
}

//
// Cases
//

// AnimalDetailsRequest describes the animal of a new case.
type AnimalDetailsRequest struct {
	Type               string `json:"type"                         validate:"required,oneof=DOG CAT UNKNOWN" example:"DOG"`
	Name               string `json:"name,omitempty"               validate:"omitempty,min=2,max=38"         example:"Rex"`
	Color              string `json:"color,omitempty"              validate:"omitempty,max=38"               example:"brown"`
	IdentificationMark string `json:"identificationMark,omitempty" validate:"omitempty,max=60"               example:"torn left ear"`
	Image              string `json:"image,omitempty"              validate:"omitempty,objectid"`
}

// CreateCaseRequest is the JSON payload of POST /cases.
type CreateCaseRequest struct {
	AnimalDetails        *AnimalDetailsRequest `json:"animalDetails"                  validate:"required"`
	Description          string                `json:"description,omitempty"          validate:"omitempty,min=2,max=360"`
	Address              string                `json:"address,omitempty"              validate:"omitempty,max=360"`
	PhoneNumber          string                `json:"phoneNumber"                    validate:"required,len=10,digits" example:"9876543210"`
	AlternatePhoneNumber string                `json:"alternatePhoneNumber,omitempty" validate:"omitempty,len=10,digits"`
	Point                *domain.Point         `json:"point"                          validate:"required"`
	Area                 *domain.Polygon       `json:"area,omitempty"                 validate:"omitempty"`
}

// AnimalTypeRequest changes the animal type of a case.
type AnimalTypeRequest struct {
	Type string `json:"type" validate:"required,oneof=DOG CAT UNKNOWN" example:"CAT"`
}

// UpdateCaseRequest is the JSON payload of PUT /cases/{id}. Only the animal
// type, the status and the point may change.
type UpdateCaseRequest struct {
	AnimalDetails *AnimalTypeRequest `json:"animalDetails,omitempty" validate:"omitempty"`
	Status        *string            `json:"status,omitempty"        validate:"omitempty,oneof=OPEN IN_PROGRESS CLOSED" example:"IN_PROGRESS"`
	Point         *domain.Point      `json:"point,omitempty"         validate:"omitempty"`
}

//
// Case history
//

// CreateCaseHistoryRequest is the JSON payload of POST /case-histories.
type CreateCaseHistoryRequest struct {
	Description string `json:"description" validate:"required,min=2,max=360" example:"Taken to the vet"`
	Case        string `json:"case"        validate:"required,objectid"`
	AssignedTo  string `json:"assignedTo"  validate:"required,objectid"`
}

// UpdateCaseHistoryRequest is the JSON payload of PUT /case-histories/{id}.
type UpdateCaseHistoryRequest struct {
	Description *string `json:"description,omitempty" validate:"omitempty,min=2,max=360"`
	Case        *string `json:"case,omitempty"        validate:"omitempty,objectid"`
	AssignedTo  *string `json:"assignedTo,omitempty"  validate:"omitempty,objectid"`
}

//
// Tags and uploads
//

// TagRequest is the JSON payload of POST /tags and PUT /tags/{id}.
type TagRequest struct {
	Name string `json:"name" validate:"required,min=2,max=60" example:"injured"`
}

// RefererRequest points an upload at its owner.
type RefererRequest struct {
	Type   string `json:"type"   validate:"required,oneof=CASE USER NGO" example:"CASE"`
	Object string `json:"object" validate:"required,objectid"`
}

// UpdateUploadRequest is the JSON payload of PUT /uploads/{id}.
type UpdateUploadRequest struct {
	Title   *string         `json:"title,omitempty"   validate:"omitempty,max=360" example:"Rex after rescue"`
	Referer *RefererRequest `json:"referer,omitempty" validate:"omitempty"`
}
