// Package domain defines the persistence models for users, NGOs, rescue
// cases, case history, tags, and uploads. These types are mapped with GORM
// and form the core data layer of the rescue API.
//
// Every entity uses a 24-hex ObjectID primary key assigned in BeforeCreate
// and is soft-deleted through gorm.DeletedAt.
package domain

import (
	"time"

	"gorm.io/gorm"
)

// User roles.
const (
	RoleAdmin     = "ADMIN"
	RoleNGOAdmin  = "NGO_ADMIN"
	RoleNGOField  = "NGO_FO"
	RoleVolunteer = "VOLUNTEER"
	RoleUser      = "USER"
)

// User account statuses.
const (
	UserNotActivated = "NOT_ACTIVATED"
	UserActivated    = "ACTIVATED"
	UserDisabled     = "DISABLED"
	UserDeleted      = "DELETED"
)

// Animal types for a case.
const (
	AnimalDog     = "DOG"
	AnimalCat     = "CAT"
	AnimalUnknown = "UNKNOWN"
)

// Case lifecycle statuses.
const (
	CaseOpen       = "OPEN"
	CaseInProgress = "IN_PROGRESS"
	CaseClosed     = "CLOSED"
)

// Upload media types and referer kinds.
const (
	MediaImage = "IMAGE"
	MediaVideo = "VIDEO"
	MediaSound = "SOUND"
	MediaDoc   = "DOC"

	RefererCase = "CASE"
	RefererUser = "USER"
	RefererNGO  = "NGO"
)

// User is an account that can authenticate against the API.
//
// Fields:
//   - Email: unique login identifier.
//   - Password: bcrypt hash; never serialized.
//   - Roles: role tags carried into issued tokens.
//   - Status: NOT_ACTIVATED until the signup OTP is verified.
type User struct {
	ID                   string         `json:"id"                             gorm:"type:char(24);primaryKey"`
	Email                string         `json:"email"                          gorm:"type:varchar(320);not null;uniqueIndex"`
	Password             string         `json:"-"                              gorm:"type:varchar(100);not null"`
	Roles                []string       `json:"roles"                          gorm:"serializer:json;not null"`
	Status               string         `json:"status"                         gorm:"type:varchar(16);not null;default:'NOT_ACTIVATED'"`
	PhoneNumber          string         `json:"phoneNumber,omitempty"          gorm:"type:varchar(16)"`
	AlternatePhoneNumber string         `json:"alternatePhoneNumber,omitempty" gorm:"type:varchar(16)"`
	Point                *Point         `json:"point,omitempty"                gorm:"serializer:json"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `json:"deletedAt,omitempty"            gorm:"index"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// BeforeCreate assigns an ObjectID and default role when missing.
func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = NewObjectID()
	}
	if len(u.Roles) == 0 {
		u.Roles = []string{RoleUser}
	}
	if u.Status == "" {
		u.Status = UserNotActivated
	}
	return nil
}

// HasRole reports whether the user carries role r.
func (u *User) HasRole(r string) bool {
	for _, have := range u.Roles {
		if have == r {
			return true
		}
	}
	return false
}

// UserValidation is a pending email verification created at signup.
type UserValidation struct {
	ID         string     `json:"id"                   gorm:"type:char(24);primaryKey"`
	Email      string     `json:"email"                gorm:"type:varchar(320);not null;index"`
	OTP        string     `json:"-"                    gorm:"type:varchar(6);not null"`
	Token      string     `json:"-"                    gorm:"type:varchar(64);not null"`
	ExpiresAt  time.Time  `json:"expiresAt"            gorm:"not null"`
	VerifiedAt *time.Time `json:"verifiedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// TableName returns the database table name for UserValidation.
func (UserValidation) TableName() string { return "user_validations" }

// BeforeCreate assigns an ObjectID when missing.
func (v *UserValidation) BeforeCreate(*gorm.DB) error {
	if v.ID == "" {
		v.ID = NewObjectID()
	}
	return nil
}

// NGO is a rescue organisation covering a geographic area.
type NGO struct {
	ID                   string         `json:"id"                             gorm:"type:char(24);primaryKey"`
	Name                 string         `json:"name,omitempty"                 gorm:"type:varchar(120)"`
	Description          string         `json:"description,omitempty"          gorm:"type:text"`
	Address              string         `json:"address,omitempty"              gorm:"type:text"`
	PhoneNumber          string         `json:"phoneNumber"                    gorm:"type:varchar(16);not null"`
	AlternatePhoneNumber string         `json:"alternatePhoneNumber,omitempty" gorm:"type:varchar(16)"`
	Point                *Point         `json:"point,omitempty"                gorm:"serializer:json"`
	Area                 *Polygon       `json:"area"                           gorm:"serializer:json;not null"`
	VerifiedAt           *time.Time     `json:"verifiedAt,omitempty"`
	AddedBy              string         `json:"addedBy,omitempty"              gorm:"type:char(24);index"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `json:"deletedAt,omitempty"            gorm:"index"`
}

// TableName returns the database table name for NGO.
func (NGO) TableName() string { return "ngos" }

// BeforeCreate assigns an ObjectID when missing.
func (n *NGO) BeforeCreate(*gorm.DB) error {
	if n.ID == "" {
		n.ID = NewObjectID()
	}
	return nil
}

// Location returns the coordinates used for proximity ranking: the NGO's
// point when set, otherwise the centroid of its area.
func (n *NGO) Location() (lon, lat float64, ok bool) {
	if n.Point != nil && len(n.Point.Coordinates) >= 2 {
		return n.Point.Lon(), n.Point.Lat(), true
	}
	if n.Area != nil {
		return n.Area.Centroid()
	}
	return 0, 0, false
}

// AnimalDetails describes the animal a case is about.
type AnimalDetails struct {
	Type               string `json:"type"                         gorm:"type:varchar(16);not null"`
	Name               string `json:"name,omitempty"               gorm:"type:varchar(38)"`
	Color              string `json:"color,omitempty"              gorm:"type:varchar(38)"`
	IdentificationMark string `json:"identificationMark,omitempty" gorm:"type:varchar(60)"`
	Image              string `json:"image,omitempty"              gorm:"type:char(24)"`
}

// Case is a reported animal in need, assigned to the nearest NGO.
type Case struct {
	ID                   string         `json:"id"                             gorm:"type:char(24);primaryKey"`
	AnimalDetails        AnimalDetails  `json:"animalDetails"                  gorm:"embedded;embeddedPrefix:animal_"`
	Description          string         `json:"description,omitempty"          gorm:"type:text"`
	Address              string         `json:"address,omitempty"              gorm:"type:text"`
	PhoneNumber          string         `json:"phoneNumber"                    gorm:"type:varchar(16);not null"`
	AlternatePhoneNumber string         `json:"alternatePhoneNumber,omitempty" gorm:"type:varchar(16)"`
	Point                *Point         `json:"point"                          gorm:"serializer:json;not null"`
	Area                 *Polygon       `json:"area,omitempty"                 gorm:"serializer:json"`
	Status               string         `json:"status"                         gorm:"type:varchar(16);not null;default:'OPEN'"`
	AssignedNGO          string         `json:"assignedNgo,omitempty"          gorm:"column:assigned_ngo;type:char(24);index"`
	AddedBy              string         `json:"addedBy,omitempty"              gorm:"type:char(24);index"`
	History              []CaseHistory  `json:"history,omitempty"              gorm:"foreignKey:CaseID;references:ID"`
	CreatedAt            time.Time      `json:"createdAt"`
	UpdatedAt            time.Time      `json:"updatedAt"`
	DeletedAt            gorm.DeletedAt `json:"deletedAt,omitempty"            gorm:"index"`
}

// TableName returns the database table name for Case.
func (Case) TableName() string { return "cases" }

// BeforeCreate assigns an ObjectID and the initial status when missing.
func (c *Case) BeforeCreate(*gorm.DB) error {
	if c.ID == "" {
		c.ID = NewObjectID()
	}
	if c.Status == "" {
		c.Status = CaseOpen
	}
	return nil
}

// CaseHistory is one timeline entry on a case.
type CaseHistory struct {
	ID          string         `json:"id"                  gorm:"type:char(24);primaryKey"`
	Description string         `json:"description"         gorm:"type:text;not null"`
	CaseID      string         `json:"case"                gorm:"column:case_id;type:char(24);not null;index"`
	AssignedTo  string         `json:"assignedTo"          gorm:"type:char(24);not null;index"`
	AddedBy     string         `json:"addedBy,omitempty"   gorm:"type:char(24)"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
	DeletedAt   gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the database table name for CaseHistory.
func (CaseHistory) TableName() string { return "case_histories" }

// BeforeCreate assigns an ObjectID when missing.
func (h *CaseHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == "" {
		h.ID = NewObjectID()
	}
	return nil
}

// Tag is a free-form label.
type Tag struct {
	ID        string         `json:"id"                  gorm:"type:char(24);primaryKey"`
	Name      string         `json:"name"                gorm:"type:varchar(60);not null"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// BeforeCreate assigns an ObjectID when missing.
func (t *Tag) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = NewObjectID()
	}
	return nil
}

// Referer points an upload at the entity it belongs to.
type Referer struct {
	Type   string `json:"type,omitempty"   gorm:"type:varchar(8)"`
	Object string `json:"object,omitempty" gorm:"type:char(24)"`
}

// Upload is a stored media blob plus its metadata.
type Upload struct {
	ID        string         `json:"id"                  gorm:"type:char(24);primaryKey"`
	Type      string         `json:"type"                gorm:"type:varchar(8);not null"`
	FileName  string         `json:"fileName"            gorm:"type:varchar(255);not null"`
	URL       string         `json:"url"                 gorm:"type:text;not null"`
	Title     string         `json:"title,omitempty"     gorm:"type:varchar(360)"`
	Size      int64          `json:"size"`
	SizeHuman string         `json:"sizeHuman,omitempty" gorm:"type:varchar(32)"`
	AddedBy   string         `json:"addedBy,omitempty"   gorm:"type:char(24);index"`
	Referer   Referer        `json:"referer"             gorm:"embedded;embeddedPrefix:referer_"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the database table name for Upload.
func (Upload) TableName() string { return "uploads" }

// BeforeCreate assigns an ObjectID when missing.
func (u *Upload) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = NewObjectID()
	}
	return nil
}
