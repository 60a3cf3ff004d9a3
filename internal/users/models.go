package users

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Role string

const (
	RoleStudent  Role = "student"
	RoleEnrollee Role = "enrollee"
	RoleTeacher  Role = "teacher"
	RoleEmployee Role = "employee"
)

// IsStaff reports whether the role uses the staff variant of RoleProperties.
func (r Role) IsStaff() bool {
	return r == RoleTeacher || r == RoleEmployee
}

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleEnrollee, RoleTeacher, RoleEmployee:
		return true
	}
	return false
}

type EducationForm string

const (
	FormFullTime        EducationForm = "full-time"
	FormInAbsentia      EducationForm = "in-absentia"
	FormMagistracy      EducationForm = "magistracy"
	FormDoctoralStudies EducationForm = "doctoral-studies"
)

func (f EducationForm) Valid() bool {
	switch f {
	case FormFullTime, FormInAbsentia, FormMagistracy, FormDoctoralStudies:
		return true
	}
	return false
}

type EducationLevel string

const (
	EducationSecondary EducationLevel = "secondary"
	EducationHigher    EducationLevel = "higher"
)

func (l EducationLevel) Valid() bool {
	return l == EducationSecondary || l == EducationHigher
}

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Auth           Auth               `bson:"auth" json:"auth"`
	Bio            Bio                `bson:"bio" json:"bio"`
	System         SystemInfo         `bson:"system" json:"system"`
	Status         Status             `bson:"status" json:"status"`
	RoleProperties RoleProperties     `bson:"roleProperties" json:"roleProperties"`
}

type Auth struct {
	// Password holds the bcrypt hash once the record is persisted. It is
	// never projected into a DTO or a token payload.
	Password string `bson:"password" json:"password"`
	Login    string `bson:"login" json:"login"`
}

type Bio struct {
	FirstName    string    `bson:"firstName" json:"firstName"`
	LastName     string    `bson:"lastName" json:"lastName"`
	Patronymic   string    `bson:"patronymic" json:"patronymic"`
	PhoneNumbers []string  `bson:"phoneNumbers" json:"phoneNumbers"`
	DateOfBirth  time.Time `bson:"dateOfBirth" json:"dateOfBirth"`
	Geo          Geo       `bson:"geo" json:"geo"`
	PINFL        string    `bson:"PINFL" json:"PINFL"`
	Passport     string    `bson:"passport" json:"passport"`
}

type Geo struct {
	CountryISO string `bson:"countryISO" json:"countryISO"`
	Region     int    `bson:"region" json:"region"`
}

type SystemInfo struct {
	Role        Role         `bson:"role" json:"role"`
	Permissions []Permission `bson:"permissions" json:"permissions"`
}

type Status struct {
	IsDeleted bool `bson:"isDeleted" json:"isDeleted"`
	IsBlocked bool `bson:"isBlocked" json:"isBlocked"`
}

// RoleProperties is a tagged union: exactly one variant is populated,
// consistent with System.Role. Switching roles replaces the whole value, the
// old variant's fields do not survive a transition.
type RoleProperties struct {
	Staff   *StaffProperties   `bson:"staff,omitempty" json:"staff,omitempty"`
	Student *StudentProperties `bson:"student,omitempty" json:"student,omitempty"`
}

type StaffProperties struct {
	Formation               primitive.ObjectID `bson:"formation" json:"formation"`
	Position                int                `bson:"position" json:"position"`
	PostgraduateEducation   ExtraEducation     `bson:"postgraduateEducation" json:"postgraduateEducation"`
	QualificationIncreasing ExtraEducation     `bson:"qualificationIncreasing" json:"qualificationIncreasing"`
}

type ExtraEducation struct {
	IsActive bool       `bson:"isActive" json:"isActive"`
	Date     *time.Time `bson:"date" json:"date"`
}

type StudentProperties struct {
	FormOfEducation EducationForm       `bson:"formOfEducation" json:"formOfEducation"`
	DateOfAdmission time.Time           `bson:"dateOfAdmission" json:"dateOfAdmission"`
	Specialty       *primitive.ObjectID `bson:"specialty,omitempty" json:"specialty,omitempty"`
	Group           *int                `bson:"group,omitempty" json:"group,omitempty"`
	Education       EducationLevel      `bson:"education" json:"education"`
}

// DTO is the public projection of a user: everything except the credential
// hash. It is what token payloads carry and what every read returns.
type DTO struct {
	ID             primitive.ObjectID `json:"id"`
	Bio            Bio                `json:"bio"`
	System         SystemInfo         `json:"system"`
	RoleProperties RoleProperties     `json:"roleProperties"`
	Status         Status             `json:"status"`
}

func NewDTO(user *User) DTO {
	return DTO{
		ID:             user.ID,
		Bio:            user.Bio,
		System:         user.System,
		RoleProperties: user.RoleProperties,
		Status:         user.Status,
	}
}

// HasPermission checks capability membership. Permissions are data assigned
// at creation/edit; nothing is derived from the role at runtime.
func (d *DTO) HasPermission(p Permission) bool {
	for _, have := range d.System.Permissions {
		if have == p {
			return true
		}
	}
	return false
}

// TokenPair is one minted access/refresh token couple.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// AuthResult is the login/refresh response payload.
type AuthResult struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	User         DTO    `json:"user"`
}
