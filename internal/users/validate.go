package users

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"

	"sa-auth/internal/apierr"
)

var (
	phonePattern    = regexp.MustCompile(`^\+998 \d{2} \d{3} \d{2} \d{2}$`)
	isoCodePattern  = regexp.MustCompile(`^[A-Z]{2}$`)
	pinflPattern    = regexp.MustCompile(`^\d{14}$`)
	passportPattern = regexp.MustCompile(`^[A-Z]{2}\d{7}$`)
)

// SignupRequest is the registration payload. Auth.Password carries the
// plaintext here; it is hashed before the record is built.
type SignupRequest struct {
	Auth           Auth           `json:"auth"`
	Bio            Bio            `json:"bio"`
	System         SystemInfo     `json:"system"`
	RoleProperties RoleProperties `json:"roleProperties"`
}

// Validate checks the whole payload: field shapes and the role-conditional
// rules for RoleProperties. Registration is rejected atomically on the first
// violation.
func (r SignupRequest) Validate() error {
	if err := validation.ValidateStruct(&r.Auth,
		validation.Field(&r.Auth.Login, validation.Required, validation.Length(4, 24)),
		validation.Field(&r.Auth.Password, validation.Required, validation.Length(6, 72)),
	); err != nil {
		return apierr.Validation("auth: %v", err)
	}

	if err := r.Bio.Validate(); err != nil {
		return apierr.Validation("bio: %v", err)
	}

	if !r.System.Role.Valid() {
		return apierr.Validation("unknown role %q", r.System.Role)
	}
	for _, p := range r.System.Permissions {
		if !p.Valid() {
			return apierr.Validation("unknown permission %q", p)
		}
	}

	return validateRoleProperties(r.System.Role, r.RoleProperties)
}

func (b Bio) Validate() error {
	return validation.ValidateStruct(&b,
		validation.Field(&b.FirstName, validation.Required),
		validation.Field(&b.LastName, validation.Required),
		validation.Field(&b.Patronymic, validation.Required),
		validation.Field(&b.PhoneNumbers, validation.Required, validation.Each(validation.Match(phonePattern))),
		validation.Field(&b.DateOfBirth, validation.Required),
		validation.Field(&b.Geo),
		validation.Field(&b.PINFL, validation.Required, validation.Match(pinflPattern)),
		validation.Field(&b.Passport, validation.Required, validation.Match(passportPattern)),
	)
}

func (g Geo) Validate() error {
	return validation.ValidateStruct(&g,
		validation.Field(&g.CountryISO, validation.Required, validation.Match(isoCodePattern)),
		// Region 0 is a legal value, so no Required here.
		validation.Field(&g.Region, validation.Min(0)),
	)
}

// validateRoleProperties enforces the mutual-exclusivity invariant: the
// variant must match the role, the other variant's fields must be absent.
func validateRoleProperties(role Role, rp RoleProperties) error {
	if role.IsStaff() {
		if rp.Student != nil {
			return apierr.Validation("student fields are not allowed for role %q", role)
		}
		if rp.Staff == nil {
			return apierr.Validation("formation and position are required for role %q", role)
		}
		return validateStaffProperties(rp.Staff)
	}

	if rp.Staff != nil {
		return apierr.Validation("staff fields are not allowed for role %q", role)
	}
	if rp.Student == nil {
		return apierr.Validation("student properties are required for role %q", role)
	}
	return validateStudentProperties(rp.Student)
}

func validateStaffProperties(sp *StaffProperties) error {
	if sp.Formation.IsZero() {
		return apierr.Validation("formation is required")
	}
	if sp.Position < 1 {
		return apierr.Validation("position is required")
	}
	return nil
}

func validateStudentProperties(sp *StudentProperties) error {
	if !sp.FormOfEducation.Valid() {
		return apierr.Validation("unknown form of education %q", sp.FormOfEducation)
	}
	if sp.DateOfAdmission.IsZero() {
		return apierr.Validation("dateOfAdmission is required")
	}
	if !sp.Education.Valid() {
		return apierr.Validation("unknown education level %q", sp.Education)
	}

	// Doctoral students have neither a group nor a specialty; everyone else
	// must have both.
	if sp.FormOfEducation == FormDoctoralStudies {
		if sp.Group != nil || sp.Specialty != nil {
			return apierr.Validation("group and specialty are not allowed for doctoral studies")
		}
		return nil
	}
	if sp.Group == nil {
		return apierr.Validation("group is required")
	}
	if sp.Specialty == nil || sp.Specialty.IsZero() {
		return apierr.Validation("specialty is required")
	}
	return nil
}
