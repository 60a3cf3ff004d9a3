package users

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/apierr"
)

// Partial-update payloads. Every field is a pointer: nil means "not
// provided", a non-nil pointer to a zero value means "set to zero". This is
// what lets region:0 or isActive:false survive an edit instead of being
// dropped by a truthiness check.

type UserPatch struct {
	Bio            *BioPatch            `json:"bio,omitempty"`
	System         *SystemPatch         `json:"system,omitempty"`
	RoleProperties *RolePropertiesPatch `json:"roleProperties,omitempty"`
}

type BioPatch struct {
	FirstName    *string    `json:"firstName,omitempty"`
	LastName     *string    `json:"lastName,omitempty"`
	Patronymic   *string    `json:"patronymic,omitempty"`
	PhoneNumbers *[]string  `json:"phoneNumbers,omitempty"`
	DateOfBirth  *time.Time `json:"dateOfBirth,omitempty"`
	Geo          *GeoPatch  `json:"geo,omitempty"`
	PINFL        *string    `json:"PINFL,omitempty"`
	Passport     *string    `json:"passport,omitempty"`
}

type GeoPatch struct {
	CountryISO *string `json:"countryISO,omitempty"`
	Region     *int    `json:"region,omitempty"`
}

type SystemPatch struct {
	Role        *Role         `json:"role,omitempty"`
	Permissions *[]Permission `json:"permissions,omitempty"`
}

type RolePropertiesPatch struct {
	Staff   *StaffPatch   `json:"staff,omitempty"`
	Student *StudentPatch `json:"student,omitempty"`
}

type StaffPatch struct {
	Formation *primitive.ObjectID `json:"formation,omitempty"`
	Position  *int                `json:"position,omitempty"`
	// ExtraEducation blocks are replaced as whole values: providing one sets
	// both isActive and date together.
	PostgraduateEducation   *ExtraEducation `json:"postgraduateEducation,omitempty"`
	QualificationIncreasing *ExtraEducation `json:"qualificationIncreasing,omitempty"`
}

type StudentPatch struct {
	FormOfEducation *EducationForm      `json:"formOfEducation,omitempty"`
	DateOfAdmission *time.Time          `json:"dateOfAdmission,omitempty"`
	Specialty       *primitive.ObjectID `json:"specialty,omitempty"`
	Group           *int                `json:"group,omitempty"`
	Education       *EducationLevel     `json:"education,omitempty"`
}

type EditRequest struct {
	ID primitive.ObjectID `json:"id"`
	UserPatch
}

type EditManyRequest struct {
	IDs []primitive.ObjectID `json:"ids"`
	UserPatch
}

func (p UserPatch) isEmpty() bool {
	return p.Bio == nil && p.System == nil && p.RoleProperties == nil
}

// buildUserUpdate compiles a single-target patch into a sparse update
// document. The current record supplies the prior role: transition legality
// depends on both the old role and the new one. A role transition replaces
// roleProperties wholesale, which clears the old variant's fields.
func buildUserUpdate(current *User, patch UserPatch) (bson.M, error) {
	if patch.isEmpty() {
		return nil, apierr.Validation("empty update")
	}

	set := bson.M{}
	unset := bson.M{}

	if err := applyBioPatch(set, patch.Bio); err != nil {
		return nil, err
	}

	newRole := current.System.Role
	if patch.System != nil {
		if patch.System.Role != nil {
			if !patch.System.Role.Valid() {
				return nil, apierr.Validation("unknown role %q", *patch.System.Role)
			}
			newRole = *patch.System.Role
			set["system.role"] = newRole
		}
		if patch.System.Permissions != nil {
			for _, p := range *patch.System.Permissions {
				if !p.Valid() {
					return nil, apierr.Validation("unknown permission %q", p)
				}
			}
			set["system.permissions"] = *patch.System.Permissions
		}
	}

	variantChanging := newRole.IsStaff() != current.System.Role.IsStaff()
	if newRole.IsStaff() {
		if err := applyStaffRules(set, patch.RoleProperties, newRole, variantChanging); err != nil {
			return nil, err
		}
	} else {
		if err := applyStudentRules(set, unset, patch.RoleProperties, current, newRole, variantChanging); err != nil {
			return nil, err
		}
	}

	if len(set) == 0 && len(unset) == 0 {
		return nil, apierr.Validation("empty update")
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

// buildBulkUserUpdate compiles a shared patch for a set of targets. The bulk
// path issues one UpdateMany and deliberately does not load each target
// first: transition legality is checked against the intended new role only,
// not each target's prior role.
func buildBulkUserUpdate(patch UserPatch) (bson.M, error) {
	if patch.isEmpty() {
		return nil, apierr.Validation("empty update")
	}
	if patch.RoleProperties != nil && patch.RoleProperties.Staff != nil && patch.RoleProperties.Student != nil {
		return nil, apierr.Validation("staff and student fields are mutually exclusive")
	}

	set := bson.M{}
	unset := bson.M{}

	if err := applyBioPatch(set, patch.Bio); err != nil {
		return nil, err
	}

	var newRole *Role
	if patch.System != nil {
		if patch.System.Role != nil {
			if !patch.System.Role.Valid() {
				return nil, apierr.Validation("unknown role %q", *patch.System.Role)
			}
			newRole = patch.System.Role
			set["system.role"] = *newRole
		}
		if patch.System.Permissions != nil {
			for _, p := range *patch.System.Permissions {
				if !p.Valid() {
					return nil, apierr.Validation("unknown permission %q", p)
				}
			}
			set["system.permissions"] = *patch.System.Permissions
		}
	}

	switch {
	case newRole != nil && newRole.IsStaff():
		// Changing every target into a staff role: full variant required.
		if err := applyStaffRules(set, patch.RoleProperties, *newRole, true); err != nil {
			return nil, err
		}
	case newRole != nil:
		if err := applyStudentRules(set, unset, patch.RoleProperties, nil, *newRole, true); err != nil {
			return nil, err
		}
	case patch.RoleProperties != nil && patch.RoleProperties.Staff != nil:
		applySparseStaffPatch(set, patch.RoleProperties.Staff)
	case patch.RoleProperties != nil && patch.RoleProperties.Student != nil:
		if err := applySparseStudentPatch(set, unset, patch.RoleProperties.Student, nil); err != nil {
			return nil, err
		}
	}

	if len(set) == 0 && len(unset) == 0 {
		return nil, apierr.Validation("empty update")
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update, nil
}

func applyBioPatch(set bson.M, p *BioPatch) error {
	if p == nil {
		return nil
	}
	if p.FirstName != nil {
		set["bio.firstName"] = *p.FirstName
	}
	if p.LastName != nil {
		set["bio.lastName"] = *p.LastName
	}
	if p.Patronymic != nil {
		set["bio.patronymic"] = *p.Patronymic
	}
	if p.PhoneNumbers != nil {
		for _, phone := range *p.PhoneNumbers {
			if err := validation.Validate(phone, validation.Match(phonePattern)); err != nil {
				return apierr.Validation("phone number %q: %v", phone, err)
			}
		}
		set["bio.phoneNumbers"] = *p.PhoneNumbers
	}
	if p.DateOfBirth != nil {
		set["bio.dateOfBirth"] = *p.DateOfBirth
	}
	if p.Geo != nil {
		if p.Geo.CountryISO != nil {
			if err := validation.Validate(*p.Geo.CountryISO, validation.Match(isoCodePattern)); err != nil {
				return apierr.Validation("countryISO: %v", err)
			}
			set["bio.geo.countryISO"] = *p.Geo.CountryISO
		}
		if p.Geo.Region != nil {
			if *p.Geo.Region < 0 {
				return apierr.Validation("region must not be negative")
			}
			set["bio.geo.region"] = *p.Geo.Region
		}
	}
	if p.PINFL != nil {
		if err := validation.Validate(*p.PINFL, validation.Match(pinflPattern)); err != nil {
			return apierr.Validation("PINFL: %v", err)
		}
		set["bio.PINFL"] = *p.PINFL
	}
	if p.Passport != nil {
		if err := validation.Validate(*p.Passport, validation.Match(passportPattern)); err != nil {
			return apierr.Validation("passport: %v", err)
		}
		set["bio.passport"] = *p.Passport
	}
	return nil
}

func applyStaffRules(set bson.M, rp *RolePropertiesPatch, role Role, variantChanging bool) error {
	if rp != nil && rp.Student != nil {
		return apierr.Validation("student fields are not allowed for role %q", role)
	}

	if !variantChanging {
		if rp != nil && rp.Staff != nil {
			applySparseStaffPatch(set, rp.Staff)
		}
		return nil
	}

	// Transition into staff: formation and position are mandatory, the extra
	// education blocks are initialized when absent.
	if rp == nil || rp.Staff == nil || rp.Staff.Formation == nil || rp.Staff.Position == nil {
		return apierr.Validation("formation and position are required to become %q", role)
	}
	sp := StaffProperties{
		Formation:               *rp.Staff.Formation,
		Position:                *rp.Staff.Position,
		PostgraduateEducation:   ExtraEducation{IsActive: false, Date: nil},
		QualificationIncreasing: ExtraEducation{IsActive: false, Date: nil},
	}
	if rp.Staff.PostgraduateEducation != nil {
		sp.PostgraduateEducation = *rp.Staff.PostgraduateEducation
	}
	if rp.Staff.QualificationIncreasing != nil {
		sp.QualificationIncreasing = *rp.Staff.QualificationIncreasing
	}
	if err := validateStaffProperties(&sp); err != nil {
		return err
	}
	set["roleProperties"] = RoleProperties{Staff: &sp}
	return nil
}

func applySparseStaffPatch(set bson.M, p *StaffPatch) {
	if p.Formation != nil {
		set["roleProperties.staff.formation"] = *p.Formation
	}
	if p.Position != nil {
		set["roleProperties.staff.position"] = *p.Position
	}
	if p.PostgraduateEducation != nil {
		set["roleProperties.staff.postgraduateEducation"] = *p.PostgraduateEducation
	}
	if p.QualificationIncreasing != nil {
		set["roleProperties.staff.qualificationIncreasing"] = *p.QualificationIncreasing
	}
}

// applyStudentRules handles edits where the effective role is a student one.
// current may be nil on the bulk path, where prior state is unknown.
func applyStudentRules(set, unset bson.M, rp *RolePropertiesPatch, current *User, role Role, variantChanging bool) error {
	if rp != nil && rp.Staff != nil {
		return apierr.Validation("staff fields are not allowed for role %q", role)
	}

	if !variantChanging {
		if rp != nil && rp.Student != nil {
			return applySparseStudentPatch(set, unset, rp.Student, current)
		}
		return nil
	}

	if rp == nil || rp.Student == nil {
		return apierr.Validation("student properties are required to become %q", role)
	}
	p := rp.Student
	if p.FormOfEducation == nil || p.DateOfAdmission == nil || p.Education == nil {
		return apierr.Validation("formOfEducation, dateOfAdmission and education are required to become %q", role)
	}
	sp := StudentProperties{
		FormOfEducation: *p.FormOfEducation,
		DateOfAdmission: *p.DateOfAdmission,
		Specialty:       p.Specialty,
		Group:           p.Group,
		Education:       *p.Education,
	}
	if err := validateStudentProperties(&sp); err != nil {
		return err
	}
	set["roleProperties"] = RoleProperties{Student: &sp}
	return nil
}

func applySparseStudentPatch(set, unset bson.M, p *StudentPatch, current *User) error {
	priorForm := EducationForm("")
	if current != nil && current.RoleProperties.Student != nil {
		priorForm = current.RoleProperties.Student.FormOfEducation
	}
	effectiveForm := priorForm
	if p.FormOfEducation != nil {
		if !p.FormOfEducation.Valid() {
			return apierr.Validation("unknown form of education %q", *p.FormOfEducation)
		}
		effectiveForm = *p.FormOfEducation
		set["roleProperties.student.formOfEducation"] = effectiveForm
	}
	if p.DateOfAdmission != nil {
		set["roleProperties.student.dateOfAdmission"] = *p.DateOfAdmission
	}
	if p.Education != nil {
		if !p.Education.Valid() {
			return apierr.Validation("unknown education level %q", *p.Education)
		}
		set["roleProperties.student.education"] = *p.Education
	}

	if effectiveForm == FormDoctoralStudies {
		if p.Group != nil || p.Specialty != nil {
			return apierr.Validation("group and specialty are not allowed for doctoral studies")
		}
		// Moving into doctoral studies clears any stored group/specialty.
		if priorForm != FormDoctoralStudies && p.FormOfEducation != nil {
			unset["roleProperties.student.group"] = ""
			unset["roleProperties.student.specialty"] = ""
		}
		return nil
	}

	// Leaving doctoral studies reinstates the group+specialty requirement.
	if priorForm == FormDoctoralStudies && p.FormOfEducation != nil {
		if p.Group == nil || p.Specialty == nil {
			return apierr.Validation("group and specialty are required for form %q", effectiveForm)
		}
	}
	if p.Group != nil {
		set["roleProperties.student.group"] = *p.Group
	}
	if p.Specialty != nil {
		set["roleProperties.student.specialty"] = *p.Specialty
	}
	return nil
}
