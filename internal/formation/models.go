package formation

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/apierr"
)

// LocalizedName is one entry of an internationalized name list. Shared by
// specialties and systems as well.
type LocalizedName struct {
	ISOCode string `bson:"ISOCode" json:"ISOCode"`
	Value   string `bson:"value" json:"value"`
}

var isoCodePattern = regexp.MustCompile(`^[A-Z]{2}$`)

// ValidateNames requires at least one entry, each with a 2-letter ISO code
// and a value.
func ValidateNames(names []LocalizedName) error {
	if len(names) == 0 {
		return apierr.Validation("name must have at least one entry")
	}
	for _, name := range names {
		if err := validation.Validate(name.ISOCode, validation.Required, validation.Match(isoCodePattern)); err != nil {
			return apierr.Validation("ISOCode %q: %v", name.ISOCode, err)
		}
		if name.Value == "" {
			return apierr.Validation("name value is required")
		}
	}
	return nil
}

type Type string

const (
	TypeLead           Type = "lead"
	TypeAdministration Type = "administration"
	TypeCenter         Type = "center"
	TypeDepartment     Type = "department"
	TypeBranch         Type = "branch"
	TypeGroup          Type = "group"
	TypeSquad          Type = "squad"
	TypeUnit           Type = "unit"
	TypeService        Type = "service"
	TypeFaculty        Type = "faculty"
	TypeChair          Type = "chair"
	TypeFormation      Type = "formation"
)

func (t Type) Valid() bool {
	switch t {
	case TypeLead, TypeAdministration, TypeCenter, TypeDepartment, TypeBranch,
		TypeGroup, TypeSquad, TypeUnit, TypeService, TypeFaculty, TypeChair, TypeFormation:
		return true
	}
	return false
}

// Formation is one node of the organizational hierarchy. Counter is the
// position-ID allocator: it only moves forward, freed IDs are never reused.
type Formation struct {
	ID         primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name       []LocalizedName     `bson:"name" json:"name"`
	Type       Type                `bson:"type" json:"type"`
	Positions  []Position          `bson:"positions" json:"positions"`
	Ref        *primitive.ObjectID `bson:"ref,omitempty" json:"ref,omitempty"`
	Generation *int                `bson:"generation,omitempty" json:"generation,omitempty"`
	Child      *int                `bson:"child,omitempty" json:"child,omitempty"`
	Counter    int                 `bson:"counter" json:"-"`
}

// Position is embedded in its formation; it is not independently
// addressable outside of it.
type Position struct {
	ID   int             `bson:"id" json:"id"`
	Name []LocalizedName `bson:"name" json:"name"`
}

type DTO struct {
	ID         primitive.ObjectID  `json:"id"`
	Name       []LocalizedName     `json:"name"`
	Type       Type                `json:"type"`
	Positions  []Position          `json:"positions"`
	Ref        *primitive.ObjectID `json:"ref,omitempty"`
	Generation *int                `json:"generation,omitempty"`
	Child      *int                `json:"child,omitempty"`
}

func NewDTO(f *Formation) DTO {
	return DTO{
		ID:         f.ID,
		Name:       f.Name,
		Type:       f.Type,
		Positions:  f.Positions,
		Ref:        f.Ref,
		Generation: f.Generation,
		Child:      f.Child,
	}
}

// PositionInput is a position without an ID; the service allocates one.
type PositionInput struct {
	Name []LocalizedName `json:"name"`
}

type AddRequest struct {
	Name       []LocalizedName     `json:"name"`
	Type       Type                `json:"type"`
	Positions  []PositionInput     `json:"positions,omitempty"`
	Ref        *primitive.ObjectID `json:"ref,omitempty"`
	Generation *int                `json:"generation,omitempty"`
	Child      *int                `json:"child,omitempty"`
}

type AddPositionsRequest struct {
	ID        primitive.ObjectID `json:"id"`
	Positions []PositionInput    `json:"positions"`
}

type DeletePositionsRequest struct {
	ID        primitive.ObjectID `json:"id"`
	Positions []int              `json:"positions"`
}

type EditPositionRequest struct {
	ID       primitive.ObjectID `json:"id"`
	Position Position           `json:"position"`
}

type EditRequest struct {
	ID         primitive.ObjectID  `json:"id"`
	Name       *[]LocalizedName    `json:"name,omitempty"`
	Type       *Type               `json:"type,omitempty"`
	Ref        *primitive.ObjectID `json:"ref,omitempty"`
	Generation *int                `json:"generation,omitempty"`
	Child      *int                `json:"child,omitempty"`
}
