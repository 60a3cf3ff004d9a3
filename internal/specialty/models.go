package specialty

import (
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/formation"
)

// Specialty is a field of study linked to a formation.
type Specialty struct {
	ID   primitive.ObjectID        `bson:"_id,omitempty" json:"id"`
	Name []formation.LocalizedName `bson:"name" json:"name"`
	Ref  primitive.ObjectID        `bson:"ref" json:"ref"`
}

type DTO struct {
	ID   primitive.ObjectID        `json:"id"`
	Name []formation.LocalizedName `json:"name"`
	Ref  primitive.ObjectID        `json:"ref"`
}

func NewDTO(s *Specialty) DTO {
	return DTO{ID: s.ID, Name: s.Name, Ref: s.Ref}
}

type AddRequest struct {
	Name []formation.LocalizedName `json:"name"`
	Ref  primitive.ObjectID        `json:"ref"`
}

type EditRequest struct {
	ID   primitive.ObjectID         `json:"id"`
	Name *[]formation.LocalizedName `json:"name,omitempty"`
	Ref  *primitive.ObjectID        `json:"ref,omitempty"`
}
