package specialty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/formation"
)

func TestValidateAdd(t *testing.T) {
	req := AddRequest{
		Name: []formation.LocalizedName{{ISOCode: "EN", Value: "Information Security"}},
		Ref:  primitive.NewObjectID(),
	}
	candidate, err := validateAdd(req)
	require.NoError(t, err)
	assert.Equal(t, req.Name, candidate.Name)
	assert.Equal(t, req.Ref, candidate.Ref)
}

func TestValidateAddRequiresRef(t *testing.T) {
	req := AddRequest{
		Name: []formation.LocalizedName{{ISOCode: "EN", Value: "Information Security"}},
	}
	_, err := validateAdd(req)
	assert.Error(t, err)
}

func TestValidateAddRequiresName(t *testing.T) {
	_, err := validateAdd(AddRequest{Ref: primitive.NewObjectID()})
	assert.Error(t, err)

	_, err = validateAdd(AddRequest{
		Name: []formation.LocalizedName{{ISOCode: "english", Value: "x"}},
		Ref:  primitive.NewObjectID(),
	})
	assert.Error(t, err)
}
