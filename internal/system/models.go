package system

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation"
	"github.com/go-ozzo/ozzo-validation/is"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sa-auth/internal/apierr"
	"sa-auth/internal/formation"
)

type Type string

const (
	TypeServer Type = "server"
	TypeClient Type = "client"
)

func (t Type) Valid() bool {
	return t == TypeServer || t == TypeClient
}

var loginPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{3,31}$`)

// System is a trusted external peer authenticated by a static token, not a
// person.
type System struct {
	ID                   primitive.ObjectID        `bson:"_id,omitempty" json:"id"`
	Login                string                    `bson:"login" json:"login"`
	Name                 []formation.LocalizedName `bson:"name" json:"name"`
	Type                 Type                      `bson:"type" json:"type"`
	IP4Address           string                    `bson:"IP4Address" json:"IP4Address"`
	ReceiveNotifications bool                      `bson:"receiveNotifications" json:"receiveNotifications"`
	// Token is the opaque 36-char credential. Regenerated wholesale, never
	// incrementally.
	Token         string `bson:"token" json:"token"`
	PublicSignKey string `bson:"publicSignKey,omitempty" json:"publicSignKey,omitempty"`
}

// DTO never carries the token; Add and RefreshToken return it separately,
// once.
type DTO struct {
	ID                   primitive.ObjectID        `json:"id"`
	Login                string                    `json:"login"`
	Name                 []formation.LocalizedName `json:"name"`
	Type                 Type                      `json:"type"`
	IP4Address           string                    `json:"IP4Address"`
	ReceiveNotifications bool                      `json:"receiveNotifications"`
}

func NewDTO(s *System) DTO {
	return DTO{
		ID:                   s.ID,
		Login:                s.Login,
		Name:                 s.Name,
		Type:                 s.Type,
		IP4Address:           s.IP4Address,
		ReceiveNotifications: s.ReceiveNotifications,
	}
}

// CreatedDTO is the one response shape that includes the token.
type CreatedDTO struct {
	DTO
	Token string `json:"token"`
}

type AddRequest struct {
	Login                string                    `json:"login"`
	Name                 []formation.LocalizedName `json:"name"`
	Type                 Type                      `json:"type"`
	IP4Address           string                    `json:"IP4Address"`
	ReceiveNotifications bool                      `json:"receiveNotifications"`
	PublicSignKey        string                    `json:"publicSignKey,omitempty"`
}

func (r AddRequest) Validate() error {
	if !loginPattern.MatchString(r.Login) {
		return apierr.Validation("login must be a slug of 4-32 characters")
	}
	if err := formation.ValidateNames(r.Name); err != nil {
		return err
	}
	if !r.Type.Valid() {
		return apierr.Validation("unknown system type %q", r.Type)
	}
	return validateAddress(r.IP4Address)
}

// validateAddress accepts a bare IPv4 address or a URL-like host name.
func validateAddress(addr string) error {
	if addr == "" {
		return apierr.Validation("IP4Address is required")
	}
	if validation.Validate(addr, is.IPv4) == nil {
		return nil
	}
	if validation.Validate(addr, is.Host) == nil {
		return nil
	}
	return apierr.Validation("IP4Address %q is neither an IPv4 address nor a host", addr)
}

type EditRequest struct {
	ID                   primitive.ObjectID         `json:"id"`
	Login                *string                    `json:"login,omitempty"`
	Name                 *[]formation.LocalizedName `json:"name,omitempty"`
	Type                 *Type                      `json:"type,omitempty"`
	IP4Address           *string                    `json:"IP4Address,omitempty"`
	ReceiveNotifications *bool                      `json:"receiveNotifications,omitempty"`
	PublicSignKey        *string                    `json:"publicSignKey,omitempty"`
}
