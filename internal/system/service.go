package system

import (
	"context"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"sa-auth/internal/apierr"
	"sa-auth/internal/formation"
)

type Notifier interface {
	Emit(event, entityID string)
}

// Store is the persistence surface the service needs. *Repository implements
// it against MongoDB.
type Store interface {
	Create(ctx context.Context, s *System) error
	CreateMany(ctx context.Context, batch []*System) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*System, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*System, error)
	FindAll(ctx context.Context) ([]*System, error)
	UpdateAndReturn(ctx context.Context, id primitive.ObjectID, set bson.M) (*System, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteManyByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

type Service struct {
	repo     Store
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo Store, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

// newToken mints the opaque 36-char system credential.
func newToken() string {
	return uuid.NewString()
}

func (s *Service) Add(ctx context.Context, req AddRequest) (CreatedDTO, error) {
	if err := req.Validate(); err != nil {
		return CreatedDTO{}, err
	}
	candidate := &System{
		Login:                req.Login,
		Name:                 req.Name,
		Type:                 req.Type,
		IP4Address:           req.IP4Address,
		ReceiveNotifications: req.ReceiveNotifications,
		Token:                newToken(),
		PublicSignKey:        req.PublicSignKey,
	}
	if err := s.repo.Create(ctx, candidate); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return CreatedDTO{}, apierr.AlreadyExists("system login already registered")
		}
		return CreatedDTO{}, err
	}
	s.logger.Info("add system", zap.String("id", candidate.ID.Hex()))
	s.notifier.Emit("system-add", candidate.ID.Hex())
	return CreatedDTO{DTO: NewDTO(candidate), Token: candidate.Token}, nil
}

func (s *Service) AddMany(ctx context.Context, reqs []AddRequest) ([]CreatedDTO, error) {
	if len(reqs) == 0 {
		return nil, apierr.Validation("empty batch")
	}
	batch := make([]*System, len(reqs))
	for i, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		batch[i] = &System{
			Login:                req.Login,
			Name:                 req.Name,
			Type:                 req.Type,
			IP4Address:           req.IP4Address,
			ReceiveNotifications: req.ReceiveNotifications,
			Token:                newToken(),
			PublicSignKey:        req.PublicSignKey,
		}
	}
	if err := s.repo.CreateMany(ctx, batch); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apierr.AlreadyExists("system login already registered")
		}
		return nil, err
	}
	dtos := make([]CreatedDTO, len(batch))
	for i, sys := range batch {
		dtos[i] = CreatedDTO{DTO: NewDTO(sys), Token: sys.Token}
	}
	s.notifier.Emit("systems-add", "")
	return dtos, nil
}

// RefreshToken regenerates the credential wholesale and returns the new
// value; the old token stops working immediately.
func (s *Service) RefreshToken(ctx context.Context, id primitive.ObjectID) (CreatedDTO, error) {
	token := newToken()
	updated, err := s.repo.UpdateAndReturn(ctx, id, bson.M{"token": token})
	if err != nil {
		return CreatedDTO{}, err
	}
	if updated == nil {
		return CreatedDTO{}, apierr.NotFound("system")
	}
	s.logger.Info("refresh system token", zap.String("id", id.Hex()))
	// The event names the system only; the new credential travels solely in
	// the response.
	s.notifier.Emit("system-edit", id.Hex())
	return CreatedDTO{DTO: NewDTO(updated), Token: token}, nil
}

func (s *Service) Edit(ctx context.Context, req EditRequest) (DTO, error) {
	set := bson.M{}
	if req.Login != nil {
		if !loginPattern.MatchString(*req.Login) {
			return DTO{}, apierr.Validation("login must be a slug of 4-32 characters")
		}
		set["login"] = *req.Login
	}
	if req.Name != nil {
		if err := formation.ValidateNames(*req.Name); err != nil {
			return DTO{}, err
		}
		set["name"] = *req.Name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return DTO{}, apierr.Validation("unknown system type %q", *req.Type)
		}
		set["type"] = *req.Type
	}
	if req.IP4Address != nil {
		if err := validateAddress(*req.IP4Address); err != nil {
			return DTO{}, err
		}
		set["IP4Address"] = *req.IP4Address
	}
	if req.ReceiveNotifications != nil {
		// Pointer field: switching notifications off is a legal edit.
		set["receiveNotifications"] = *req.ReceiveNotifications
	}
	if req.PublicSignKey != nil {
		set["publicSignKey"] = *req.PublicSignKey
	}
	if len(set) == 0 {
		return DTO{}, apierr.Validation("empty update")
	}

	updated, err := s.repo.UpdateAndReturn(ctx, req.ID, set)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return DTO{}, apierr.AlreadyExists("system login already registered")
		}
		return DTO{}, err
	}
	if updated == nil {
		return DTO{}, apierr.NotFound("system")
	}
	s.notifier.Emit("system-edit", req.ID.Hex())
	return NewDTO(updated), nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apierr.NotFound("system")
	}
	s.notifier.Emit("system-delete", id.Hex())
	return nil
}

func (s *Service) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, apierr.Validation("empty id set")
	}
	deleted, err := s.repo.DeleteManyByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.notifier.Emit("systems-delete", "")
	return deleted, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (DTO, error) {
	sys, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	if sys == nil {
		return DTO{}, apierr.NotFound("system")
	}
	return NewDTO(sys), nil
}

func (s *Service) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]DTO, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	dtos := make([]DTO, len(found))
	for i, sys := range found {
		dtos[i] = NewDTO(sys)
	}
	return dtos, nil
}

func (s *Service) GetAll(ctx context.Context) ([]DTO, error) {
	found, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]DTO, len(found))
	for i, sys := range found {
		dtos[i] = NewDTO(sys)
	}
	return dtos, nil
}
