package formation

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"sa-auth/internal/apierr"
)

type Notifier interface {
	Emit(event, entityID string)
}

// Store is the persistence surface the service needs. *Repository implements
// it against MongoDB.
type Store interface {
	Create(ctx context.Context, f *Formation) error
	CreateMany(ctx context.Context, batch []*Formation) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Formation, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*Formation, error)
	FindAll(ctx context.Context) ([]*Formation, error)
	AppendPositions(ctx context.Context, id primitive.ObjectID, positions []Position, counter int) (int64, error)
	PullPositions(ctx context.Context, id primitive.ObjectID, positionIDs []int) (*Formation, error)
	SetPositionName(ctx context.Context, id primitive.ObjectID, positionID int, name []LocalizedName) (*Formation, error)
	UpdateAndReturn(ctx context.Context, id primitive.ObjectID, set bson.M) (*Formation, error)
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

func (s *Service) Add(ctx context.Context, req AddRequest) (DTO, error) {
	candidate, err := buildFormation(req)
	if err != nil {
		return DTO{}, err
	}
	if err := s.repo.Create(ctx, candidate); err != nil {
		return DTO{}, err
	}
	s.logger.Info("add formation", zap.String("id", candidate.ID.Hex()))
	s.notifier.Emit("formation-add", candidate.ID.Hex())
	return NewDTO(candidate), nil
}

func (s *Service) AddMany(ctx context.Context, reqs []AddRequest) ([]DTO, error) {
	if len(reqs) == 0 {
		return nil, apierr.Validation("empty batch")
	}
	batch := make([]*Formation, len(reqs))
	for i, req := range reqs {
		candidate, err := buildFormation(req)
		if err != nil {
			return nil, err
		}
		batch[i] = candidate
	}
	if err := s.repo.CreateMany(ctx, batch); err != nil {
		return nil, err
	}
	dtos := make([]DTO, len(batch))
	for i, f := range batch {
		dtos[i] = NewDTO(f)
	}
	s.notifier.Emit("formations-add", "")
	return dtos, nil
}

// AddPositions appends positions, each assigned the next counter value, and
// persists the counter forward.
func (s *Service) AddPositions(ctx context.Context, req AddPositionsRequest) (DTO, error) {
	if len(req.Positions) == 0 {
		return DTO{}, apierr.Validation("positions are required")
	}
	current, err := s.repo.FindByID(ctx, req.ID)
	if err != nil {
		return DTO{}, err
	}
	if current == nil {
		return DTO{}, apierr.NotFound("formation")
	}

	counter := current.Counter
	positions := make([]Position, len(req.Positions))
	for i, input := range req.Positions {
		if err := ValidateNames(input.Name); err != nil {
			return DTO{}, err
		}
		counter++
		positions[i] = Position{ID: counter, Name: input.Name}
	}

	matched, err := s.repo.AppendPositions(ctx, req.ID, positions, counter)
	if err != nil {
		return DTO{}, err
	}
	if matched == 0 {
		return DTO{}, apierr.NotFound("formation")
	}

	current.Positions = append(current.Positions, positions...)
	current.Counter = counter
	s.notifier.Emit("formation-edit", req.ID.Hex())
	return NewDTO(current), nil
}

func (s *Service) DeletePositions(ctx context.Context, req DeletePositionsRequest) (DTO, error) {
	if len(req.Positions) == 0 {
		return DTO{}, apierr.Validation("positions are required")
	}
	updated, err := s.repo.PullPositions(ctx, req.ID, req.Positions)
	if err != nil {
		return DTO{}, err
	}
	if updated == nil {
		return DTO{}, apierr.NotFound("formation")
	}
	s.notifier.Emit("formation-edit", req.ID.Hex())
	return NewDTO(updated), nil
}

func (s *Service) EditPosition(ctx context.Context, req EditPositionRequest) (DTO, error) {
	if err := ValidateNames(req.Position.Name); err != nil {
		return DTO{}, err
	}
	updated, err := s.repo.SetPositionName(ctx, req.ID, req.Position.ID, req.Position.Name)
	if err != nil {
		return DTO{}, err
	}
	if updated == nil {
		return DTO{}, apierr.NotFound("formation")
	}
	s.notifier.Emit("formation-edit", req.ID.Hex())
	return NewDTO(updated), nil
}

// Edit is a sparse patch: absent fields are untouched, never nulled.
func (s *Service) Edit(ctx context.Context, req EditRequest) (DTO, error) {
	set := bson.M{}
	if req.Name != nil {
		if err := ValidateNames(*req.Name); err != nil {
			return DTO{}, err
		}
		set["name"] = *req.Name
	}
	if req.Type != nil {
		if !req.Type.Valid() {
			return DTO{}, apierr.Validation("unknown formation type %q", *req.Type)
		}
		set["type"] = *req.Type
	}
	if req.Ref != nil {
		set["ref"] = *req.Ref
	}
	if req.Generation != nil {
		set["generation"] = *req.Generation
	}
	if req.Child != nil {
		set["child"] = *req.Child
	}
	if len(set) == 0 {
		return DTO{}, apierr.Validation("empty update")
	}

	updated, err := s.repo.UpdateAndReturn(ctx, req.ID, set)
	if err != nil {
		return DTO{}, err
	}
	if updated == nil {
		return DTO{}, apierr.NotFound("formation")
	}
	s.notifier.Emit("formation-edit", req.ID.Hex())
	return NewDTO(updated), nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apierr.NotFound("formation")
	}
	s.notifier.Emit("formation-delete", id.Hex())
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
	s.notifier.Emit("formations-delete", "")
	return deleted, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (DTO, error) {
	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	if f == nil {
		return DTO{}, apierr.NotFound("formation")
	}
	return NewDTO(f), nil
}

func (s *Service) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]DTO, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toDTOs(found), nil
}

func (s *Service) GetAll(ctx context.Context) ([]DTO, error) {
	found, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(found), nil
}

func toDTOs(found []*Formation) []DTO {
	dtos := make([]DTO, len(found))
	for i, f := range found {
		dtos[i] = NewDTO(f)
	}
	return dtos
}

// buildFormation validates the shape and allocates position IDs: the counter
// starts at 0 and seeded positions take 1..N.
func buildFormation(req AddRequest) (*Formation, error) {
	if err := ValidateNames(req.Name); err != nil {
		return nil, err
	}
	if !req.Type.Valid() {
		return nil, apierr.Validation("unknown formation type %q", req.Type)
	}

	// ref, generation and child describe the place in the hierarchy and only
	// make sense together.
	hasRef := req.Ref != nil
	hasGeneration := req.Generation != nil
	hasChild := req.Child != nil
	if hasRef != hasGeneration || hasRef != hasChild {
		return nil, apierr.Validation("ref, generation and child must be provided together")
	}

	candidate := &Formation{
		Name:       req.Name,
		Type:       req.Type,
		Positions:  []Position{},
		Ref:        req.Ref,
		Generation: req.Generation,
		Child:      req.Child,
		Counter:    0,
	}
	for _, input := range req.Positions {
		if err := ValidateNames(input.Name); err != nil {
			return nil, err
		}
		candidate.Counter++
		candidate.Positions = append(candidate.Positions, Position{ID: candidate.Counter, Name: input.Name})
	}
	return candidate, nil
}
