package specialty

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"sa-auth/internal/apierr"
	"sa-auth/internal/formation"
)

type Notifier interface {
	Emit(event, entityID string)
}

type Service struct {
	repo     *Repository
	notifier Notifier
	logger   *zap.Logger
}

func NewService(repo *Repository, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, logger: logger}
}

func validateAdd(req AddRequest) (*Specialty, error) {
	if err := formation.ValidateNames(req.Name); err != nil {
		return nil, err
	}
	if req.Ref.IsZero() {
		return nil, apierr.Validation("ref is required")
	}
	return &Specialty{Name: req.Name, Ref: req.Ref}, nil
}

func (s *Service) Add(ctx context.Context, req AddRequest) (DTO, error) {
	candidate, err := validateAdd(req)
	if err != nil {
		return DTO{}, err
	}
	if err := s.repo.Create(ctx, candidate); err != nil {
		return DTO{}, err
	}
	s.logger.Info("add specialty", zap.String("id", candidate.ID.Hex()))
	s.notifier.Emit("specialty-add", candidate.ID.Hex())
	return NewDTO(candidate), nil
}

func (s *Service) AddMany(ctx context.Context, reqs []AddRequest) ([]DTO, error) {
	if len(reqs) == 0 {
		return nil, apierr.Validation("empty batch")
	}
	batch := make([]*Specialty, len(reqs))
	for i, req := range reqs {
		candidate, err := validateAdd(req)
		if err != nil {
			return nil, err
		}
		batch[i] = candidate
	}
	if err := s.repo.CreateMany(ctx, batch); err != nil {
		return nil, err
	}
	dtos := make([]DTO, len(batch))
	for i, sp := range batch {
		dtos[i] = NewDTO(sp)
	}
	s.notifier.Emit("specialties-add", "")
	return dtos, nil
}

func (s *Service) Edit(ctx context.Context, req EditRequest) (DTO, error) {
	set := bson.M{}
	if req.Name != nil {
		if err := formation.ValidateNames(*req.Name); err != nil {
			return DTO{}, err
		}
		set["name"] = *req.Name
	}
	if req.Ref != nil {
		if req.Ref.IsZero() {
			return DTO{}, apierr.Validation("ref is required")
		}
		set["ref"] = *req.Ref
	}
	if len(set) == 0 {
		return DTO{}, apierr.Validation("empty update")
	}

	updated, err := s.repo.UpdateAndReturn(ctx, req.ID, set)
	if err != nil {
		return DTO{}, err
	}
	if updated == nil {
		return DTO{}, apierr.NotFound("specialty")
	}
	s.notifier.Emit("specialty-edit", req.ID.Hex())
	return NewDTO(updated), nil
}

func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.repo.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apierr.NotFound("specialty")
	}
	s.notifier.Emit("specialty-delete", id.Hex())
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
	s.notifier.Emit("specialties-delete", "")
	return deleted, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (DTO, error) {
	sp, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	if sp == nil {
		return DTO{}, apierr.NotFound("specialty")
	}
	return NewDTO(sp), nil
}

func (s *Service) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]DTO, error) {
	found, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	dtos := make([]DTO, len(found))
	for i, sp := range found {
		dtos[i] = NewDTO(sp)
	}
	return dtos, nil
}

func (s *Service) GetAll(ctx context.Context) ([]DTO, error) {
	found, err := s.repo.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	dtos := make([]DTO, len(found))
	for i, sp := range found {
		dtos[i] = NewDTO(sp)
	}
	return dtos, nil
}
