package users

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"sa-auth/internal/apierr"
)

// Store is the persistence surface the lifecycle engine needs. *Repository
// implements it against MongoDB.
type Store interface {
	Create(ctx context.Context, user *User) error
	CreateMany(ctx context.Context, batch []*User) error
	FindByLogin(ctx context.Context, login string) (*User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*User, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]*User, error)
	FindAll(ctx context.Context) ([]*User, error)
	UpdateByID(ctx context.Context, id primitive.ObjectID, update bson.M) (MutationResult, error)
	UpdateManyByIDs(ctx context.Context, ids []primitive.ObjectID, update bson.M) (MutationResult, error)
	UpdateAndReturn(ctx context.Context, id primitive.ObjectID, update bson.M) (*User, error)
	DeleteByID(ctx context.Context, id primitive.ObjectID) (int64, error)
	DeleteManyByIDs(ctx context.Context, ids []primitive.ObjectID) (int64, error)
}

// Hasher is the credential store: slow one-way hashing and verification.
type Hasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) bool
}

// TokenCodec mints and verifies the signed access/refresh tokens.
type TokenCodec interface {
	Generate(dto DTO) (TokenPair, error)
	Validate(token string) (*DTO, error)
}

// Sessions maps a user identity to its current refresh token. Find returns
// "" when no entry exists.
type Sessions interface {
	Save(ctx context.Context, userID, refreshToken string) error
	Find(ctx context.Context, userID string) (string, error)
	Remove(ctx context.Context, userID string) error
}

// Notifier fans events out to registered systems, fire-and-forget.
type Notifier interface {
	Emit(event, entityID string)
}

type Service struct {
	store    Store
	hasher   Hasher
	tokens   TokenCodec
	sessions Sessions
	notifier Notifier
	logger   *zap.Logger
}

func NewService(store Store, hasher Hasher, tokens TokenCodec, sessions Sessions, notifier Notifier, logger *zap.Logger) *Service {
	return &Service{
		store:    store,
		hasher:   hasher,
		tokens:   tokens,
		sessions: sessions,
		notifier: notifier,
		logger:   logger,
	}
}

func (s *Service) Register(ctx context.Context, req SignupRequest) (DTO, error) {
	if err := req.Validate(); err != nil {
		return DTO{}, err
	}

	existing, err := s.store.FindByLogin(ctx, req.Auth.Login)
	if err != nil {
		return DTO{}, err
	}
	if existing != nil {
		return DTO{}, apierr.AlreadyExists("login already registered")
	}

	user, err := s.buildUser(req)
	if err != nil {
		return DTO{}, err
	}

	if err := s.store.Create(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return DTO{}, apierr.AlreadyExists("login already registered")
		}
		return DTO{}, err
	}

	s.logger.Info("signup new user", zap.String("id", user.ID.Hex()))
	s.notifier.Emit("user-signup", user.ID.Hex())
	return NewDTO(user), nil
}

// RegisterMany validates the whole batch before any insert: one invalid
// member rejects all of them.
func (s *Service) RegisterMany(ctx context.Context, reqs []SignupRequest) ([]DTO, error) {
	if len(reqs) == 0 {
		return nil, apierr.Validation("empty batch")
	}

	seen := make(map[string]struct{}, len(reqs))
	for _, req := range reqs {
		if err := req.Validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[req.Auth.Login]; dup {
			return nil, apierr.Validation("duplicate login %q in batch", req.Auth.Login)
		}
		seen[req.Auth.Login] = struct{}{}

		existing, err := s.store.FindByLogin(ctx, req.Auth.Login)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, apierr.AlreadyExists("login already registered")
		}
	}

	batch := make([]*User, len(reqs))
	for i, req := range reqs {
		user, err := s.buildUser(req)
		if err != nil {
			return nil, err
		}
		batch[i] = user
	}

	if err := s.store.CreateMany(ctx, batch); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, apierr.AlreadyExists("login already registered")
		}
		return nil, err
	}

	dtos := make([]DTO, len(batch))
	for i, user := range batch {
		s.logger.Info("signup new user", zap.String("id", user.ID.Hex()))
		dtos[i] = NewDTO(user)
	}
	s.notifier.Emit("users-signup", "")
	return dtos, nil
}

func (s *Service) buildUser(req SignupRequest) (*User, error) {
	hash, err := s.hasher.Hash(req.Auth.Password)
	if err != nil {
		return nil, err
	}
	return &User{
		Auth:           Auth{Login: req.Auth.Login, Password: hash},
		Bio:            req.Bio,
		System:         req.System,
		Status:         Status{IsDeleted: false, IsBlocked: false},
		RoleProperties: req.RoleProperties,
	}, nil
}

// Login verifies credentials, mints a token pair and stores the refresh
// token as the user's single active session. Lookup and password failures
// are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, login, password string) (*AuthResult, error) {
	user, err := s.store.FindByLogin(ctx, login)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Compare(user.Auth.Password, password) {
		return nil, apierr.ErrUnauthorized
	}

	result, err := s.issueTokens(ctx, user)
	if err != nil {
		return nil, err
	}
	s.logger.Info("user login", zap.String("id", user.ID.Hex()))
	s.notifier.Emit("user-login", user.ID.Hex())
	return result, nil
}

func (s *Service) Logout(ctx context.Context, userID primitive.ObjectID) error {
	if err := s.sessions.Remove(ctx, userID.Hex()); err != nil {
		return err
	}
	s.logger.Info("user logout", zap.String("id", userID.Hex()))
	s.notifier.Emit("user-logout", userID.Hex())
	return nil
}

// Refresh rotates the session: the presented refresh token must decode
// validly and match the stored session entry, then a fresh pair overwrites
// it, invalidating the old token.
func (s *Service) Refresh(ctx context.Context, userID primitive.ObjectID, refreshToken string) (*AuthResult, error) {
	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apierr.NotFound("user")
	}

	if refreshToken == "" {
		return nil, apierr.ErrUnauthorized
	}
	if _, err := s.tokens.Validate(refreshToken); err != nil {
		return nil, apierr.ErrUnauthorized
	}
	stored, err := s.sessions.Find(ctx, userID.Hex())
	if err != nil {
		return nil, err
	}
	if stored == "" || stored != refreshToken {
		return nil, apierr.ErrUnauthorized
	}

	return s.issueTokens(ctx, user)
}

func (s *Service) issueTokens(ctx context.Context, user *User) (*AuthResult, error) {
	dto := NewDTO(user)
	pair, err := s.tokens.Generate(dto)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, user.ID.Hex(), pair.RefreshToken); err != nil {
		return nil, err
	}
	return &AuthResult{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		User:         dto,
	}, nil
}

func (s *Service) Get(ctx context.Context, id primitive.ObjectID) (DTO, error) {
	user, err := s.store.FindByID(ctx, id)
	if err != nil {
		return DTO{}, err
	}
	if user == nil {
		return DTO{}, apierr.NotFound("user")
	}
	return NewDTO(user), nil
}

func (s *Service) GetMany(ctx context.Context, ids []primitive.ObjectID) ([]DTO, error) {
	found, err := s.store.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return toDTOs(found), nil
}

// GetAll returns every user, soft-deleted ones included; callers filter on
// status.isDeleted themselves.
func (s *Service) GetAll(ctx context.Context) ([]DTO, error) {
	found, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	return toDTOs(found), nil
}

func toDTOs(found []*User) []DTO {
	dtos := make([]DTO, len(found))
	for i, user := range found {
		dtos[i] = NewDTO(user)
	}
	return dtos
}

// Delete soft-deletes: the record and its session survive, only
// status.isDeleted flips. Idempotent.
func (s *Service) Delete(ctx context.Context, id primitive.ObjectID) (MutationResult, error) {
	return s.flagByID(ctx, id, "status.isDeleted", "user-delete")
}

func (s *Service) DeleteMany(ctx context.Context, ids []primitive.ObjectID) (MutationResult, error) {
	return s.flagByIDs(ctx, ids, "status.isDeleted", "users-delete")
}

// Block flips status.isBlocked. The user's existing tokens stay valid until
// natural expiry: block does not revoke the session, matching the system
// this replaces. Closing that gap is a pending product decision.
func (s *Service) Block(ctx context.Context, id primitive.ObjectID) (MutationResult, error) {
	return s.flagByID(ctx, id, "status.isBlocked", "user-block")
}

func (s *Service) BlockMany(ctx context.Context, ids []primitive.ObjectID) (MutationResult, error) {
	return s.flagByIDs(ctx, ids, "status.isBlocked", "users-block")
}

func (s *Service) flagByID(ctx context.Context, id primitive.ObjectID, field, event string) (MutationResult, error) {
	res, err := s.store.UpdateByID(ctx, id, bson.M{"$set": bson.M{field: true}})
	if err != nil {
		return MutationResult{}, err
	}
	if res.MatchedCount == 0 {
		return MutationResult{}, apierr.NotFound("user")
	}
	s.notifier.Emit(event, id.Hex())
	return res, nil
}

func (s *Service) flagByIDs(ctx context.Context, ids []primitive.ObjectID, field, event string) (MutationResult, error) {
	if len(ids) == 0 {
		return MutationResult{}, apierr.Validation("empty id set")
	}
	res, err := s.store.UpdateManyByIDs(ctx, ids, bson.M{"$set": bson.M{field: true}})
	if err != nil {
		return MutationResult{}, err
	}
	s.notifier.Emit(event, "")
	return res, nil
}

// Destroy removes the record permanently. Like block, it does not revoke the
// session.
func (s *Service) Destroy(ctx context.Context, id primitive.ObjectID) error {
	deleted, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return apierr.NotFound("user")
	}
	s.logger.Info("destroy user", zap.String("id", id.Hex()))
	s.notifier.Emit("user-destroy", id.Hex())
	return nil
}

func (s *Service) DestroyMany(ctx context.Context, ids []primitive.ObjectID) (int64, error) {
	if len(ids) == 0 {
		return 0, apierr.Validation("empty id set")
	}
	deleted, err := s.store.DeleteManyByIDs(ctx, ids)
	if err != nil {
		return 0, err
	}
	s.notifier.Emit("users-destroy", "")
	return deleted, nil
}

// Edit loads the target first: transition legality depends on the prior
// role. The patch compiles to sparse field paths, so unrelated fields are
// untouched.
func (s *Service) Edit(ctx context.Context, req EditRequest) (DTO, error) {
	current, err := s.store.FindByID(ctx, req.ID)
	if err != nil {
		return DTO{}, err
	}
	if current == nil {
		return DTO{}, apierr.NotFound("user")
	}

	update, err := buildUserUpdate(current, req.UserPatch)
	if err != nil {
		return DTO{}, err
	}

	updated, err := s.store.UpdateAndReturn(ctx, req.ID, update)
	if err != nil {
		return DTO{}, err
	}
	if updated == nil {
		return DTO{}, apierr.NotFound("user")
	}
	s.notifier.Emit("user-edit", req.ID.Hex())
	return NewDTO(updated), nil
}

// EditMany applies one shared patch to all targets in a single store call.
// Unlike Edit it does not consult each target's prior role; the patch is
// validated on its own against the intended new role only.
func (s *Service) EditMany(ctx context.Context, req EditManyRequest) (MutationResult, error) {
	if len(req.IDs) == 0 {
		return MutationResult{}, apierr.Validation("empty id set")
	}
	update, err := buildBulkUserUpdate(req.UserPatch)
	if err != nil {
		return MutationResult{}, err
	}
	res, err := s.store.UpdateManyByIDs(ctx, req.IDs, update)
	if err != nil {
		return MutationResult{}, err
	}
	s.notifier.Emit("users-edit", "")
	return res, nil
}
