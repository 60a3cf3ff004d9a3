package users

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"sa-auth/internal/apierr"
)

// fakeStore keeps users in memory and applies only the update shapes the
// service actually produces (a $set of field paths plus optional $unset on
// flag fields).
type fakeStore struct {
	users map[primitive.ObjectID]*User
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: make(map[primitive.ObjectID]*User)}
}

func (f *fakeStore) Create(_ context.Context, user *User) error {
	for _, existing := range f.users {
		if existing.Auth.Login == user.Auth.Login {
			return errors.New("E11000 duplicate key error")
		}
	}
	user.ID = primitive.NewObjectID()
	f.users[user.ID] = user
	return nil
}

func (f *fakeStore) CreateMany(ctx context.Context, batch []*User) error {
	for _, user := range batch {
		if err := f.Create(ctx, user); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeStore) FindByLogin(_ context.Context, login string) (*User, error) {
	for _, user := range f.users {
		if user.Auth.Login == login {
			return user, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*User, error) {
	return f.users[id], nil
}

func (f *fakeStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*User, error) {
	var found []*User
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			found = append(found, user)
		}
	}
	return found, nil
}

func (f *fakeStore) FindAll(_ context.Context) ([]*User, error) {
	var found []*User
	for _, user := range f.users {
		found = append(found, user)
	}
	return found, nil
}

func (f *fakeStore) UpdateByID(_ context.Context, id primitive.ObjectID, update bson.M) (MutationResult, error) {
	user, ok := f.users[id]
	if !ok {
		return MutationResult{}, nil
	}
	applyFlagUpdate(user, update)
	return MutationResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (f *fakeStore) UpdateManyByIDs(_ context.Context, ids []primitive.ObjectID, update bson.M) (MutationResult, error) {
	var matched int64
	for _, id := range ids {
		if user, ok := f.users[id]; ok {
			applyFlagUpdate(user, update)
			matched++
		}
	}
	return MutationResult{MatchedCount: matched, ModifiedCount: matched}, nil
}

func (f *fakeStore) UpdateAndReturn(_ context.Context, id primitive.ObjectID, update bson.M) (*User, error) {
	user, ok := f.users[id]
	if !ok {
		return nil, nil
	}
	applyFlagUpdate(user, update)
	return user, nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := f.users[id]; !ok {
		return 0, nil
	}
	delete(f.users, id)
	return 1, nil
}

func (f *fakeStore) DeleteManyByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.users[id]; ok {
			delete(f.users, id)
			deleted++
		}
	}
	return deleted, nil
}

func applyFlagUpdate(user *User, update bson.M) {
	set, _ := update["$set"].(bson.M)
	if v, ok := set["status.isDeleted"].(bool); ok {
		user.Status.IsDeleted = v
	}
	if v, ok := set["status.isBlocked"].(bool); ok {
		user.Status.IsBlocked = v
	}
	if v, ok := set["bio.firstName"].(string); ok {
		user.Bio.FirstName = v
	}
}

// fakeHasher marks hashes so tests can observe that plaintext never lands in
// the store.
type fakeHasher struct{}

func (fakeHasher) Hash(password string) (string, error) { return "hashed:" + password, nil }
func (fakeHasher) Compare(hash, password string) bool   { return hash == "hashed:"+password }

// fakeCodec issues deterministic, strictly increasing tokens.
type fakeCodec struct{ n int }

func (c *fakeCodec) Generate(DTO) (TokenPair, error) {
	c.n++
	return TokenPair{
		AccessToken:  fmt.Sprintf("access-%d", c.n),
		RefreshToken: fmt.Sprintf("refresh-%d", c.n),
	}, nil
}

func (c *fakeCodec) Validate(token string) (*DTO, error) {
	if token == "" || token == "garbage" {
		return nil, errors.New("invalid token")
	}
	return &DTO{}, nil
}

type fakeSessions struct {
	entries map[string]string
}

func (f *fakeSessions) Save(_ context.Context, userID, token string) error {
	f.entries[userID] = token
	return nil
}

func (f *fakeSessions) Find(_ context.Context, userID string) (string, error) {
	return f.entries[userID], nil
}

func (f *fakeSessions) Remove(_ context.Context, userID string) error {
	delete(f.entries, userID)
	return nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Emit(event, _ string) {
	f.events = append(f.events, event)
}

type serviceFixture struct {
	service  *Service
	store    *fakeStore
	sessions *fakeSessions
	notifier *fakeNotifier
}

func newServiceFixture() *serviceFixture {
	store := newFakeStore()
	sessions := &fakeSessions{entries: make(map[string]string)}
	notifier := &fakeNotifier{}
	svc := NewService(store, fakeHasher{}, &fakeCodec{}, sessions, notifier, zap.NewNop())
	return &serviceFixture{service: svc, store: store, sessions: sessions, notifier: notifier}
}

func TestRegisterHashesPassword(t *testing.T) {
	fx := newServiceFixture()

	dto, err := fx.service.Register(context.Background(), validStudentSignup())
	require.NoError(t, err)

	stored := fx.store.users[dto.ID]
	require.NotNil(t, stored)
	assert.Equal(t, "hashed:s3cret-pass", stored.Auth.Password)
	assert.False(t, stored.Status.IsDeleted)
	assert.False(t, stored.Status.IsBlocked)
	assert.Contains(t, fx.notifier.events, "user-signup")
}

func TestRegisterDuplicateLogin(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	_, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)

	_, err = fx.service.Register(ctx, validStudentSignup())
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 409, apiErr.Code)
}

func TestRegisterManyAtomicValidation(t *testing.T) {
	fx := newServiceFixture()

	good := validStudentSignup()
	bad := validStudentSignup()
	bad.Auth.Login = "other.login"
	bad.Auth.Password = "short"

	_, err := fx.service.RegisterMany(context.Background(), []SignupRequest{good, bad})
	assert.Error(t, err)
	assert.Empty(t, fx.store.users, "no member of an invalid batch is persisted")
}

func TestRegisterManyRejectsInBatchDuplicates(t *testing.T) {
	fx := newServiceFixture()

	_, err := fx.service.RegisterMany(context.Background(), []SignupRequest{
		validStudentSignup(), validStudentSignup(),
	})
	assert.Error(t, err)
	assert.Empty(t, fx.store.users)
}

func TestLoginIssuesTokensAndSession(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)

	result, err := fx.service.Login(ctx, "aliyev.b", "s3cret-pass")
	require.NoError(t, err)
	assert.NotEmpty(t, result.AccessToken)
	assert.Equal(t, dto.ID, result.User.ID)
	assert.Equal(t, result.RefreshToken, fx.sessions.entries[dto.ID.Hex()])
}

func TestLoginFailuresAreUniform(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	_, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)

	_, errUnknown := fx.service.Login(ctx, "no.such.user", "whatever")
	_, errWrongPass := fx.service.Login(ctx, "aliyev.b", "wrong")

	assert.Equal(t, apierr.ErrUnauthorized, errUnknown)
	assert.Equal(t, apierr.ErrUnauthorized, errWrongPass)
}

func TestRefreshRotatesSession(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)
	login, err := fx.service.Login(ctx, "aliyev.b", "s3cret-pass")
	require.NoError(t, err)

	rotated, err := fx.service.Refresh(ctx, dto.ID, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)
	assert.Equal(t, rotated.RefreshToken, fx.sessions.entries[dto.ID.Hex()])

	// The replaced token no longer matches the stored session.
	_, err = fx.service.Refresh(ctx, dto.ID, login.RefreshToken)
	assert.Equal(t, apierr.ErrUnauthorized, err)
}

func TestRefreshRejectsForeignToken(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)
	_, err = fx.service.Login(ctx, "aliyev.b", "s3cret-pass")
	require.NoError(t, err)

	// Decodes fine but is not the stored session value.
	_, err = fx.service.Refresh(ctx, dto.ID, "some-other-token")
	assert.Equal(t, apierr.ErrUnauthorized, err)

	_, err = fx.service.Refresh(ctx, dto.ID, "garbage")
	assert.Equal(t, apierr.ErrUnauthorized, err)

	_, err = fx.service.Refresh(ctx, dto.ID, "")
	assert.Equal(t, apierr.ErrUnauthorized, err)
}

func TestRefreshUnknownUser(t *testing.T) {
	fx := newServiceFixture()
	_, err := fx.service.Refresh(context.Background(), primitive.NewObjectID(), "token")
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)
}

func TestLogoutRemovesSession(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)
	_, err = fx.service.Login(ctx, "aliyev.b", "s3cret-pass")
	require.NoError(t, err)

	require.NoError(t, fx.service.Logout(ctx, dto.ID))
	assert.Empty(t, fx.sessions.entries)
}

func TestDeleteIsSoft(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)

	res, err := fx.service.Delete(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.MatchedCount)

	// Record survives, flag flipped, still readable.
	got, err := fx.service.Get(ctx, dto.ID)
	require.NoError(t, err)
	assert.True(t, got.Status.IsDeleted)
}

func TestDeleteUnknownUser(t *testing.T) {
	fx := newServiceFixture()
	_, err := fx.service.Delete(context.Background(), primitive.NewObjectID())
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)
}

func TestBlockKeepsSession(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)
	_, err = fx.service.Login(ctx, "aliyev.b", "s3cret-pass")
	require.NoError(t, err)

	_, err = fx.service.Block(ctx, dto.ID)
	require.NoError(t, err)

	assert.NotEmpty(t, fx.sessions.entries[dto.ID.Hex()], "block does not revoke the session")
}

func TestDestroyRemovesRecord(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)

	require.NoError(t, fx.service.Destroy(ctx, dto.ID))
	assert.Empty(t, fx.store.users)

	err = fx.service.Destroy(ctx, dto.ID)
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)
}

func TestEditAppliesSparsePatch(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)

	first := "Aziza"
	updated, err := fx.service.Edit(ctx, EditRequest{
		ID:        dto.ID,
		UserPatch: UserPatch{Bio: &BioPatch{FirstName: &first}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Aziza", updated.Bio.FirstName)
}

func TestEditUnknownUser(t *testing.T) {
	fx := newServiceFixture()
	first := "Aziza"
	_, err := fx.service.Edit(context.Background(), EditRequest{
		ID:        primitive.NewObjectID(),
		UserPatch: UserPatch{Bio: &BioPatch{FirstName: &first}},
	})
	var apiErr *apierr.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, 404, apiErr.Code)
}

func TestEditManyRequiresIDs(t *testing.T) {
	fx := newServiceFixture()
	first := "Aziza"
	_, err := fx.service.EditMany(context.Background(), EditManyRequest{
		UserPatch: UserPatch{Bio: &BioPatch{FirstName: &first}},
	})
	assert.Error(t, err)
}

func TestGetAllIncludesSoftDeleted(t *testing.T) {
	fx := newServiceFixture()
	ctx := context.Background()

	dto, err := fx.service.Register(ctx, validStudentSignup())
	require.NoError(t, err)
	_, err = fx.service.Delete(ctx, dto.ID)
	require.NoError(t, err)

	all, err := fx.service.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Status.IsDeleted)
}
