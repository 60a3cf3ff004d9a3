package formation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func names(value string) []LocalizedName {
	return []LocalizedName{{ISOCode: "EN", Value: value}}
}

func validAdd() AddRequest {
	return AddRequest{
		Name: names("Cybernetics Faculty"),
		Type: TypeFaculty,
	}
}

func TestValidateNames(t *testing.T) {
	assert.Error(t, ValidateNames(nil), "empty list")
	assert.Error(t, ValidateNames([]LocalizedName{{ISOCode: "eng", Value: "x"}}), "lowercase 3-letter code")
	assert.Error(t, ValidateNames([]LocalizedName{{ISOCode: "EN", Value: ""}}), "empty value")
	assert.NoError(t, ValidateNames([]LocalizedName{
		{ISOCode: "EN", Value: "Faculty"},
		{ISOCode: "UZ", Value: "Fakultet"},
	}))
}

func TestBuildFormationAllocatesPositionIDs(t *testing.T) {
	req := validAdd()
	req.Positions = []PositionInput{
		{Name: names("Dean")},
		{Name: names("Deputy Dean")},
		{Name: names("Secretary")},
	}

	f, err := buildFormation(req)
	require.NoError(t, err)

	require.Len(t, f.Positions, 3)
	assert.Equal(t, 1, f.Positions[0].ID)
	assert.Equal(t, 2, f.Positions[1].ID)
	assert.Equal(t, 3, f.Positions[2].ID)
	assert.Equal(t, 3, f.Counter)
}

func TestBuildFormationWithoutPositions(t *testing.T) {
	f, err := buildFormation(validAdd())
	require.NoError(t, err)
	assert.Empty(t, f.Positions)
	assert.Equal(t, 0, f.Counter)
}

func TestBuildFormationUnknownType(t *testing.T) {
	req := validAdd()
	req.Type = "battalion"
	_, err := buildFormation(req)
	assert.Error(t, err)
}

func TestBuildFormationHierarchyFieldsAllOrNone(t *testing.T) {
	ref := primitive.NewObjectID()
	generation := 2
	child := 1

	// All three together is fine.
	req := validAdd()
	req.Ref, req.Generation, req.Child = &ref, &generation, &child
	_, err := buildFormation(req)
	assert.NoError(t, err)

	// Any partial combination is rejected.
	req = validAdd()
	req.Ref = &ref
	_, err = buildFormation(req)
	assert.Error(t, err)

	req = validAdd()
	req.Generation = &generation
	req.Child = &child
	_, err = buildFormation(req)
	assert.Error(t, err)

	req = validAdd()
	req.Ref = &ref
	req.Generation = &generation
	_, err = buildFormation(req)
	assert.Error(t, err)
}

func TestBuildFormationRejectsBadPositionName(t *testing.T) {
	req := validAdd()
	req.Positions = []PositionInput{{Name: nil}}
	_, err := buildFormation(req)
	assert.Error(t, err)
}

// fakeStore keeps formations in memory, mirroring the mongo repository's
// append/pull semantics for the position operations.
type fakeStore struct {
	formations map[primitive.ObjectID]*Formation
}

func newFakeStore() *fakeStore {
	return &fakeStore{formations: make(map[primitive.ObjectID]*Formation)}
}

func (f *fakeStore) Create(_ context.Context, formation *Formation) error {
	formation.ID = primitive.NewObjectID()
	f.formations[formation.ID] = formation
	return nil
}

func (f *fakeStore) CreateMany(ctx context.Context, batch []*Formation) error {
	for _, formation := range batch {
		if err := f.Create(ctx, formation); err != nil {
			return err
		}
	}
	return nil
}

// FindByID returns a copy, as the real repository decodes a fresh document
// on every read.
func (f *fakeStore) FindByID(_ context.Context, id primitive.ObjectID) (*Formation, error) {
	formation, ok := f.formations[id]
	if !ok {
		return nil, nil
	}
	copied := *formation
	copied.Positions = append([]Position(nil), formation.Positions...)
	return &copied, nil
}

func (f *fakeStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]*Formation, error) {
	var found []*Formation
	for _, id := range ids {
		if formation, ok := f.formations[id]; ok {
			found = append(found, formation)
		}
	}
	return found, nil
}

func (f *fakeStore) FindAll(_ context.Context) ([]*Formation, error) {
	var found []*Formation
	for _, formation := range f.formations {
		found = append(found, formation)
	}
	return found, nil
}

func (f *fakeStore) AppendPositions(_ context.Context, id primitive.ObjectID, positions []Position, counter int) (int64, error) {
	formation, ok := f.formations[id]
	if !ok {
		return 0, nil
	}
	formation.Positions = append(formation.Positions, positions...)
	formation.Counter = counter
	return 1, nil
}

func (f *fakeStore) PullPositions(_ context.Context, id primitive.ObjectID, positionIDs []int) (*Formation, error) {
	formation, ok := f.formations[id]
	if !ok {
		return nil, nil
	}
	remove := make(map[int]struct{}, len(positionIDs))
	for _, pid := range positionIDs {
		remove[pid] = struct{}{}
	}
	kept := formation.Positions[:0]
	for _, p := range formation.Positions {
		if _, gone := remove[p.ID]; !gone {
			kept = append(kept, p)
		}
	}
	formation.Positions = kept
	return formation, nil
}

func (f *fakeStore) SetPositionName(_ context.Context, id primitive.ObjectID, positionID int, name []LocalizedName) (*Formation, error) {
	formation, ok := f.formations[id]
	if !ok {
		return nil, nil
	}
	for i := range formation.Positions {
		if formation.Positions[i].ID == positionID {
			formation.Positions[i].Name = name
		}
	}
	return formation, nil
}

func (f *fakeStore) UpdateAndReturn(_ context.Context, id primitive.ObjectID, set bson.M) (*Formation, error) {
	return f.formations[id], nil
}

func (f *fakeStore) DeleteByID(_ context.Context, id primitive.ObjectID) (int64, error) {
	if _, ok := f.formations[id]; !ok {
		return 0, nil
	}
	delete(f.formations, id)
	return 1, nil
}

func (f *fakeStore) DeleteManyByIDs(_ context.Context, ids []primitive.ObjectID) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := f.formations[id]; ok {
			delete(f.formations, id)
			deleted++
		}
	}
	return deleted, nil
}

type fakeNotifier struct {
	events []string
}

func (f *fakeNotifier) Emit(event, _ string) {
	f.events = append(f.events, event)
}

func TestPositionIDsNeverReused(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store, &fakeNotifier{}, zap.NewNop())
	ctx := context.Background()

	req := validAdd()
	req.Positions = []PositionInput{
		{Name: names("Dean")},
		{Name: names("Deputy Dean")},
		{Name: names("Secretary")},
	}
	created, err := svc.Add(ctx, req)
	require.NoError(t, err)

	// Freeing an ID must not make it available again.
	_, err = svc.DeletePositions(ctx, DeletePositionsRequest{ID: created.ID, Positions: []int{2}})
	require.NoError(t, err)

	dto, err := svc.AddPositions(ctx, AddPositionsRequest{
		ID: created.ID,
		Positions: []PositionInput{
			{Name: names("Tutor")},
			{Name: names("Inspector")},
		},
	})
	require.NoError(t, err)

	ids := make([]int, len(dto.Positions))
	for i, p := range dto.Positions {
		ids[i] = p.ID
	}
	assert.Equal(t, []int{1, 3, 4, 5}, ids)
	assert.Equal(t, 5, store.formations[created.ID].Counter)
}

func TestAddPositionsUnknownFormation(t *testing.T) {
	svc := NewService(newFakeStore(), &fakeNotifier{}, zap.NewNop())
	_, err := svc.AddPositions(context.Background(), AddPositionsRequest{
		ID:        primitive.NewObjectID(),
		Positions: []PositionInput{{Name: names("Dean")}},
	})
	assert.Error(t, err)
}
