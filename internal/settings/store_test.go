package settings

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Saman-dev12/civic/internal/lifecycle"
	"github.com/Saman-dev12/civic/internal/models"
)

type memBackend struct {
	body    []byte
	saves   int
	loadErr error
	saveErr error
}

func (b *memBackend) Load(context.Context) ([]byte, bool, error) {
	if b.loadErr != nil {
		return nil, false, b.loadErr
	}
	if b.body == nil {
		return nil, false, nil
	}
	return b.body, true, nil
}

func (b *memBackend) Save(_ context.Context, body []byte) error {
	if b.saveErr != nil {
		return b.saveErr
	}
	b.body = append([]byte(nil), body...)
	b.saves++
	return nil
}

func ptr[T any](v T) *T { return &v }

func TestLoadMissingDocumentKeepsDefaults(t *testing.T) {
	s := NewStore(&memBackend{}, zerolog.Nop())
	require.NoError(t, s.Load(context.Background()))
	assert.Equal(t, Defaults(), s.Get())
	assert.Equal(t, lifecycle.PolicyPermissive, s.TransitionPolicy())
}

func TestLoadMergesStoredDocumentOverDefaults(t *testing.T) {
	backend := &memBackend{body: []byte(`{"siteName":"Ward 12","maintenanceMode":true}`)}
	s := NewStore(backend, zerolog.Nop())
	require.NoError(t, s.Load(context.Background()))

	got := s.Get()
	assert.Equal(t, "Ward 12", got.SiteName)
	assert.True(t, s.MaintenanceMode())
	assert.Equal(t, models.PriorityMedium, s.DefaultPriority())
	assert.Equal(t, 30, got.SessionTimeout)
}

func TestLoadRejectsInvalidDocument(t *testing.T) {
	s := NewStore(&memBackend{body: []byte(`{"defaultPriority":"urgent"}`)}, zerolog.Nop())
	err := s.Load(context.Background())
	assert.ErrorIs(t, err, lifecycle.ErrInvalid)
	assert.Equal(t, Defaults(), s.Get())

	s = NewStore(&memBackend{loadErr: errors.New("minio down")}, zerolog.Nop())
	assert.ErrorContains(t, s.Load(context.Background()), "minio down")
}

func TestUpdatePersistsThenSwaps(t *testing.T) {
	backend := &memBackend{}
	s := NewStore(backend, zerolog.Nop())

	updated, err := s.Update(context.Background(), Patch{
		DefaultCategory:   ptr(models.CategoryRoads),
		StatusTransitions: ptr(lifecycle.PolicyForwardOnly),
		AllowedFileTypes:  []string{".PNG", " jpg "},
	})
	require.NoError(t, err)
	assert.Equal(t, models.CategoryRoads, updated.DefaultCategory)
	assert.Equal(t, []string{"png", "jpg"}, updated.AllowedFileTypes)
	assert.Equal(t, lifecycle.PolicyForwardOnly, s.TransitionPolicy())
	assert.Equal(t, 1, backend.saves)

	var stored Settings
	require.NoError(t, json.Unmarshal(backend.body, &stored))
	assert.Equal(t, updated, stored)
	assert.Equal(t, "Civic Complaints System", stored.SiteName)
}

func TestUpdateRejectsInvalidPatch(t *testing.T) {
	backend := &memBackend{}
	s := NewStore(backend, zerolog.Nop())

	tests := []struct {
		name  string
		patch Patch
	}{
		{"priority", Patch{DefaultPriority: ptr(models.Priority("urgent"))}},
		{"category", Patch{DefaultCategory: ptr(models.Category("parks"))}},
		{"policy", Patch{StatusTransitions: ptr(lifecycle.TransitionPolicy("strict"))}},
		{"email", Patch{ContactEmail: ptr("not-an-email")}},
		{"site name", Patch{SiteName: ptr("  ")}},
		{"session timeout", Patch{SessionTimeout: ptr(0)}},
		{"file types", Patch{AllowedFileTypes: []string{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Update(context.Background(), tt.patch)
			assert.ErrorIs(t, err, lifecycle.ErrInvalid)
		})
	}
	assert.Zero(t, backend.saves)
	assert.Equal(t, Defaults(), s.Get())
}

func TestUpdateKeepsOldValueWhenSaveFails(t *testing.T) {
	s := NewStore(&memBackend{saveErr: errors.New("bucket gone")}, zerolog.Nop())
	_, err := s.Update(context.Background(), Patch{MaintenanceMode: ptr(true)})
	require.Error(t, err)
	assert.False(t, s.MaintenanceMode())
}

func TestGetReturnsCopy(t *testing.T) {
	s := NewStore(&memBackend{}, zerolog.Nop())
	got := s.Get()
	got.AllowedFileTypes[0] = "exe"
	assert.Equal(t, "jpg", s.Get().AllowedFileTypes[0])
}
