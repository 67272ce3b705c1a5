package profile

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestServiceGetProfileDefaults(t *testing.T) {
	svc := NewService(newFakeStore())

	rec, err := svc.GetProfile(context.Background(), ann)
	require.NoError(t, err)
	assert.Equal(t, "u1", rec.ID)
	assert.Equal(t, "ann@example.com", rec.Email)
	assert.Equal(t, "", rec.FullName)
}

func TestServiceGetProfileReadFailure(t *testing.T) {
	store := newFakeStore()
	store.setReadErr(ErrStoreUnavailable)
	svc := NewService(store)

	_, err := svc.GetProfile(context.Background(), ann)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}

func TestServiceUpdateProfileMergesProvidedFields(t *testing.T) {
	store := newFakeStore()
	store.put(Record{ID: "u1", Email: "stored@example.com", FullName: "Ann", Phone: "555-0100", City: "Salem"})
	svc := NewService(store)

	rec, err := svc.UpdateProfile(context.Background(), ann, &UpdateProfileRequest{
		FullName:    strPtr("Ann Lee"),
		City:        strPtr(""),
		DateOfBirth: strPtr("1988-03-14"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", rec.FullName)
	assert.Equal(t, "555-0100", rec.Phone, "omitted field kept")
	assert.Equal(t, "", rec.City)
	assert.Equal(t, "1988-03-14", rec.Value(FieldDateOfBirth))
	assert.Equal(t, "stored@example.com", rec.Email)
	assert.Equal(t, rec.Update(), store.lastUpdate())
}

func TestServiceUpdateProfileRejectsBadDate(t *testing.T) {
	store := newFakeStore()
	svc := NewService(store)

	_, err := svc.UpdateProfile(context.Background(), ann, &UpdateProfileRequest{DateOfBirth: strPtr("March 14")})
	assert.ErrorIs(t, err, ErrInvalidDate)
	assert.Equal(t, 0, store.writeCount())
}

func TestServiceUpdateProfileWriteFailure(t *testing.T) {
	store := newFakeStore()
	store.setWriteErr(ErrStoreUnavailable)
	svc := NewService(store)

	_, err := svc.UpdateProfile(context.Background(), ann, &UpdateProfileRequest{Phone: strPtr("555")})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
