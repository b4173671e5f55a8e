package application

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rentwheel/service-rental/internal/common/apperror"
	"github.com/rentwheel/service-rental/internal/repository/memory"
)

func validAddCarRequest() AddCarRequest {
	return AddCarRequest{
		Brand:            "Tesla",
		Model:            "Model 3",
		Year:             2023,
		Category:         "Sedan",
		Location:         "Lisbon",
		Description:      "Long range",
		PricePerDayCents: 9000,
		Transmission:     "Automatic",
		FuelType:         "Electric",
		SeatingCapacity:  5,
	}
}

func TestAddCar_UploadsImageAndLists(t *testing.T) {
	images := &fakeImageStore{}
	svc := NewCarService(memory.NewCarStore(), images, zap.NewNop())
	ownerID := uuid.New()

	c, err := svc.AddCar(context.Background(), ownerID, validAddCarRequest(), &ImageFile{Name: "tesla.jpg", Data: []byte("jpeg")})
	require.NoError(t, err)

	assert.Equal(t, []string{"/cars/tesla.jpg"}, images.uploads)
	assert.Equal(t, "https://ik.example.com/tr:w-1280/cars/tesla.jpg", c.Image)
	assert.True(t, c.IsAvailable)
	require.NotNil(t, c.OwnerID)
	assert.Equal(t, ownerID, *c.OwnerID)

	listed, err := svc.GetOwnerCars(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Len(t, listed, 1)
}

func TestAddCar_MissingFieldsSkipsUpload(t *testing.T) {
	images := &fakeImageStore{}
	svc := NewCarService(memory.NewCarStore(), images, zap.NewNop())

	req := validAddCarRequest()
	req.Brand = ""
	req.FuelType = ""

	_, err := svc.AddCar(context.Background(), uuid.New(), req, &ImageFile{Name: "x.jpg", Data: []byte("x")})
	require.Error(t, err)
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
	assert.Equal(t, "Please fill all required fields: Brand, Fuel Type", apperror.PublicMessage(err))
	assert.Empty(t, images.uploads)
}

func TestAddCar_ImageRequired(t *testing.T) {
	svc := NewCarService(memory.NewCarStore(), &fakeImageStore{}, zap.NewNop())

	_, err := svc.AddCar(context.Background(), uuid.New(), validAddCarRequest(), nil)
	assert.True(t, apperror.Is(err, apperror.KindInvalidArgument))
}

func TestAddCar_UploadFailureIsStoreFailure(t *testing.T) {
	svc := NewCarService(memory.NewCarStore(), &fakeImageStore{err: errors.New("timeout")}, zap.NewNop())

	_, err := svc.AddCar(context.Background(), uuid.New(), validAddCarRequest(), &ImageFile{Name: "x.jpg", Data: []byte("x")})
	assert.Equal(t, apperror.KindStoreFailure, apperror.KindOf(err))
}

func TestDelistCar(t *testing.T) {
	ownerID := uuid.New()
	c := newTestCar(t, ownerID, "Lisbon", 5000)
	store := memory.NewCarStore(c)
	svc := NewCarService(store, &fakeImageStore{}, zap.NewNop())

	err := svc.DelistCar(context.Background(), uuid.New(), c.ID())
	assert.True(t, apperror.Is(err, apperror.KindForbidden))

	require.NoError(t, svc.DelistCar(context.Background(), ownerID, c.ID()))

	owned, err := svc.GetOwnerCars(context.Background(), ownerID)
	require.NoError(t, err)
	assert.Empty(t, owned)

	listed, err := svc.ListCars(context.Background())
	require.NoError(t, err)
	assert.Empty(t, listed)

	got, err := svc.GetCar(context.Background(), c.ID())
	require.NoError(t, err)
	assert.Nil(t, got.OwnerID)
	assert.False(t, got.IsAvailable)

	err = svc.DelistCar(context.Background(), ownerID, uuid.New())
	assert.True(t, apperror.Is(err, apperror.KindNotFound))
}

func TestToggleAvailability(t *testing.T) {
	ownerID := uuid.New()
	c := newTestCar(t, ownerID, "Lisbon", 5000)
	svc := NewCarService(memory.NewCarStore(c), &fakeImageStore{}, zap.NewNop())

	toggled, err := svc.ToggleAvailability(context.Background(), ownerID, c.ID())
	require.NoError(t, err)
	assert.False(t, toggled.IsAvailable)

	toggled, err = svc.ToggleAvailability(context.Background(), ownerID, c.ID())
	require.NoError(t, err)
	assert.True(t, toggled.IsAvailable)

	_, err = svc.ToggleAvailability(context.Background(), uuid.New(), c.ID())
	assert.True(t, apperror.Is(err, apperror.KindForbidden))
}
