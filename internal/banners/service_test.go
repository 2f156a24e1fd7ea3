package banners

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/kitstore-backend/pkg/db/dbtest"
	"github.com/angelmondragon/kitstore-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/kitstore-backend/pkg/errors"
	"github.com/angelmondragon/kitstore-backend/pkg/storage/s3"
)

type stubUploader struct {
	prefix string
}

func (s *stubUploader) PresignImageUpload(_ context.Context, prefix, contentType string) (*s3.UploadTicket, error) {
	s.prefix = prefix
	return &s3.UploadTicket{Key: prefix + "/x.png", Headers: map[string]string{"Content-Type": contentType}}, nil
}

func newTestService(t *testing.T, uploader imageUploader) Service {
	t.Helper()
	svc, err := NewService(NewRepository(dbtest.Open(t, &models.Banner{})), uploader)
	require.NoError(t, err)
	return svc
}

func TestCreateAndListOrdersByPosition(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	inactive := false

	_, err := svc.Create(ctx, CreateInput{Title: "Second", ImageURL: "https://cdn.example.com/2.png", Position: 2})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Title: "First", ImageURL: "https://cdn.example.com/1.png", Position: 1})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateInput{Title: "Hidden", ImageURL: "https://cdn.example.com/3.png", IsActive: &inactive})
	require.NoError(t, err)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "First", active[0].Title)
	assert.Equal(t, "Second", active[1].Title)

	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCreateRequiresTitleAndImage(t *testing.T) {
	svc := newTestService(t, nil)
	_, err := svc.Create(context.Background(), CreateInput{})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
	assert.Equal(t, []string{"imageUrl", "title"}, pkgerrors.As(err).Details().(map[string]any)["missing_fields"])
}

func TestUpdateAndDelete(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, CreateInput{Title: "Kits", ImageURL: "https://cdn.example.com/k.png"})
	require.NoError(t, err)

	off := false
	title := "New kits"
	updated, err := svc.Update(ctx, created.ID, UpdateInput{Title: &title, IsActive: &off})
	require.NoError(t, err)
	assert.Equal(t, "New kits", updated.Title)
	assert.False(t, updated.IsActive)

	require.NoError(t, svc.Delete(ctx, created.ID))
	assert.True(t, pkgerrors.IsCode(svc.Delete(ctx, created.ID), pkgerrors.CodeNotFound))

	_, err = svc.Update(ctx, uuid.New(), UpdateInput{Title: &title})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeNotFound))
}

func TestUploadURL(t *testing.T) {
	_, err := newTestService(t, nil).UploadURL(context.Background(), "image/png")
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))

	uploader := &stubUploader{}
	ticket, err := newTestService(t, uploader).UploadURL(context.Background(), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "banners", uploader.prefix)
	assert.Equal(t, "banners/x.png", ticket.Key)
}
