package facades

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngUpload(t *testing.T, w, h int) models.Upload {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return models.Upload{Filename: "pic.png", ContentType: "image/png", Content: &buf}
}

func TestImageStore_PutAvatar(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	store := NewImageStore(client, "media", "http://localhost:9000/media/")

	client.EXPECT().
		PutObject(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			assert.Equal(t, "media", *in.Bucket)
			assert.True(t, strings.HasPrefix(*in.Key, "profile_pics/"))
			assert.Equal(t, "image/jpeg", *in.ContentType)

			img, _, err := image.Decode(in.Body)
			require.NoError(t, err)
			assert.Equal(t, 256, img.Bounds().Dx())
			assert.Equal(t, 256, img.Bounds().Dy())
			return &s3.PutObjectOutput{}, nil
		})

	url, err := store.Put(context.Background(), Avatar, pngUpload(t, 600, 400))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "http://localhost:9000/media/profile_pics/"))
	assert.True(t, strings.HasSuffix(url, ".jpg"))
}

func TestImageStore_PutSmallRecipeImageKeepsSize(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	store := NewImageStore(client, "media", "http://cdn")

	client.EXPECT().
		PutObject(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
			img, _, err := image.Decode(in.Body)
			require.NoError(t, err)
			assert.Equal(t, 300, img.Bounds().Dx())
			assert.Equal(t, 200, img.Bounds().Dy())
			return &s3.PutObjectOutput{}, nil
		})

	_, err := store.Put(context.Background(), RecipeImage, pngUpload(t, 300, 200))
	require.NoError(t, err)
}

func TestImageStore_PutRejectsNonImage(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := NewImageStore(NewMockS3API(ctrl), "media", "http://cdn")

	_, err := store.Put(context.Background(), RecipeImage, models.Upload{Filename: "x.txt", Content: strings.NewReader("not an image")})
	assert.ErrorIs(t, err, ErrInvalidImage)
}

func TestImageStore_PutUploadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	client := NewMockS3API(ctrl)
	store := NewImageStore(client, "media", "http://cdn")

	client.EXPECT().PutObject(gomock.Any(), gomock.Any()).Return(nil, errors.New("bucket gone"))

	_, err := store.Put(context.Background(), RecipeImage, pngUpload(t, 10, 10))
	assert.EqualError(t, err, "bucket gone")
}
