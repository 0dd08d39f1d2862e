package facades

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
)

// MaxImageBytes caps how much of an upload is read before decoding.
const MaxImageBytes = 10 << 20

// ErrInvalidImage is returned when an upload cannot be decoded as an image.
var ErrInvalidImage = errors.New("upload a valid image. The file you uploaded was either not an image or a corrupted image")

// ImageKind describes where an image goes and how it is resized.
type ImageKind struct {
	Folder string
	Width  int
	Height int
	Fill   bool // crop to exactly Width x Height instead of fitting inside
}

var (
	RecipeImage = ImageKind{Folder: "recipes", Width: 1200, Height: 1200}
	Avatar      = ImageKind{Folder: "profile_pics", Width: 256, Height: 256, Fill: true}
)

// S3API is the part of the S3 client the store needs.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Config holds the object storage connection settings.
type S3Config struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
}

// NewS3Client builds a path-style client, which MinIO requires.
func NewS3Client(ctx context.Context, c S3Config) (*s3.Client, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.Endpoint != "" {
			o.BaseEndpoint = aws.String(c.Endpoint)
		}
		o.UsePathStyle = true
	}), nil
}

// ImageStore resizes uploads and stores them as JPEG objects in a bucket.
type ImageStore struct {
	client    S3API
	bucket    string
	publicURL string
}

// NewImageStore creates a store. publicURL is the prefix objects are served from.
func NewImageStore(client S3API, bucket, publicURL string) *ImageStore {
	return &ImageStore{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
}

// Put decodes, resizes and uploads the image and returns its public URL.
func (s *ImageStore) Put(ctx context.Context, kind ImageKind, upload models.Upload) (string, error) {
	img, err := imaging.Decode(io.LimitReader(upload.Content, MaxImageBytes), imaging.AutoOrientation(true))
	if err != nil {
		logger.Log.Infow("image decode failed", "filename", upload.Filename, "error", err)
		return "", ErrInvalidImage
	}

	if kind.Fill {
		img = imaging.Fill(img, kind.Width, kind.Height, imaging.Center, imaging.Lanczos)
	} else if b := img.Bounds(); b.Dx() > kind.Width || b.Dy() > kind.Height {
		img = imaging.Fit(img, kind.Width, kind.Height, imaging.Lanczos)
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", err
	}

	key := fmt.Sprintf("%s/%s.jpg", kind.Folder, uuid.NewString())
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(buf.Bytes()),
		ContentLength: aws.Int64(int64(buf.Len())),
		ContentType:   aws.String("image/jpeg"),
	})
	if err != nil {
		logger.Log.Errorw("failed to upload image", "bucket", s.bucket, "key", key, "error", err)
		return "", err
	}

	logger.Log.Infow("image stored", "bucket", s.bucket, "key", key, "bytes", buf.Len())

	return s.publicURL + "/" + key, nil
}
