package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"

	"github.com/fathima-sithara/whisper-backend/internal/config"
)

const thumbnailMaxEdge = 320

// S3Store uploads message attachments and avatar/group images to S3.
type S3Store struct {
	client     *s3.Client
	uploader   *manager.Uploader
	bucket     string
	region     string
	publicRead bool
}

func NewS3Store(ctx context.Context, cfg *config.Config) (*S3Store, error) {
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, awscfg.WithRegion(cfg.S3.Region))
	if err != nil {
		return nil, err
	}
	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:     client,
		uploader:   manager.NewUploader(client),
		bucket:     cfg.S3.Bucket,
		region:     cfg.S3.Region,
		publicRead: cfg.S3.PublicRead,
	}, nil
}

// Upload stores data under key and returns the object's public URL when the
// bucket allows public reads, or the key otherwise (clients then presign).
func (s *S3Store) Upload(ctx context.Context, key, contentType string, data []byte) (string, error) {
	_, err := s.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", err
	}
	if s.publicRead {
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, url.PathEscape(key)), nil
	}
	return key, nil
}

// UploadImage stores the original image and a downscaled thumbnail next to
// it under "<key>.thumb". Returns the original's URL/key.
func (s *S3Store) UploadImage(ctx context.Context, key, contentType string, data []byte) (string, error) {
	loc, err := s.Upload(ctx, key, contentType, data)
	if err != nil {
		return "", err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		// not decodable as an image; skip the thumbnail
		return loc, nil
	}
	thumb := imaging.Fit(img, thumbnailMaxEdge, thumbnailMaxEdge, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return loc, nil
	}
	if _, err := s.Upload(ctx, key+".thumb", "image/jpeg", buf.Bytes()); err != nil {
		return loc, nil
	}
	return loc, nil
}

// PresignURL returns a time-limited GET URL for key.
func (s *S3Store) PresignURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	presigner := s3.NewPresignClient(s.client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))
	if err != nil {
		return "", err
	}
	return req.URL, nil
}

// IsImage reports whether the content type is an image we thumbnail.
func IsImage(contentType string) bool {
	return strings.HasPrefix(contentType, "image/")
}
