package objectstore

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/NikolajSankovDev/zyron/internal/config"
	"github.com/NikolajSankovDev/zyron/internal/httperr"
	"github.com/NikolajSankovDev/zyron/internal/infra/otel"
)

const (
	otelScopeName    = "objectstore"
	otelAttrKey      = "object_key"
	otelAttrBucket   = "bucket"
	otelAttrByteSize = "byte_size"
)

var ErrNotConfigured = httperr.ErrBusiness("media_storage_not_configured")

// Store keeps public assets such as barber avatars.
type Store interface {
	Put(ctx context.Context, directory, fileName, contentType string, data []byte) (url string, err error)
	Delete(ctx context.Context, url string) error
}

type s3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
	otel      otel.Otel
}

// New returns an S3 backed store, or a store answering ErrNotConfigured when
// no bucket is set.
func New(cfg *config.Config, o otel.Otel) Store {
	media := cfg.Media
	if media.S3Bucket == "" {
		log.Info().Msg("object storage disabled, MEDIA_S3_BUCKET not set")
		return disabled{}
	}

	client := s3.New(s3.Options{
		Region: media.S3Region,
		Credentials: credentials.NewStaticCredentialsProvider(
			media.S3AccessKey,
			media.S3SecretKey,
			"",
		),
		BaseEndpoint: endpoint(media.S3Endpoint),
		UsePathStyle: media.S3Endpoint != "",
	})

	publicURL := strings.TrimRight(media.PublicURL, "/")
	if publicURL == "" {
		publicURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", media.S3Bucket, media.S3Region)
	}

	return &s3Store{
		client:    client,
		bucket:    media.S3Bucket,
		publicURL: publicURL,
		otel:      o,
	}
}

func endpoint(raw string) *string {
	if raw == "" {
		return nil
	}
	return aws.String(raw)
}

func (s *s3Store) Put(
	ctx context.Context,
	directory, fileName, contentType string,
	data []byte,
) (url string, err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Put")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	key := path.Join(directory, fileName)
	scope.SetAttributes(map[string]any{
		otelAttrKey:      key,
		otelAttrBucket:   s.bucket,
		otelAttrByteSize: len(data),
	})

	body := bytes.NewReader(data)
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(body.Size()),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}

	return s.publicURL + "/" + key, nil
}

func (s *s3Store) Delete(ctx context.Context, url string) (err error) {
	ctx, scope := s.otel.NewScope(ctx, otelScopeName, otelScopeName+".Delete")
	defer scope.End()
	defer func() { scope.TraceIfError(err) }()

	key, ok := strings.CutPrefix(url, s.publicURL+"/")
	if !ok || key == "" {
		return nil
	}
	scope.SetAttribute(otelAttrKey, key)

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		log.Error().Err(err).Str("key", key).Msg("failed to delete object")
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

type disabled struct{}

func (disabled) Put(context.Context, string, string, string, []byte) (string, error) {
	return "", ErrNotConfigured
}

func (disabled) Delete(context.Context, string) error { return nil }
