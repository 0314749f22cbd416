package catalog

import (
	"context"
	"fmt"
	"strings"

	"orderdesk/internal/model"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// objectGetter is the slice of the S3 API the loader needs.
type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

type s3Loader struct {
	objects objectGetter
	bucket  string
	logger  zerolog.Logger
}

// NewS3Loader reads menu seeds from a bucket using the default AWS
// credential chain.
func NewS3Loader(ctx context.Context, bucket, region string, logger zerolog.Logger) (Loader, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	l := newS3Loader(s3.NewFromConfig(awsCfg), bucket, logger)
	l.logger.Info().Str("region", region).Msg("menu bucket configured")
	return l, nil
}

func newS3Loader(objects objectGetter, bucket string, logger zerolog.Logger) *s3Loader {
	return &s3Loader{
		objects: objects,
		bucket:  bucket,
		logger:  logger.With().Str("component", "s3-catalog-loader").Str("bucket", bucket).Logger(),
	}
}

// Load fetches the object stored under key and decodes it.
func (l *s3Loader) Load(ctx context.Context, key string) ([]model.Product, error) {
	out, err := l.objects.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(l.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get s3://%s/%s: %w", l.bucket, key, err)
	}
	defer out.Body.Close()

	products, err := decode(ctx, out.Body, "s3://"+l.bucket+"/"+key)
	if err != nil {
		return nil, err
	}

	l.logger.Debug().
		Str("key", key).
		Int64("size", aws.ToInt64(out.ContentLength)).
		Int("products", len(products)).
		Msg("menu seed fetched")
	return products, nil
}

type fallbackLoader struct {
	remote    Loader
	keyPrefix string
	local     Loader
	logger    zerolog.Logger
}

// NewFallbackLoader asks remote first, under keyPrefix+path, and reads path
// from local when remote is nil or fails.
func NewFallbackLoader(remote Loader, keyPrefix string, local Loader, logger zerolog.Logger) Loader {
	return &fallbackLoader{
		remote:    remote,
		keyPrefix: keyPrefix,
		local:     local,
		logger:    logger.With().Str("component", "fallback-loader").Logger(),
	}
}

func (l *fallbackLoader) Load(ctx context.Context, path string) ([]model.Product, error) {
	if l.remote != nil {
		key := l.keyPrefix + strings.TrimPrefix(path, "/")
		products, err := l.remote.Load(ctx, key)
		if err == nil {
			return products, nil
		}
		l.logger.Warn().Err(err).Str("key", key).Msg("remote menu unavailable, reading local copy")
	}

	return l.local.Load(ctx, path)
}
