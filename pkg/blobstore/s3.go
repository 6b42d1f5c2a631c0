package blobstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"
)

// S3Config contains the settings required to talk to an S3 bucket.
type S3Config struct {
	Bucket string
	Region string
	// Endpoint overrides the AWS endpoint, for S3-compatible stores.
	Endpoint string
	// PublicBaseURL is joined with object keys to build public URLs.
	PublicBaseURL string
}

// S3Store implements Store backed by an S3 bucket.
type S3Store struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	logger        zerolog.Logger
}

// NewS3 constructs an S3-backed store using the default credential chain.
func NewS3(ctx context.Context, cfg S3Config, logger zerolog.Logger) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket must be provided")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Store{
		client:        client,
		bucket:        cfg.Bucket,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
		logger:        logger.With().Str("component", "blobstore_s3").Logger(),
	}, nil
}

// Put uploads body at key. S3 overwrites unconditionally, which gives the
// store its last-write-wins contract.
func (s *S3Store) Put(ctx context.Context, key string, body []byte, contentType string) (Object, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return Object{}, fmt.Errorf("failed to put object %s: %w", key, err)
	}

	s.logger.Info().Str("key", key).Int("size", len(body)).Msg("object stored")

	return Object{Key: key, Size: int64(len(body)), URL: s.PublicURL(key)}, nil
}

// Get downloads the object at key in full.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get object %s: %w", key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read object %s: %w", key, err)
	}

	return data, nil
}

// List pages through every object under prefix.
func (s *S3Store) List(ctx context.Context, prefix string) ([]Object, error) {
	var objects []Object

	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects under %s: %w", prefix, err)
		}
		for _, item := range page.Contents {
			obj := Object{Key: aws.ToString(item.Key)}
			if item.Size != nil {
				obj.Size = *item.Size
			}
			if item.LastModified != nil {
				obj.LastModified = *item.LastModified
			}
			obj.URL = s.PublicURL(obj.Key)
			objects = append(objects, obj)
		}
	}

	return objects, nil
}

// PublicURL joins the configured base URL with key.
func (s *S3Store) PublicURL(key string) string {
	if s.publicBaseURL == "" {
		return ""
	}
	return s.publicBaseURL + "/" + strings.TrimPrefix(key, "/")
}
