package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

type S3Storage struct {
	client     *s3.Client
	bucket     string
	region     string
	baseURL    string
	publicURLs bool
}

type S3Config struct {
	Bucket     string
	Region     string
	BaseURL    string
	PublicURLs bool
	AccessKey  string
	SecretKey  string
	// Endpoint points the client at an S3-compatible service such as MinIO.
	Endpoint     string
	UsePathStyle bool
}

func NewS3Storage(ctx context.Context, cfg S3Config) (*S3Storage, error) {
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}

	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.CredentialsProviderFunc(
			func(ctx context.Context) (aws.Credentials, error) {
				return aws.Credentials{
					AccessKeyID:     cfg.AccessKey,
					SecretAccessKey: cfg.SecretKey,
				}, nil
			},
		)))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS SDK config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Storage{
		client:     client,
		bucket:     cfg.Bucket,
		region:     cfg.Region,
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		publicURLs: cfg.PublicURLs,
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, key string, contents io.Reader, options ...Option) error {
	opts := NewOptions(options...)

	putParams := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
		Body:   contents,
	}

	if opts.ContentType != "" {
		putParams.ContentType = aws.String(opts.ContentType)
	}

	if opts.ContentDisposition != "" {
		putParams.ContentDisposition = aws.String(opts.ContentDisposition)
	}

	if opts.CacheControl != "" {
		putParams.CacheControl = aws.String(opts.CacheControl)
	}

	if len(opts.Metadata) > 0 {
		putParams.Metadata = opts.Metadata
	}

	if opts.Visibility == "public" {
		putParams.ACL = types.ObjectCannedACLPublicRead
	}

	if _, err := s.client.PutObject(ctx, putParams); err != nil {
		return fmt.Errorf("failed to upload file to S3: %w", err)
	}

	return nil
}

func (s *S3Storage) SaveFromURL(ctx context.Context, key string, url string, options ...Option) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request for URL: %w", err)
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file from URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file from URL, status: %s", resp.Status)
	}

	if contentType := resp.Header.Get("Content-Type"); contentType != "" && NewOptions(options...).ContentType == "" {
		options = append(options, WithContentType(contentType))
	}

	return s.Save(ctx, key, resp.Body, options...)
}

func (s *S3Storage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, fmt.Errorf("%s: %w", key, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get object from S3: %w", err)
	}

	return result.Body, nil
}

func (s *S3Storage) Exists(ctx context.Context, key string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check if object exists: %w", err)
	}

	return true, nil
}

func (s *S3Storage) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object from S3: %w", err)
	}

	return nil
}

func (s *S3Storage) URL(key string) string {
	base := s.baseURL
	if base == "" {
		if !s.publicURLs {
			return ""
		}
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.bucket, s.region)
	}

	key = strings.TrimPrefix(key, "/")
	if key == "" {
		return base
	}

	return base + "/" + path.Clean(key)
}

func (s *S3Storage) TemporaryURL(ctx context.Context, key string, expiry int64) (string, error) {
	presignClient := s3.NewPresignClient(s.client)

	request, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(opts *s3.PresignOptions) {
		opts.Expires = time.Duration(expiry) * time.Second
	})
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return request.URL, nil
}
