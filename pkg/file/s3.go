package file

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// deleteBatch is the DeleteObjects limit.
const deleteBatch = 1000

// S3Client is the part of the S3 API S3Storage calls.
type S3Client interface {
	s3.ListObjectsV2APIClient
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObjects(ctx context.Context, params *s3.DeleteObjectsInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
}

// S3Config selects the bucket exports are written to.
type S3Config struct {
	Bucket         string `env:"S3_BUCKET"`
	Region         string `env:"S3_REGION" envDefault:"us-east-1"`
	AccessKeyID    string `env:"S3_ACCESS_KEY_ID"`
	SecretKey      string `env:"S3_SECRET_KEY"`
	Endpoint       string `env:"S3_ENDPOINT"`         // S3-compatible services
	Prefix         string `env:"S3_PREFIX"`           // prepended to every key
	ForcePathStyle bool   `env:"S3_FORCE_PATH_STYLE"` // MinIO and friends
	DisableSSE     bool   `env:"S3_DISABLE_SSE"`
}

// S3Storage writes exports as objects of one bucket, with AES256 server-side
// encryption unless disabled. Safe for concurrent use.
type S3Storage struct {
	client  S3Client
	bucket  string
	prefix  string
	sse     bool
	timeout time.Duration
}

// S3Option configures S3Storage.
type S3Option func(*s3Options)

type s3Options struct {
	client        S3Client
	clientOptions []func(*s3.Options)
	timeout       time.Duration
}

// WithS3Client uses client instead of one built from the AWS default config.
func WithS3Client(client S3Client) S3Option {
	return func(o *s3Options) { o.client = client }
}

// WithS3ClientOption adjusts the built client.
func WithS3ClientOption(opt func(*s3.Options)) S3Option {
	return func(o *s3Options) { o.clientOptions = append(o.clientOptions, opt) }
}

// WithS3Timeout bounds every request. Without it the caller's deadline applies.
func WithS3Timeout(d time.Duration) S3Option {
	return func(o *s3Options) { o.timeout = d }
}

// NewS3Storage builds the client from the AWS default credential chain,
// preferring the static keys of cfg when both are set.
func NewS3Storage(ctx context.Context, cfg S3Config, opts ...S3Option) (*S3Storage, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	var o s3Options
	for _, opt := range opts {
		opt(&o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, errors.Join(ErrInvalidConfig, err)
		}
		client = s3.NewFromConfig(awsCfg, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
			for _, opt := range o.clientOptions {
				opt(so)
			}
		})
	}

	return &S3Storage{
		client:  client,
		bucket:  cfg.Bucket,
		prefix:  strings.Trim(cfg.Prefix, "/"),
		sse:     !cfg.DisableSSE,
		timeout: o.timeout,
	}, nil
}

func (s *S3Storage) Save(ctx context.Context, name string, data []byte) (*File, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	if key == s.prefix {
		return nil, fmt.Errorf("%w: %s", ErrIsDirectory, name)
	}

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType(key)),
	}
	if s.sse {
		in.ServerSideEncryption = types.ServerSideEncryptionAes256
	}
	if _, err := s.client.PutObject(ctx, in); err != nil {
		return nil, classify(err, ErrWrite)
	}

	return &File{
		Name:     path.Base(key),
		Size:     int64(len(data)),
		Location: "s3://" + s.bucket + "/" + key,
	}, nil
}

// DeleteDir removes every object under the dir prefix.
func (s *S3Storage) DeleteDir(ctx context.Context, dir string) error {
	prefix, err := s.key(dir)
	if err != nil {
		return err
	}
	if prefix == s.prefix {
		return fmt.Errorf("%w: %q is the storage root", ErrInvalidPath, dir)
	}
	prefix += "/"

	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var objects []types.ObjectIdentifier
	pages := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return classify(err, ErrDelete)
		}
		for _, obj := range page.Contents {
			objects = append(objects, types.ObjectIdentifier{Key: obj.Key})
		}
	}
	if len(objects) == 0 {
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	}

	for batch := range slices.Chunk(objects, deleteBatch) {
		out, err := s.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
			Bucket: aws.String(s.bucket),
			Delete: &types.Delete{Objects: batch, Quiet: aws.Bool(true)},
		})
		if err != nil {
			return classify(err, ErrDelete)
		}
		if len(out.Errors) > 0 {
			e := out.Errors[0]
			return fmt.Errorf("%w: %d objects left, first %s: %s",
				ErrDelete, len(out.Errors), aws.ToString(e.Key), aws.ToString(e.Message))
		}
	}
	return nil
}

func (s *S3Storage) key(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, name)
	}
	switch {
	case s.prefix == "":
		return clean, nil
	case clean == "":
		return s.prefix, nil
	default:
		return s.prefix + "/" + clean, nil
	}
}

func (s *S3Storage) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return context.WithCancel(ctx)
}

// classify maps S3 API error codes onto the package errors. Anything else is
// wrapped in op.
func classify(err error, op error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchBucket":
			return errors.Join(op, ErrBucketNotFound, err)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return errors.Join(op, ErrAccessDenied, err)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout", "InternalError":
			return errors.Join(op, ErrUnavailable, err)
		}
	}
	return errors.Join(op, err)
}
