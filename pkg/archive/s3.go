package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
)

// S3Client defines the S3 operations used by S3Archive.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Archive writes verified raw webhook payloads to S3, one object per event
// id. Writing the same event twice overwrites the object with identical bytes.
// It is safe for concurrent use.
type S3Archive struct {
	client S3Client
	bucket string
	prefix string
}

// Option configures S3Archive construction.
type Option func(*options)

type options struct {
	client        S3Client
	configOptions []func(*config.LoadOptions) error
}

// WithS3Client sets a pre-configured client. Useful for testing with mocks.
func WithS3Client(client S3Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithConfigOption adds a custom AWS config load option.
func WithConfigOption(opt func(*config.LoadOptions) error) Option {
	return func(o *options) {
		o.configOptions = append(o.configOptions, opt)
	}
}

// NewS3Archive creates an archive for cfg.Bucket.
func NewS3Archive(ctx context.Context, cfg Config, opts ...Option) (*S3Archive, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, ErrInvalidConfig
	}

	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		awsOptions := []func(*config.LoadOptions) error{
			config.WithRegion(cfg.Region),
		}
		if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
			awsOptions = append(awsOptions, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
			))
		}
		awsOptions = append(awsOptions, o.configOptions...)

		awsConfig, err := config.LoadDefaultConfig(ctx, awsOptions...)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrFailedToLoadConfig, err)
		}

		client = s3.NewFromConfig(awsConfig, func(so *s3.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &S3Archive{
		client: client,
		bucket: cfg.Bucket,
		prefix: cfg.Prefix,
	}, nil
}

// Key returns the object key for eventID.
func (a *S3Archive) Key(eventID string) string {
	return a.prefix + eventID + ".json"
}

// Archive stores payload under the event id.
func (a *S3Archive) Archive(ctx context.Context, eventID string, payload []byte) error {
	if eventID == "" || strings.ContainsAny(eventID, "/\\") || strings.Contains(eventID, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidEventID, eventID)
	}

	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(a.Key(eventID)),
		Body:          bytes.NewReader(payload),
		ContentLength: aws.Int64(int64(len(payload))),
		ContentType:   aws.String("application/json"),
	})
	if err != nil {
		return mapS3Error(err)
	}
	return nil
}

func mapS3Error(err error) error {
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsb) {
		return errors.Join(ErrBucketNotFound, err)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDenied":
			return errors.Join(ErrAccessDenied, err)
		case "NoSuchBucket":
			return errors.Join(ErrBucketNotFound, err)
		case "SlowDown", "ServiceUnavailable", "RequestTimeout":
			return errors.Join(ErrServiceUnavailable, err)
		}
	}

	return errors.Join(ErrArchiveFailed, err)
}
