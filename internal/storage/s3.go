// Package storage uploads book covers to S3 and returns their public url.
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const coverPrefix = "books/covers"

type Options struct {
	Region        string
	Bucket        string
	Endpoint      string
	CloudfrontUrl string
	AccessKey     string
	SecretKey     string
}

type Upload struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3 struct {
	client  objectPutter
	bucket  string
	baseUrl string
	now     func() time.Time
}

// loadDefaultAWSConfig is swapped in tests.
var loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

func NewS3(ctx context.Context, opts Options) (*S3, error) {
	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(opts.Region),
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}
	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})
	return newS3(client, opts), nil
}

func newS3(client objectPutter, opts Options) *S3 {
	return &S3{
		client:  client,
		bucket:  opts.Bucket,
		baseUrl: strings.TrimRight(opts.CloudfrontUrl, "/"),
		now:     time.Now,
	}
}

// UploadCover stores the file under books/covers/{unix_ms}-{name}.
func (s *S3) UploadCover(ctx context.Context, upload Upload) (string, error) {
	key := CoverKey(s.now(), upload.Name)
	input := &s3.PutObjectInput{
		Bucket:             aws.String(s.bucket),
		Key:                aws.String(key),
		Body:               upload.Body,
		ContentDisposition: aws.String("inline"),
	}
	if upload.ContentType != "" {
		input.ContentType = aws.String(upload.ContentType)
	}
	if upload.Size > 0 {
		input.ContentLength = aws.Int64(upload.Size)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object %q: %w", key, err)
	}
	return s.baseUrl + "/" + key, nil
}

func CoverKey(now time.Time, name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		name = "cover"
	}
	return fmt.Sprintf("%s/%d-%s", coverPrefix, now.UnixMilli(), name)
}
