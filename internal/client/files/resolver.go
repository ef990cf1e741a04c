// Package files turns stored file references into URLs a reader can fetch.
package files

import (
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dmitrijs2005/gopherblog/internal/client/config"
)

// Resolver builds the URL of a file attached to a record. It does not
// contact the store.
type Resolver interface {
	URL(collection, recordID, filename string) (string, error)
}

// URLBuilder is the part of the store client a StoreResolver needs.
type URLBuilder interface {
	FileURL(collection, recordID, filename, thumb string) string
}

// StoreResolver serves files through the store's own file endpoint.
type StoreResolver struct {
	Store URLBuilder
	Thumb string
}

func (r StoreResolver) URL(collection, recordID, filename string) (string, error) {
	u := r.Store.FileURL(collection, recordID, filename, r.Thumb)
	if u == "" {
		return "", fmt.Errorf("incomplete file reference %s/%s/%s", collection, recordID, filename)
	}
	return u, nil
}

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// S3Resolver hands out presigned GET URLs for stores that keep uploads in
// an S3 bucket under {collection}/{record}/{filename}.
type S3Resolver struct {
	bucket  string
	expiry  time.Duration
	presign *s3.PresignClient
}

func NewS3Resolver(ctx context.Context, c config.S3) (*S3Resolver, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(c.Region)}
	if c.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKey, c.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if c.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(c.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	expiry := c.PresignExpiry
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &S3Resolver{bucket: c.Bucket, expiry: expiry, presign: s3.NewPresignClient(client)}, nil
}

// Key is the object key of a stored file.
func Key(collection, recordID, filename string) string {
	return path.Join(collection, recordID, filename)
}

func (r *S3Resolver) URL(collection, recordID, filename string) (string, error) {
	if collection == "" || recordID == "" || filename == "" {
		return "", fmt.Errorf("incomplete file reference %s/%s/%s", collection, recordID, filename)
	}

	req, err := presignGetObject(r.presign, context.Background(), &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(Key(collection, recordID, filename)),
	}, s3.WithPresignExpires(r.expiry))
	if err != nil {
		return "", fmt.Errorf("presign %s: %w", Key(collection, recordID, filename), err)
	}
	return req.URL, nil
}

// NewResolver picks the resolver configured by cfg.FilesBackend.
func NewResolver(ctx context.Context, cfg *config.Config, store URLBuilder) (Resolver, error) {
	switch cfg.FilesBackend {
	case config.FilesBackendS3:
		return NewS3Resolver(ctx, cfg.S3)
	case config.FilesBackendStore, "":
		return StoreResolver{Store: store}, nil
	default:
		return nil, fmt.Errorf("unknown files backend %q", cfg.FilesBackend)
	}
}
