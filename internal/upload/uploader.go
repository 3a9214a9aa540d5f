// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

// Package upload pushes processed dataset artifacts to S3 and
// verifies they landed.
package upload

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/cinelens/cinelens/internal/logging"
)

// Upload errors, distinguished so callers can map them to exit codes.
var (
	// ErrUploadFailed means the PutObject call did not succeed.
	ErrUploadFailed = errors.New("upload failed")

	// ErrVerifyFailed means the object was uploaded but the follow-up
	// existence check did not confirm it.
	ErrVerifyFailed = errors.New("upload verification failed")
)

// Client is the S3 surface the uploader needs.
type Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// Config configures the uploader.
type Config struct {
	// Bucket is the destination bucket name.
	Bucket string

	// KeyPrefix is prepended to object keys, slash-separated.
	KeyPrefix string

	// RateLimitMBps caps upload throughput in megabytes per second.
	// Zero means unlimited.
	RateLimitMBps float64
}

// Uploader uploads files to S3.
type Uploader struct {
	client Client
	cfg    Config
}

// New creates an uploader with the given client.
func New(client Client, cfg Config) *Uploader {
	return &Uploader{client: client, cfg: cfg}
}

// NewFromRegion creates an uploader with a real S3 client resolved
// from the default AWS credential chain.
func NewFromRegion(ctx context.Context, region string, cfg Config) (*Uploader, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return New(s3.NewFromConfig(awsCfg), cfg), nil
}

// Upload uploads the file at path under the given key, then verifies
// the object exists. An empty key derives one from the configured
// prefix and the file's base name. The returned error wraps
// ErrUploadFailed or ErrVerifyFailed so callers can tell the phases
// apart.
func (u *Uploader) Upload(ctx context.Context, path, key string) error {
	if key == "" {
		key = u.objectKey(path)
	}
	start := time.Now()

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("%w: open %s: %v", ErrUploadFailed, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("%w: stat %s: %v", ErrUploadFailed, path, err)
	}

	body := newLimitedReader(ctx, f, u.cfg.RateLimitMBps)

	logging.Info().
		Str("path", path).
		Str("bucket", u.cfg.Bucket).
		Str("key", key).
		Int64("size_bytes", info.Size()).
		Msg("uploading")

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.cfg.Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentLength: aws.Int64(info.Size()),
		ContentType:   aws.String("text/csv"),
	})
	if err != nil {
		return fmt.Errorf("%w: put s3://%s/%s: %v", ErrUploadFailed, u.cfg.Bucket, key, err)
	}

	if err := u.Verify(ctx, key); err != nil {
		return err
	}

	logging.Info().
		Str("key", key).
		Dur("duration", time.Since(start)).
		Msg("upload verified")
	return nil
}

// Verify confirms the object exists in the bucket.
func (u *Uploader) Verify(ctx context.Context, key string) error {
	_, err := u.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(u.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%w: head s3://%s/%s: %v", ErrVerifyFailed, u.cfg.Bucket, key, err)
	}
	return nil
}

// objectKey builds the destination key from the prefix and the file's
// base name.
func (u *Uploader) objectKey(path string) string {
	name := filepath.Base(path)
	prefix := strings.Trim(u.cfg.KeyPrefix, "/")
	if prefix == "" {
		return name
	}
	return prefix + "/" + name
}
