// CineLens - MovieLens Movie Recommendation Engine
// Copyright 2026 CineLens contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/cinelens/cinelens

package upload

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// stubClient records calls and returns canned errors.
type stubClient struct {
	putErr  error
	headErr error

	putInput  *s3.PutObjectInput
	headInput *s3.HeadObjectInput
	putBody   []byte
}

func (s *stubClient) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	s.putInput = params
	if params.Body != nil {
		s.putBody, _ = io.ReadAll(params.Body)
	}
	if s.putErr != nil {
		return nil, s.putErr
	}
	return &s3.PutObjectOutput{}, nil
}

func (s *stubClient) HeadObject(_ context.Context, params *s3.HeadObjectInput, _ ...func(*s3.Options)) (*s3.HeadObjectOutput, error) {
	s.headInput = params
	if s.headErr != nil {
		return nil, s.headErr
	}
	return &s3.HeadObjectOutput{}, nil
}

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ratings_dedup.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write temp file: %v", err)
	}
	return path
}

func TestUploaderUpload(t *testing.T) {
	client := &stubClient{}
	u := New(client, Config{Bucket: "movie-engine", KeyPrefix: "processed"})

	path := writeTempFile(t, "userId,movieId,rating,timestamp\n1,10,4.5,100\n")
	if err := u.Upload(context.Background(), path, ""); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}

	if client.putInput == nil {
		t.Fatal("PutObject was not called")
	}
	if got := *client.putInput.Bucket; got != "movie-engine" {
		t.Errorf("bucket = %q, want movie-engine", got)
	}
	if got := *client.putInput.Key; got != "processed/ratings_dedup.csv" {
		t.Errorf("key = %q, want processed/ratings_dedup.csv", got)
	}
	if !bytes.Contains(client.putBody, []byte("userId,movieId")) {
		t.Error("uploaded body missing file content")
	}

	if client.headInput == nil {
		t.Fatal("HeadObject was not called for verification")
	}
	if got := *client.headInput.Key; got != "processed/ratings_dedup.csv" {
		t.Errorf("verified key = %q, want processed/ratings_dedup.csv", got)
	}
}

func TestUploaderKeyWithoutPrefix(t *testing.T) {
	client := &stubClient{}
	u := New(client, Config{Bucket: "movie-engine"})

	path := writeTempFile(t, "data\n")
	if err := u.Upload(context.Background(), path, ""); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := *client.putInput.Key; got != "ratings_dedup.csv" {
		t.Errorf("key = %q, want bare file name", got)
	}
}

func TestUploaderExplicitKey(t *testing.T) {
	client := &stubClient{}
	u := New(client, Config{Bucket: "movie-engine", KeyPrefix: "processed"})

	path := writeTempFile(t, "data\n")
	if err := u.Upload(context.Background(), path, "custom/location.csv"); err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if got := *client.putInput.Key; got != "custom/location.csv" {
		t.Errorf("key = %q, want the explicit key over the derived one", got)
	}
}

func TestUploaderErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		u := New(&stubClient{}, Config{Bucket: "b"})
		err := u.Upload(context.Background(), "/does/not/exist.csv", "")
		if !errors.Is(err, ErrUploadFailed) {
			t.Errorf("Upload() error = %v, want ErrUploadFailed", err)
		}
	})

	t.Run("put failure", func(t *testing.T) {
		u := New(&stubClient{putErr: errors.New("denied")}, Config{Bucket: "b"})
		err := u.Upload(context.Background(), writeTempFile(t, "x\n"), "")
		if !errors.Is(err, ErrUploadFailed) {
			t.Errorf("Upload() error = %v, want ErrUploadFailed", err)
		}
	})

	t.Run("verify failure", func(t *testing.T) {
		u := New(&stubClient{headErr: errors.New("not found")}, Config{Bucket: "b"})
		err := u.Upload(context.Background(), writeTempFile(t, "x\n"), "")
		if !errors.Is(err, ErrVerifyFailed) {
			t.Errorf("Upload() error = %v, want ErrVerifyFailed", err)
		}
		if errors.Is(err, ErrUploadFailed) {
			t.Error("verify failure also matched ErrUploadFailed")
		}
	})
}

func TestLimitedReader(t *testing.T) {
	t.Run("zero cap passes through", func(t *testing.T) {
		src := bytes.NewReader([]byte("hello"))
		r := newLimitedReader(context.Background(), src, 0)
		if r != io.Reader(src) {
			t.Error("zero cap did not return the source reader")
		}
	})

	t.Run("content unchanged", func(t *testing.T) {
		payload := bytes.Repeat([]byte("a"), 4096)
		r := newLimitedReader(context.Background(), bytes.NewReader(payload), 100)
		got, err := io.ReadAll(r)
		if err != nil {
			t.Fatalf("ReadAll() error = %v", err)
		}
		if !bytes.Equal(got, payload) {
			t.Error("limited reader altered the payload")
		}
	})

	t.Run("canceled context stops reads", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		// Tiny rate so the limiter must wait and observe cancellation.
		r := newLimitedReader(ctx, bytes.NewReader(bytes.Repeat([]byte("a"), 1024*1024)), 0.000001)
		buf := make([]byte, 128*1024)
		deadline := time.Now().Add(5 * time.Second)
		var err error
		for err == nil && time.Now().Before(deadline) {
			_, err = r.Read(buf)
		}
		if err == nil {
			t.Error("reads continued after context cancellation")
		}
	})
}
