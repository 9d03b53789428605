package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/charmbracelet/log"
)

// ObjectClient abstracts the S3 API operations used by [RemoteTier].
// The [s3.Client] type satisfies this interface.
type ObjectClient interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// RemoteTier is the shared cache backed by an S3-compatible object store.
// Entries are content-addressed by fingerprint: the audio blob lives at
// <prefix>/<key>.mp3 and a JSON metadata sidecar at <prefix>/<key>.json.
// All devices requesting the same fingerprint share one entry.
//
// Access accounting rewrites the whole sidecar, so concurrent clients are
// last-writer-wins on the counters. That is acceptable: the counters are
// advisory telemetry, not correctness-critical state.
type RemoteTier struct {
	client ObjectClient
	bucket string
	prefix string
}

// NewRemoteTier creates a remote tier over a pre-configured object client.
// Prefix is prepended to all object keys; pass "" for the bucket root.
func NewRemoteTier(client ObjectClient, bucket, prefix string) *RemoteTier {
	return &RemoteTier{client: client, bucket: bucket, prefix: prefix}
}

// Name implements Tier.
func (t *RemoteTier) Name() string { return "remote" }

// Get implements Tier. A present sidecar whose blob fetch fails is reported
// as a miss, not an error: the caller falls through to synthesis.
func (t *RemoteTier) Get(ctx context.Context, key string) (*Entry, error) {
	meta, err := t.fetch(ctx, t.objectKey(key+metaSuffix))
	if err != nil {
		if isNotFound(err) {
			return nil, ErrMiss
		}
		return nil, err
	}

	var entry Entry
	if err := json.Unmarshal(meta, &entry); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupted, err)
	}

	blobKey := entry.StoragePath
	if blobKey == "" {
		blobKey = t.objectKey(key + audioSuffix)
	}
	audio, err := t.fetch(ctx, blobKey)
	if err != nil {
		// Sidecar without a readable blob. Treat as a full miss so the
		// caller re-synthesizes rather than failing the narration.
		log.Debug("remote cache blob fetch failed", "key", key, "error", err)
		return nil, ErrMiss
	}

	entry.Audio = audio
	return &entry, nil
}

// Put implements Tier. The blob is uploaded before the sidecar so a sidecar
// never points at a blob that was not written.
func (t *RemoteTier) Put(ctx context.Context, key string, entry *Entry) error {
	blobKey := t.objectKey(key + audioSuffix)
	_, err := t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(blobKey),
		Body:        bytes.NewReader(entry.Audio),
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return fmt.Errorf("uploading audio blob: %w", err)
	}

	now := time.Now()
	stored := Entry{
		Key:            key,
		Voice:          entry.Voice,
		Timing:         entry.Timing,
		CreatedAt:      now,
		LastAccessedAt: now,
		AudioSize:      int64(len(entry.Audio)),
		StoragePath:    blobKey,
	}
	return t.putSidecar(ctx, key, &stored)
}

// RecordAccess implements Tier: read-modify-write of the sidecar counters.
// Best-effort; a failure loses one increment of advisory telemetry.
func (t *RemoteTier) RecordAccess(ctx context.Context, key string) {
	meta, err := t.fetch(ctx, t.objectKey(key+metaSuffix))
	if err != nil {
		return
	}
	var entry Entry
	if err := json.Unmarshal(meta, &entry); err != nil {
		return
	}

	entry.AccessCount++
	entry.LastAccessedAt = time.Now()
	if err := t.putSidecar(ctx, key, &entry); err != nil {
		log.Debug("remote cache access accounting failed", "key", key, "error", err)
	}
}

func (t *RemoteTier) putSidecar(ctx context.Context, key string, entry *Entry) error {
	meta, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("encoding cache metadata: %w", err)
	}
	_, err = t.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(t.bucket),
		Key:         aws.String(t.objectKey(key + metaSuffix)),
		Body:        bytes.NewReader(meta),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("uploading cache metadata: %w", err)
	}
	return nil
}

func (t *RemoteTier) fetch(ctx context.Context, objectKey string) ([]byte, error) {
	out, err := t.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(t.bucket),
		Key:    aws.String(objectKey),
	})
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()
	return io.ReadAll(out.Body)
}

func (t *RemoteTier) objectKey(name string) string {
	if t.prefix == "" {
		return name
	}
	return t.prefix + "/" + name
}

// isNotFound reports whether err indicates a missing object.
func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}

// Compile-time interface check.
var _ Tier = (*RemoteTier)(nil)
