// Copyright 2025 The fawa Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/fawa-io/savebridge/pkg/fwlog"
)

// MinioOptions configures the archive mirror.
type MinioOptions struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	// Region skips the bucket location lookup when set.
	Region string
}

// MinioArchiver mirrors saved artifacts into a MinIO (or S3) bucket.
type MinioArchiver struct {
	client     *minio.Client
	bucketName string
}

// NewMinioArchiver connects to the object store and creates the bucket if
// it does not exist yet.
func NewMinioArchiver(ctx context.Context, opts MinioOptions) (*MinioArchiver, error) {
	if opts.Endpoint == "" || opts.Bucket == "" {
		return nil, errors.New("minio endpoint and bucket are required")
	}

	client, err := minio.New(opts.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(opts.AccessKeyID, opts.SecretAccessKey, ""),
		Secure: opts.UseSSL,
		Region: opts.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, opts.Bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check if MinIO bucket '%s' exists: %w", opts.Bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, opts.Bucket, minio.MakeBucketOptions{Region: opts.Region}); err != nil {
			return nil, fmt.Errorf("failed to create MinIO bucket '%s': %w", opts.Bucket, err)
		}
		fwlog.Infof("Created MinIO bucket: %s", opts.Bucket)
	}

	return &MinioArchiver{client: client, bucketName: opts.Bucket}, nil
}

// Archive uploads content as objectName, tagged with mimeType.
func (m *MinioArchiver) Archive(ctx context.Context, objectName string, content []byte, mimeType string) error {
	if mimeType == "" {
		mimeType = DefaultMimeType
	}
	_, err := m.client.PutObject(ctx, m.bucketName, objectName, bytes.NewReader(content), int64(len(content)), minio.PutObjectOptions{
		ContentType: mimeType,
	})
	return err
}
