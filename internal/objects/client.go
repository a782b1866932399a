// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package objects

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/internetofwater/fuseki/internal/config"
	"github.com/internetofwater/fuseki/internal/fuseki"
	"github.com/internetofwater/fuseki/internal/opentelemetry"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	log "github.com/sirupsen/logrus"
)

var _ fuseki.RdfObjectStore = (*MinioClientWrapper)(nil)

// Wrapper to allow us to extend the minio client struct with new methods
type MinioClientWrapper struct {
	// Base client for accessing minio
	Client *minio.Client
	// Default bucket to use for operations.
	// Specified here to avoid having to pass it as a parameter to every operation
	// since rdf is only ever loaded from one bucket
	DefaultBucket string
}

type S3Prefix = string

// Set up minio and initialize client
func NewMinioClientWrapper(mcfg config.MinioConfig) (*MinioClientWrapper, error) {

	var endpoint string
	if mcfg.Port == 0 {
		endpoint = mcfg.Address
	} else {
		endpoint = fmt.Sprintf("%s:%d", mcfg.Address, mcfg.Port)
	}

	options := &minio.Options{
		Creds:  credentials.NewStaticV4(mcfg.Accesskey, mcfg.Secretkey, ""),
		Secure: mcfg.SSL,
	}
	if mcfg.Region == "" {
		log.Info("Minio client created with no region set")
	} else {
		options.Region = mcfg.Region
	}

	minioClient, err := minio.New(endpoint, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client for %s: %w", endpoint, err)
	}
	return &MinioClientWrapper{Client: minioClient, DefaultBucket: mcfg.Bucket}, nil
}

// Create the default bucket
func (m *MinioClientWrapper) MakeDefaultBucket() error {
	exists, err := m.Client.BucketExists(context.Background(), m.DefaultBucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return m.Client.MakeBucket(context.Background(), m.DefaultBucket, minio.MakeBucketOptions{})
}

// Return every object under the prefix in the default bucket
func (m *MinioClientWrapper) ObjectList(ctx context.Context, prefix S3Prefix) ([]minio.ObjectInfo, error) {
	ctx, span := opentelemetry.SubSpanFromCtx(ctx)
	defer span.End()

	objectInfo := []minio.ObjectInfo{}
	objectCh := m.Client.ListObjects(ctx, m.DefaultBucket,
		minio.ListObjectsOptions{Prefix: prefix, Recursive: true})
	for object := range objectCh {
		if object.Err != nil {
			return nil, object.Err
		}
		objectInfo = append(objectInfo, object)
	}
	log.Debugf("%s:%s object count: %d", m.DefaultBucket, prefix, len(objectInfo))
	return objectInfo, nil
}

// Return the names of every object under the prefix in lexical order
// so loads are repeatable
func (m *MinioClientWrapper) ObjectNames(ctx context.Context, prefix S3Prefix) ([]string, error) {
	objectInfo, err := m.ObjectList(ctx, prefix)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(objectInfo))
	for _, object := range objectInfo {
		names = append(names, object.Key)
	}
	sort.Strings(names)
	return names, nil
}

func (m *MinioClientWrapper) GetObjectAsBytes(ctx context.Context, objectName S3Prefix) ([]byte, error) {
	fileObject, err := m.Client.GetObject(ctx, m.DefaultBucket, objectName, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = fileObject.Close() }()

	stat, err := fileObject.Stat()
	if err != nil {
		log.Infof("Issue with reading an object. Seems to not exist in bucket: %s and name: %s", m.DefaultBucket, objectName)
		return nil, err
	}

	buf := make([]byte, stat.Size) // Preallocate buffer
	if _, err := io.ReadFull(fileObject, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Upload a local file to the bucket at the specified remote path
func (m *MinioClientWrapper) UploadFile(ctx context.Context, uploadPath S3Prefix, localFileName string) error {
	file, err := os.Open(localFileName)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	return m.Store(ctx, uploadPath, file)
}

// Store bytes into the minio store
func (m *MinioClientWrapper) Store(ctx context.Context, path S3Prefix, data io.Reader) error {
	_, err := m.Client.PutObject(ctx, m.DefaultBucket, path, data, -1, minio.PutObjectOptions{})
	return err
}

// Remove an object from the store
func (m *MinioClientWrapper) Remove(ctx context.Context, object S3Prefix) error {
	opts := minio.RemoveObjectOptions{
		GovernanceBypass: true,
	}
	return m.Client.RemoveObject(ctx, m.DefaultBucket, object, opts)
}
