// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package objects

import (
	"context"
	"fmt"

	"github.com/internetofwater/fuseki/internal/config"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// A struct to represent the minio container
type MinioContainer struct {
	// the container itself. used for testcontainer cleanup
	Container *testcontainers.Container
	Hostname  string
	APIPort   int
	// the client wrapper pointing at this container
	ClientWrapper *MinioClientWrapper
	// the config needed to connect to the container from the cli
	Config config.MinioConfig
}

type MinioContainerConfig struct {
	// the username for the minio container
	Username string
	// the password for the minio container
	Password string
	// the name of the default bucket in minio for all operations
	DefaultBucket string
}

// Spin up a local minio container and create its default bucket
func NewMinioContainer(containerConfig MinioContainerConfig) (MinioContainer, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		WaitingFor:   wait.ForHTTP("/minio/health/live").WithPort("9000"),
		Env: map[string]string{
			"MINIO_ROOT_USER":     containerConfig.Username,
			"MINIO_ROOT_PASSWORD": containerConfig.Password,
		},
		Cmd: []string{"server", "/data"},
	}

	genericContainer, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return MinioContainer{}, fmt.Errorf("generic container: %w", err)
	}

	hostname, err := genericContainer.Host(ctx)
	if err != nil {
		return MinioContainer{}, fmt.Errorf("get hostname: %w", err)
	}

	apiPort, err := genericContainer.MappedPort(ctx, "9000/tcp")
	if err != nil {
		return MinioContainer{}, fmt.Errorf("get api port: %w", err)
	}

	minioConfig := config.MinioConfig{
		Address:   hostname,
		Port:      apiPort.Int(),
		Accesskey: containerConfig.Username,
		Secretkey: containerConfig.Password,
		Bucket:    containerConfig.DefaultBucket,
	}
	wrapper, err := NewMinioClientWrapper(minioConfig)
	if err != nil {
		return MinioContainer{}, err
	}
	if err := wrapper.MakeDefaultBucket(); err != nil {
		return MinioContainer{}, fmt.Errorf("make bucket: %w", err)
	}

	return MinioContainer{
		Container:     &genericContainer,
		ClientWrapper: wrapper,
		Hostname:      hostname,
		APIPort:       apiPort.Int(),
		Config:        minioConfig,
	}, nil
}
