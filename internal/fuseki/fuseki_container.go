// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package fuseki

import (
	"context"
	"fmt"

	"github.com/internetofwater/fuseki/internal/config"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

type FusekiContainer struct {
	Container *testcontainers.Container
	// config pointing at the mapped port of the container
	Config config.FusekiConfig
}

// Spin up a local fuseki container with the admin password set.
// No dataset exists until a client creates one
func NewFusekiContainer(adminPassword string) (FusekiContainer, error) {
	ctx := context.Background()
	req := testcontainers.ContainerRequest{
		Image:        "stain/jena-fuseki",
		ExposedPorts: []string{"3030/tcp"},
		Env: map[string]string{
			"ADMIN_PASSWORD": adminPassword,
		},
		WaitingFor: wait.ForHTTP("/$/ping").WithPort("3030/tcp"),
	}
	fusekiC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return FusekiContainer{}, fmt.Errorf("generic container: %w", err)
	}

	port, err := fusekiC.MappedPort(ctx, "3030/tcp")
	if err != nil {
		return FusekiContainer{}, err
	}
	host, err := fusekiC.Host(ctx)
	if err != nil {
		return FusekiContainer{}, err
	}

	conf := config.DefaultFusekiConfig()
	conf.Host = host
	conf.Port = port.Int()
	conf.Password = adminPassword

	return FusekiContainer{Container: &fusekiC, Config: conf}, nil
}

// A config for the named dataset on this container
func (c FusekiContainer) DatasetConfig(dataset string) config.FusekiConfig {
	conf := c.Config
	conf.Dataset = dataset
	return conf
}
