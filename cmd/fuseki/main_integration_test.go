// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/internetofwater/fuseki/internal/fuseki"
	"github.com/internetofwater/fuseki/internal/objects"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type FusekiCliSuite struct {
	suite.Suite
	fusekiContainer fuseki.FusekiContainer
	minioContainer  objects.MinioContainer
}

func (suite *FusekiCliSuite) SetupSuite() {
	fusekiContainer, err := fuseki.NewFusekiContainer("admin")
	suite.Require().NoError(err)
	suite.fusekiContainer = fusekiContainer

	minioContainer, err := objects.NewMinioContainer(objects.MinioContainerConfig{
		Username:      "minioadmin",
		Password:      "minioadmin",
		DefaultBucket: "iow",
	})
	suite.Require().NoError(err)
	suite.minioContainer = minioContainer
}

func (suite *FusekiCliSuite) TearDownSuite() {
	fusekiC := *suite.fusekiContainer.Container
	suite.Require().NoError(fusekiC.Terminate(context.Background()))
	minioC := *suite.minioContainer.Container
	suite.Require().NoError(minioC.Terminate(context.Background()))
}

// cli args pointing at both containers for the dataset
func (suite *FusekiCliSuite) args(dataset string, args ...string) []string {
	return append(args,
		"--host", suite.fusekiContainer.Config.Host,
		"--port", fmt.Sprint(suite.fusekiContainer.Config.Port),
		"--dataset", dataset,
		"--s3-address", suite.minioContainer.Hostname,
		"--s3-port", fmt.Sprint(suite.minioContainer.APIPort),
		"--bucket", suite.minioContainer.ClientWrapper.DefaultBucket,
	)
}

func (suite *FusekiCliSuite) countTriples(dataset string) int {
	runner := NewFusekiRunner(suite.args(dataset, "query", "SELECT * WHERE { ?s ?p ?o }"))
	var out bytes.Buffer
	runner.out = &out
	suite.Require().NoError(runner.Run(context.Background(), nil))

	var table fuseki.Table
	suite.Require().NoError(json.Unmarshal(out.Bytes(), &table))
	return len(table.Rows)
}

func (suite *FusekiCliSuite) TestEnsureThenPing() {
	t := suite.T()
	require.NoError(t, NewFusekiRunner(suite.args("cli_ensure", "ensure")).Run(context.Background(), nil))
	require.NoError(t, NewFusekiRunner(suite.args("cli_ensure", "ensure")).Run(context.Background(), nil))
	require.NoError(t, NewFusekiRunner(suite.args("cli_ensure", "ping")).Run(context.Background(), nil))
}

func (suite *FusekiCliSuite) TestExampleThenClear() {
	t := suite.T()
	require.NoError(t, NewFusekiRunner(suite.args("cli_example", "example")).Run(context.Background(), nil))
	require.Equal(t, 6, suite.countTriples("cli_example"))

	require.NoError(t, NewFusekiRunner(suite.args("cli_example", "update", `INSERT DATA { <http://x/a> <http://x/p> "a" }`)).Run(context.Background(), nil))
	require.Equal(t, 7, suite.countTriples("cli_example"))

	require.NoError(t, NewFusekiRunner(suite.args("cli_example", "clear")).Run(context.Background(), nil))
	require.Equal(t, 0, suite.countTriples("cli_example"))
}

func (suite *FusekiCliSuite) TestLoadPrefixFromS3() {
	t := suite.T()
	ctx := context.Background()
	store := suite.minioContainer.ClientWrapper

	require.NoError(t, store.Store(ctx, "rdf/a.ttl", strings.NewReader(`<http://x/a> <http://x/p> "a" .`)))
	require.NoError(t, store.Store(ctx, "rdf/b.nt", strings.NewReader(`<http://x/b> <http://x/p> "b" .`)))
	require.NoError(t, store.Store(ctx, "rdf/notes.txt", strings.NewReader("skipped")))
	require.NoError(t, store.Store(ctx, "unrelated/c.ttl", strings.NewReader(`<http://x/c> <http://x/p> "c" .`)))

	require.NoError(t, NewFusekiRunner(suite.args("cli_s3", "load-prefix", "rdf/")).Run(ctx, nil))
	require.Equal(t, 2, suite.countTriples("cli_s3"))
}

func TestFusekiCliSuite(t *testing.T) {
	suite.Run(t, new(FusekiCliSuite))
}
