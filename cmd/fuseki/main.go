// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/internetofwater/fuseki/internal/config"
	"github.com/internetofwater/fuseki/internal/fuseki"
	"github.com/internetofwater/fuseki/internal/objects"
	"github.com/internetofwater/fuseki/internal/opentelemetry"

	"github.com/alexflint/go-arg"
	log "github.com/sirupsen/logrus"
	otelTrace "go.opentelemetry.io/otel/trace"
)

type EnsureCmd struct{}
type PingCmd struct{}
type ClearCmd struct{}
type ExampleCmd struct{}
type LoadCmd struct {
	Files []string `arg:"positional,required" help:"turtle, n-triples or json-ld files to load"`
}
type LoadPrefixCmd struct {
	Prefix string `arg:"positional" help:"prefix in the s3 bucket to load objects from"`
}
type QueryCmd struct {
	Query  string `arg:"positional,required" help:"the sparql query to run"`
	Output string `arg:"--output" help:"write the results to a .csv, .parquet or .json file instead of stdout"`
}
type UpdateCmd struct {
	Update string `arg:"positional,required" help:"the sparql update to run"`
}

type FusekiArgs struct {
	// Subcommands that can be run
	Ensure     *EnsureCmd     `arg:"subcommand:ensure" help:"make sure the dataset exists, creating it if needed"`
	Ping       *PingCmd       `arg:"subcommand:ping" help:"check that the fuseki server is reachable"`
	Clear      *ClearCmd      `arg:"subcommand:clear" help:"remove every triple from the dataset"`
	Load       *LoadCmd       `arg:"subcommand:load" help:"load rdf files into the dataset"`
	LoadPrefix *LoadPrefixCmd `arg:"subcommand:load-prefix" help:"load every rdf object under a prefix in the s3 bucket"`
	Query      *QueryCmd      `arg:"subcommand:query" help:"run a select query and print a table of results, or an ask query and print its boolean"`
	Update     *UpdateCmd     `arg:"subcommand:update" help:"run a sparql update"`
	Example    *ExampleCmd    `arg:"subcommand:example" help:"replace the dataset contents with a small example graph"`

	// Flags that can be set for config particular services / operations
	config.FusekiConfig
	config.MinioConfig

	// Flags that can be set which affect all operations
	LogLevel     string            `arg:"--log-level" default:"INFO"`
	ContextFiles map[string]string `arg:"--context-files" help:"json-ld context url to local file mapping; used for caching"`
	UseOtel      bool              `arg:"--use-otel"`
	OtelEndpoint string            `arg:"--otel-endpoint" help:"OpenTelemetry endpoint"`
}

type FusekiRunner struct {
	args FusekiArgs
	// where query results are printed
	out io.Writer
}

func NewFusekiRunner(cliArgs []string) FusekiRunner {
	args := FusekiArgs{}
	const dummyBinaryName = "fuseki" // we need to add some arbitrary binary name before the args; it doesn't matter
	os.Args = append([]string{dummyBinaryName}, cliArgs...)

	parser := arg.MustParse(&args)
	subCmd := parser.Subcommand()
	if subCmd == nil {
		log.Error("no subcommand provided")
		parser.WriteHelp(os.Stderr)
		os.Exit(1)
	}
	return FusekiRunner{
		args: args,
		out:  os.Stdout,
	}
}

// Run the subcommand. If httpClient is nil the default
// instrumented client is used
func (n FusekiRunner) Run(ctx context.Context, httpClient *http.Client) error {
	level, err := log.ParseLevel(n.args.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %s: %w", n.args.LogLevel, err)
	}
	log.SetLevel(level)

	if n.args.UseOtel || n.args.OtelEndpoint != "" {
		if n.args.OtelEndpoint == "" {
			n.args.OtelEndpoint = opentelemetry.DefaultTracingEndpoint
		}
		log.Infof("Starting opentelemetry traces and metrics and exporting to: %s", n.args.OtelEndpoint)
		if err := opentelemetry.InitTracer("fuseki", n.args.OtelEndpoint); err != nil {
			return err
		}
		if err := opentelemetry.InitMetrics(n.args.OtelEndpoint); err != nil {
			return err
		}
		var span otelTrace.Span
		argsAsStr := strings.Join(os.Args, "_")
		ctx, span = opentelemetry.SubSpanFromCtxWithName(ctx, argsAsStr)
		defer func() {
			if err := opentelemetry.Shutdown(context.Background()); err != nil {
				log.Errorf("Error shutting down opentelemetry: %v", err)
			}
		}()
		defer span.End()
	}

	if err := n.args.FusekiConfig.Validate(); err != nil {
		return err
	}

	client, ensured := fuseki.NewFusekiClient(ctx, n.args.FusekiConfig, httpClient)
	if len(n.args.ContextFiles) > 0 {
		if err := client.UseJsonldContextFiles(n.args.ContextFiles); err != nil {
			return err
		}
	}

	switch {
	case n.args.Ensure != nil:
		if !ensured.Ok() {
			return fmt.Errorf("dataset '%s' could not be provisioned: %w", ensured.Dataset, ensured.Err)
		}
		log.Infof("Dataset '%s' is %s", ensured.Dataset, ensured.State)
		return nil
	case n.args.Ping != nil:
		return client.Ping(ctx)
	case n.args.Clear != nil:
		return client.ClearDataset(ctx)
	case n.args.Load != nil:
		return client.LoadFiles(ctx, n.args.Load.Files)
	case n.args.LoadPrefix != nil:
		return loadPrefix(ctx, client, n.args.MinioConfig, n.args.LoadPrefix.Prefix)
	case n.args.Query != nil:
		return query(ctx, client, *n.args.Query, n.out)
	case n.args.Update != nil:
		return client.Update(ctx, n.args.Update.Update)
	case n.args.Example != nil:
		return client.SetupExampleGraph(ctx)
	default:
		return fmt.Errorf("unknown fuseki subcommand")
	}
}

func loadPrefix(ctx context.Context, client *fuseki.FusekiClient, minioConfig config.MinioConfig, prefix string) error {
	store, err := objects.NewMinioClientWrapper(minioConfig)
	if err != nil {
		return err
	}
	_, err = client.LoadObjects(ctx, store, prefix)
	return err
}

// the printed answer to an ask query
type askAnswer struct {
	Boolean bool `json:"boolean"`
}

func query(ctx context.Context, client *fuseki.FusekiClient, cmd QueryCmd, out io.Writer) error {
	if fuseki.IsUpdateOperation(cmd.Query) {
		return fmt.Errorf("query is an update; use the update subcommand instead")
	}

	var results *fuseki.SparqlResults
	err := client.Sparql(cmd.Query).Do(func(session *fuseki.QuerySession) error {
		var err error
		results, err = session.ExecuteAsStructuredResult(ctx)
		return err
	})
	if err != nil {
		return err
	}

	var printed any
	if results.Boolean != nil {
		if cmd.Output != "" {
			return fmt.Errorf("ask queries return a single boolean and cannot be exported to %s", cmd.Output)
		}
		printed = askAnswer{Boolean: *results.Boolean}
	} else {
		table := results.Table()
		if cmd.Output != "" {
			return fuseki.ExportTable(ctx, table, cmd.Output)
		}
		printed = table
	}

	encoder := json.NewEncoder(out)
	encoder.SetIndent("", "  ")
	return encoder.Encode(printed)
}

func main() {
	if err := NewFusekiRunner(os.Args[1:]).Run(context.Background(), nil); err != nil {
		log.Fatal(err)
	}
}
