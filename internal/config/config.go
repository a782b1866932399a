// Copyright 2025 Lincoln Institute of Land Policy
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"time"
)

// The connection config for a fuseki server and the dataset
// that all operations are run against
type FusekiConfig struct {
	Host     string `arg:"--host,env:FUSEKI_HOST" help:"hostname of the fuseki server" default:"fuseki"`
	Port     int    `arg:"--port" help:"port of the fuseki server" default:"3030"`
	Dataset  string `arg:"--dataset" help:"the dataset to load into and query against" default:"sample-dataset"`
	Username string `arg:"--username,env:FUSEKI_USERNAME" help:"username for basic auth; leave empty to disable auth" default:"admin"`
	Password string `arg:"--password,env:FUSEKI_PASSWORD" help:"password for basic auth; leave empty to disable auth" default:"admin"`
	// the storage type used when the dataset needs to be created
	DbType string `arg:"--db-type" help:"storage type for newly created datasets (tdb2, tdb, mem)" default:"tdb2"`
	// timeout applied to every http request
	Timeout time.Duration `arg:"--timeout" help:"timeout for each request to fuseki" default:"90s"`
	// number of retries for calls against the admin api
	AdminRetries int `arg:"--admin-retries" help:"retries for dataset listing and creation" default:"3"`
}

// The config for minio/s3 operations
type MinioConfig struct {
	Address   string `arg:"--s3-address" help:"The address of the s3 server" default:"127.0.0.1"`
	Port      int    `arg:"--s3-port" default:"9000"`
	Accesskey string `arg:"--s3-access-key,env:S3_ACCESS_KEY" help:"Access Key (i.e. username)" default:"minioadmin"` // Access Key (i.e. username)
	Secretkey string `arg:"--s3-secret-key,env:S3_SECRET_KEY" help:"Secret Key (i.e. password)" default:"minioadmin"` // Secret Key (i.e. password)
	Bucket    string `arg:"--bucket" help:"The s3 bucket holding rdf objects to load" default:"iow"`
	Region    string `arg:"--region" help:"region for the s3 server"`
	SSL       bool   `arg:"--ssl" help:"Use SSL when connecting to s3"`
}

// Return a fresh config holding the defaults of a local
// fuseki docker deployment
func DefaultFusekiConfig() FusekiConfig {
	return FusekiConfig{
		Host:         "fuseki",
		Port:         3030,
		Dataset:      "sample-dataset",
		Username:     "admin",
		Password:     "admin",
		DbType:       "tdb2",
		Timeout:      90 * time.Second,
		AdminRetries: 3,
	}
}

// The url of the server without any dataset
func (c FusekiConfig) BaseUrl() string {
	return fmt.Sprintf("http://%s:%d", c.Host, c.Port)
}

// The url of the dataset; both queries and updates are sent here
func (c FusekiConfig) DatasetUrl() string {
	return fmt.Sprintf("%s/%s", c.BaseUrl(), c.Dataset)
}

// The url of the admin api for listing and creating datasets
func (c FusekiConfig) AdminDatasetsUrl() string {
	return c.BaseUrl() + "/$/datasets"
}

func (c FusekiConfig) PingUrl() string {
	return c.BaseUrl() + "/$/ping"
}

// Basic auth is only applied when both a username and password are set
func (c FusekiConfig) Authenticate() bool {
	return c.Username != "" && c.Password != ""
}

// An error for a config that can never connect
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid fuseki config for %s: %s", e.Field, e.Reason)
}

// Validate checks for values that would make every request fail.
// Constructing a config never calls this; it is up to the caller
func (c FusekiConfig) Validate() error {
	if c.Host == "" {
		return &ConfigurationError{Field: "host", Reason: "must not be empty"}
	}
	if c.Port <= 0 || c.Port > 65535 {
		return &ConfigurationError{Field: "port", Reason: fmt.Sprintf("%d is not a valid tcp port", c.Port)}
	}
	if c.Dataset == "" {
		return &ConfigurationError{Field: "dataset", Reason: "must not be empty"}
	}
	if c.AdminRetries < 0 {
		return &ConfigurationError{Field: "admin-retries", Reason: "must not be negative"}
	}
	return nil
}
