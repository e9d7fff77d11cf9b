// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//   http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

package dbxpull

import (
	"crypto/tls"
	"crypto/x509"
	"database/sql/driver"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/apache/arrow-go/v18/arrow/memory"
	dbsql "github.com/databricks/databricks-sql-go"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultPort         = 443
	defaultRetryWaitMin = 1 * time.Second
	defaultRetryWaitMax = 30 * time.Second
)

// Config holds the parameters for a single warehouse session.
//
// Hostname, HTTPPath, and AccessToken are required unless Connector is set.
// The access token is a bearer credential and is never logged.
type Config struct {
	// Hostname is the workspace hostname, e.g. "adb-xxx.azuredatabricks.net".
	Hostname string
	// HTTPPath routes to a specific SQL warehouse,
	// e.g. "/sql/1.0/warehouses/xxx".
	HTTPPath string
	// AccessToken is a Databricks personal access token.
	AccessToken string

	// Port defaults to 443.
	Port int
	// Catalog and Schema optionally set the initial namespace for queries.
	Catalog string
	Schema  string

	// Query tuning, passed through to the underlying client. Retry
	// semantics are entirely the client's; this package adds none.
	QueryTimeout    time.Duration
	MaxRows         int
	RetryCount      int
	DownloadThreads int

	// TLS options. RootCertFile is a path to a PEM bundle for a custom CA.
	InsecureSkipVerify bool
	RootCertFile       string

	// Logger receives one diagnostic per failure plus success reports.
	// Defaults to a discard logger.
	Logger *slog.Logger
	// Tracer receives one span per operation. Defaults to a no-op tracer.
	Tracer trace.Tracer
	// Allocator is the Arrow allocator used to build tables. Defaults to
	// memory.DefaultAllocator.
	Allocator memory.Allocator

	// Connector overrides the connector built from the fields above.
	// Intended for custom transports and test doubles; when set, the
	// required-field validation is skipped.
	Connector driver.Connector
}

func (cfg *Config) validate() error {
	if cfg.Connector != nil {
		return nil
	}
	if cfg.Hostname == "" {
		return errorf(StatusInvalidConfig, "server hostname is required")
	}
	if cfg.HTTPPath == "" {
		return errorf(StatusInvalidConfig, "HTTP path is required")
	}
	if cfg.AccessToken == "" {
		return errorf(StatusInvalidConfig, "access token is required")
	}
	return nil
}

// connectionOptions translates the config into driver options.
func (cfg *Config) connectionOptions() ([]dbsql.ConnOption, error) {
	opts := []dbsql.ConnOption{
		dbsql.WithServerHostname(cfg.Hostname),
		dbsql.WithHTTPPath(cfg.HTTPPath),
		dbsql.WithAccessToken(cfg.AccessToken),
	}

	if cfg.Port != 0 {
		opts = append(opts, dbsql.WithPort(cfg.Port))
	} else {
		opts = append(opts, dbsql.WithPort(defaultPort))
	}

	if cfg.Catalog != "" || cfg.Schema != "" {
		opts = append(opts, dbsql.WithInitialNamespace(cfg.Catalog, cfg.Schema))
	}

	if cfg.QueryTimeout > 0 {
		opts = append(opts, dbsql.WithTimeout(cfg.QueryTimeout))
	}
	if cfg.MaxRows > 0 {
		opts = append(opts, dbsql.WithMaxRows(cfg.MaxRows))
	}
	if cfg.RetryCount > 0 {
		opts = append(opts, dbsql.WithRetries(cfg.RetryCount, defaultRetryWaitMin, defaultRetryWaitMax))
	}
	if cfg.DownloadThreads > 0 {
		opts = append(opts, dbsql.WithMaxDownloadThreads(cfg.DownloadThreads))
	}

	if cfg.InsecureSkipVerify || cfg.RootCertFile != "" {
		tlsConfig := &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: cfg.InsecureSkipVerify,
		}
		if cfg.RootCertFile != "" {
			caCert, err := os.ReadFile(cfg.RootCertFile)
			if err != nil {
				return nil, wrapError(err, StatusInvalidConfig, "failed to read root certificate")
			}
			pool := x509.NewCertPool()
			if !pool.AppendCertsFromPEM(caCert) {
				return nil, errorf(StatusInvalidConfig, "failed to parse root certificate %s", cfg.RootCertFile)
			}
			tlsConfig.RootCAs = pool
		}
		opts = append(opts, dbsql.WithTransport(&http.Transport{TLSClientConfig: tlsConfig}))
	}

	return opts, nil
}
