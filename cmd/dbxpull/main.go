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

// Command dbxpull runs a single query against a Databricks SQL warehouse
// and prints the result.
//
//	dbxpull -query "SELECT * FROM samples.nyctaxi.trips LIMIT 100" \
//	    -hostname adb-xxx.azuredatabricks.net \
//	    -http-path /sql/1.0/warehouses/xxx
//
// The access token is read from -token or the DATABRICKS_TOKEN environment
// variable. Hostname and HTTP path fall back to DATABRICKS_HOST and
// DATABRICKS_HTTP_PATH.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dataglue/dbxpull"
)

const previewRows = 10

func main() {
	hostname := flag.String("hostname", os.Getenv("DATABRICKS_HOST"), "workspace hostname")
	httpPath := flag.String("http-path", os.Getenv("DATABRICKS_HTTP_PATH"), "SQL warehouse HTTP path")
	token := flag.String("token", os.Getenv("DATABRICKS_TOKEN"), "personal access token")
	catalog := flag.String("catalog", "", "optional catalog name")
	schema := flag.String("schema", "", "optional schema name")
	query := flag.String("query", "", "SQL query to execute")
	format := flag.String("format", "table", "output format: table or rows")
	timeout := flag.Duration("timeout", 5*time.Minute, "query timeout")
	maxRows := flag.Int("max-rows", 0, "max rows per fetch batch (0 = driver default)")
	verbose := flag.Bool("v", false, "enable debug logging")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "dbxpull: -query is required")
		flag.Usage()
		os.Exit(2)
	}
	if *format != "table" && *format != "rows" {
		fmt.Fprintf(os.Stderr, "dbxpull: invalid -format %q (expected table or rows)\n", *format)
		os.Exit(2)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	cfg := dbxpull.Config{
		Hostname:     *hostname,
		HTTPPath:     *httpPath,
		AccessToken:  *token,
		Catalog:      *catalog,
		Schema:       *schema,
		QueryTimeout: *timeout,
		MaxRows:      *maxRows,
		Logger:       logger,
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	res, err := dbxpull.Pull(ctx, cfg, *query, *format == "table")
	if err != nil {
		logger.Error("pull failed", "error", err)
		os.Exit(1)
	}

	if res.Table != nil {
		defer res.Table.Release()
		fmt.Printf("columns: %v\n", res.Table.ColumnNames())
		fmt.Printf("rows: %d\n", res.Table.NumRows())
		head := res.Table.Head(previewRows)
		defer head.Release()
		for i, name := range head.ColumnNames() {
			fmt.Printf("%s: %v\n", name, head.Record().Column(i))
		}
		return
	}

	fmt.Printf("columns: %v\n", res.Columns)
	fmt.Printf("rows: %d\n", len(res.Rows))
	for _, row := range res.Rows {
		fmt.Println(row...)
	}
}
