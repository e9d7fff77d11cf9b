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

// Package dbxpull pulls query results out of a Databricks SQL warehouse.
//
// It is a small convenience layer over the official Databricks SQL driver
// (github.com/databricks/databricks-sql-go): open a session, run a query,
// fetch all rows, and optionally reshape them into an Arrow record with
// named columns for downstream analysis.
//
// A Connection owns exactly one session and must not be shared across
// goroutines. For one-shot use, Pull opens a session, executes a single
// query, and guarantees the session is closed on every exit path:
//
//	res, err := dbxpull.Pull(ctx, dbxpull.Config{
//	    Hostname:    "adb-1234567890.7.azuredatabricks.net",
//	    HTTPPath:    "/sql/1.0/warehouses/abcdef1234567890",
//	    AccessToken: os.Getenv("DATABRICKS_TOKEN"),
//	}, "SELECT * FROM samples.nyctaxi.trips LIMIT 100", true)
package dbxpull
