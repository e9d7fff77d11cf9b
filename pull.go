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

import "context"

// Result holds the outcome of Pull. Exactly one of Rows or Table is set,
// depending on the asTable flag. When Table is set, the caller must Release
// it.
type Result struct {
	// Rows is the raw result set: one ordered value slice per row.
	Rows [][]any
	// Columns are the ordered column names from the query metadata.
	Columns []string
	// Table is the tabular form of the result set.
	Table *Table
}

// Pull opens a session, executes query, and returns the result either as a
// Table (asTable true) or as raw rows. The session is closed on every exit
// path; a Close failure never masks the original error.
func Pull(ctx context.Context, cfg Config, query string, asTable bool) (res *Result, err error) {
	conn := New(cfg)
	defer func() {
		if cerr := conn.Close(); cerr != nil && err == nil {
			if res != nil && res.Table != nil {
				res.Table.Release()
			}
			err = cerr
			res = nil
		}
	}()

	if err = conn.Open(ctx); err != nil {
		return nil, err
	}

	if asTable {
		tbl, tblErr := conn.QueryTable(ctx, query)
		if tblErr != nil {
			err = tblErr
			return nil, err
		}
		return &Result{Table: tbl, Columns: conn.Columns()}, nil
	}

	rows, rowsErr := conn.Execute(ctx, query)
	if rowsErr != nil {
		err = rowsErr
		return nil, err
	}
	return &Result{Rows: rows, Columns: conn.Columns()}, nil
}
