// Copyright 2025 Google LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package bqrest

import (
	"context"

	"google.golang.org/api/iterator"
)

// A RowIterator provides access to the result of a BigQuery lookup.
type RowIterator struct {
	ctx context.Context
	pf  pageFetcher

	// StartIndex can be set before the first call to Next. If PageInfo().Token
	// is also set, StartIndex is ignored.
	StartIndex uint64

	// The schema of the table. Available after Next is first called.
	Schema Schema

	// The total number of rows in the result. Available after Next is first called.
	TotalRows uint64

	pageInfo *iterator.PageInfo
	nextFunc func() error
	rows     []StructValue
}

type fetchPageResult struct {
	pageToken string
	rows      []StructValue
	totalRows uint64
	schema    Schema
}

// pageFetcher returns one page of rows.
type pageFetcher func(ctx context.Context, it *RowIterator, pageSize int, pageToken string) (*fetchPageResult, error)

func newRowIterator(ctx context.Context, pf pageFetcher) *RowIterator {
	it := &RowIterator{
		ctx: ctx,
		pf:  pf,
	}
	it.pageInfo, it.nextFunc = iterator.NewPageInfo(
		it.fetch,
		func() int { return len(it.rows) },
		func() interface{} { r := it.rows; it.rows = nil; return r })
	return it
}

// Next returns the next row, with fields named and ordered by Schema.
//
// Next returns iterator.Done when there are no more rows:
//
//	for {
//		row, err := it.Next()
//		if err == iterator.Done {
//			break
//		}
//		if err != nil {
//			// TODO: Handle error.
//		}
//		fmt.Println(row.Map())
//	}
func (it *RowIterator) Next() (StructValue, error) {
	if err := it.nextFunc(); err != nil {
		return nil, err
	}
	row := it.rows[0]
	it.rows = it.rows[1:]
	return row, nil
}

// PageInfo supports pagination. See the google.golang.org/api/iterator package for details.
func (it *RowIterator) PageInfo() *iterator.PageInfo { return it.pageInfo }

func (it *RowIterator) fetch(pageSize int, pageToken string) (string, error) {
	res, err := it.pf(it.ctx, it, pageSize, pageToken)
	if err != nil {
		return "", err
	}
	it.rows = append(it.rows, res.rows...)
	it.Schema = res.schema
	it.TotalRows = res.totalRows
	return res.pageToken, nil
}
