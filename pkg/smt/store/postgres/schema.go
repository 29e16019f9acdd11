// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

package postgres

import (
	"context"

	"github.com/treestone/smtstore/pkg/smt/store"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS branches_map (
		height      INT NOT NULL,
		node_key    BYTEA NOT NULL,
		left_node   BYTEA NOT NULL,
		right_node  BYTEA NOT NULL,
		PRIMARY KEY (height, node_key)
	)`,
	`CREATE TABLE IF NOT EXISTS leaves_map (
		key     BYTEA PRIMARY KEY,
		value   BYTEA NOT NULL
	)`,
}

func (s *Store) ensureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		_, err := s.conn.Exec(ctx, stmt)
		if err != nil {
			return store.CodeBackend.WithFormat("create schema: %w", err)
		}
	}
	return nil
}

// Reset drops and recreates both tables, discarding all stored nodes. It
// exists for benchmarks and tests; prepared statements survive since they
// are re-planned against the new tables.
func (s *Store) Reset(ctx context.Context) error {
	for _, stmt := range []string{
		`DROP TABLE IF EXISTS branches_map`,
		`DROP TABLE IF EXISTS leaves_map`,
	} {
		_, err := s.conn.Exec(ctx, stmt)
		if err != nil {
			return store.CodeBackend.WithFormat("drop schema: %w", err)
		}
	}
	return s.ensureSchema(ctx)
}
