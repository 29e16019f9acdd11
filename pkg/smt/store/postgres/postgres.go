// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package postgres persists tree nodes in two PostgreSQL tables, one keyed
// by (height, node key) for branches and one keyed by leaf key for leaves.
//
// A Store wraps a single exclusive connection and prepares one statement
// per operation at open. It provides no internal locking: a store shared
// across goroutines must be guarded by the caller. Every call carries a
// timeout; expiry surfaces as a backend error and the caller is free to
// retry on a fresh connection.
package postgres

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
)

// Statement names, prepared once per connection.
const (
	stmtGetBranch    = "smt_get_branch"
	stmtGetLeaf      = "smt_get_leaf"
	stmtInsertBranch = "smt_insert_branch"
	stmtInsertLeaf   = "smt_insert_leaf"
	stmtRemoveBranch = "smt_remove_branch"
	stmtRemoveLeaf   = "smt_remove_leaf"
)

var statements = map[string]string{
	stmtGetBranch: `SELECT left_node, right_node FROM branches_map WHERE height = $1 AND node_key = $2`,
	stmtGetLeaf:   `SELECT value FROM leaves_map WHERE key = $1`,
	stmtInsertBranch: `INSERT INTO branches_map (height, node_key, left_node, right_node)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (height, node_key) DO UPDATE SET left_node = EXCLUDED.left_node, right_node = EXCLUDED.right_node`,
	stmtInsertLeaf: `INSERT INTO leaves_map (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
	stmtRemoveBranch: `DELETE FROM branches_map WHERE height = $1 AND node_key = $2`,
	stmtRemoveLeaf:   `DELETE FROM leaves_map WHERE key = $1`,
}

// Store is a PostgreSQL-backed smt store over one exclusive connection.
type Store struct {
	opts
	conn      *pgx.Conn
	newHasher smt.NewHasher
}

var _ store.Store = (*Store)(nil)

type opts struct {
	timeout time.Duration
}

type Option func(*opts)

// WithTimeout sets the per-operation timeout. The default is 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(o *opts) { o.timeout = d }
}

// Open connects to dsn, ensures the schema exists, and prepares the
// statements. The store reduces merge values with newHasher on every
// branch write.
func Open(ctx context.Context, dsn string, newHasher smt.NewHasher, o ...Option) (*Store, error) {
	s := &Store{opts: opts{timeout: 5 * time.Second}, newHasher: newHasher}
	for _, o := range o {
		o(&s.opts)
	}

	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return nil, store.CodeBackend.WithFormat("connect: %w", err)
	}
	s.conn = conn

	err = s.ensureSchema(ctx)
	if err == nil {
		err = s.prepare(ctx)
	}
	if err != nil {
		_ = conn.Close(ctx)
		return nil, err
	}

	mDbOpen.Inc()
	slog.Debug("Opened store", "module", "postgres", "database", conn.Config().Database)
	return s, nil
}

func (s *Store) prepare(ctx context.Context) error {
	for name, sql := range statements {
		_, err := s.conn.Prepare(ctx, name, sql)
		if err != nil {
			return store.CodeBackend.WithFormat("prepare %s: %w", name, err)
		}
	}
	return nil
}

// Close closes the connection. The store must not be used afterwards.
func (s *Store) Close() error {
	ctx, cancel := s.opCtx()
	defer cancel()
	err := s.conn.Close(ctx)
	if err != nil {
		return store.CodeBackend.Wrap(err)
	}
	mDbOpen.Dec()
	return nil
}

func (s *Store) opCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.timeout)
}

// GetBranch returns the branch stored at key, or nil if there is none.
func (s *Store) GetBranch(key smt.BranchKey) (*smt.BranchNode, error) {
	if err := store.ValidateBranchKey(key); err != nil {
		return nil, err
	}
	mOps.WithLabelValues("get_branch").Inc()

	ctx, cancel := s.opCtx()
	defer cancel()

	var rawLeft, rawRight []byte
	err := s.conn.QueryRow(ctx, stmtGetBranch, int32(key.Height), key.NodeKey[:]).Scan(&rawLeft, &rawRight)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, store.CodeBackend.WithFormat("get branch: %w", err)
	}

	left, ok := smt.H256FromSlice(rawLeft)
	if !ok {
		return nil, store.CodeCorruption.WithFormat("branch (%d, %v): left node is %d bytes, want 32", key.Height, key.NodeKey, len(rawLeft))
	}
	right, ok := smt.H256FromSlice(rawRight)
	if !ok {
		return nil, store.CodeCorruption.WithFormat("branch (%d, %v): right node is %d bytes, want 32", key.Height, key.NodeKey, len(rawRight))
	}

	return &smt.BranchNode{
		Left:  smt.MergeValueFromH256(left),
		Right: smt.MergeValueFromH256(right),
	}, nil
}

// GetLeaf returns the value stored at the leaf key, or nil if there is
// none.
func (s *Store) GetLeaf(key smt.H256) (*smt.H256, error) {
	mOps.WithLabelValues("get_leaf").Inc()

	ctx, cancel := s.opCtx()
	defer cancel()

	var raw []byte
	err := s.conn.QueryRow(ctx, stmtGetLeaf, key[:]).Scan(&raw)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return nil, nil
	case err != nil:
		return nil, store.CodeBackend.WithFormat("get leaf: %w", err)
	}

	value, ok := smt.H256FromSlice(raw)
	if !ok {
		return nil, store.CodeCorruption.WithFormat("leaf %v: value is %d bytes, want 32", key, len(raw))
	}
	return &value, nil
}

// InsertBranch upserts the branch at key. The row is written atomically:
// a concurrent reader sees either the old pair of children or the new
// pair, never a mix.
func (s *Store) InsertBranch(key smt.BranchKey, node smt.BranchNode) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}
	mOps.WithLabelValues("insert_branch").Inc()

	ctx, cancel := s.opCtx()
	defer cancel()

	left := node.Left.Hash(s.newHasher)
	right := node.Right.Hash(s.newHasher)
	_, err := s.conn.Exec(ctx, stmtInsertBranch, int32(key.Height), key.NodeKey[:], left[:], right[:])
	if err != nil {
		return store.CodeBackend.WithFormat("insert branch: %w", err)
	}
	return nil
}

// InsertLeaf upserts the value at the leaf key.
func (s *Store) InsertLeaf(key, value smt.H256) error {
	mOps.WithLabelValues("insert_leaf").Inc()

	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.conn.Exec(ctx, stmtInsertLeaf, key[:], value[:])
	if err != nil {
		return store.CodeBackend.WithFormat("insert leaf: %w", err)
	}
	return nil
}

// RemoveBranch deletes the branch at key if present.
func (s *Store) RemoveBranch(key smt.BranchKey) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}
	mOps.WithLabelValues("remove_branch").Inc()

	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.conn.Exec(ctx, stmtRemoveBranch, int32(key.Height), key.NodeKey[:])
	if err != nil {
		return store.CodeBackend.WithFormat("remove branch: %w", err)
	}
	return nil
}

// RemoveLeaf deletes the leaf at key if present.
func (s *Store) RemoveLeaf(key smt.H256) error {
	mOps.WithLabelValues("remove_leaf").Inc()

	ctx, cancel := s.opCtx()
	defer cancel()

	_, err := s.conn.Exec(ctx, stmtRemoveLeaf, key[:])
	if err != nil {
		return store.CodeBackend.WithFormat("remove leaf: %w", err)
	}
	return nil
}
