// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Package sqlite persists tree nodes in a SQLite database, using the same
// two-table layout as the postgres backend. The driver is pure Go, so this
// backend doubles as the way to exercise the relational mapping in tests
// without a server.
package sqlite

import (
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS branches_map (
		height      INTEGER NOT NULL,
		node_key    BLOB NOT NULL,
		left_node   BLOB NOT NULL,
		right_node  BLOB NOT NULL,
		PRIMARY KEY (height, node_key)
	)`,
	`CREATE TABLE IF NOT EXISTS leaves_map (
		key     BLOB PRIMARY KEY,
		value   BLOB NOT NULL
	)`,
}

// Store is a SQLite-backed smt store.
type Store struct {
	db        *sql.DB
	newHasher smt.NewHasher

	getBranch    *sql.Stmt
	getLeaf      *sql.Stmt
	insertBranch *sql.Stmt
	insertLeaf   *sql.Stmt
	removeBranch *sql.Stmt
	removeLeaf   *sql.Stmt
}

var _ store.Store = (*Store)(nil)

// Open opens or creates the database at path and prepares the statements.
func Open(path string, newHasher smt.NewHasher) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, store.CodeBackend.WithFormat("open %q: %w", path, err)
	}

	// The database/sql pool would hand concurrent calls separate
	// connections, losing the single-session model. Pin it to one.
	db.SetMaxOpenConns(1)

	s := &Store{db: db, newHasher: newHasher}
	err = s.init()
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) init() error {
	for _, stmt := range schema {
		_, err := s.db.Exec(stmt)
		if err != nil {
			return store.CodeBackend.WithFormat("create schema: %w", err)
		}
	}

	for _, stmt := range []struct {
		dst **sql.Stmt
		sql string
	}{
		{&s.getBranch, `SELECT left_node, right_node FROM branches_map WHERE height = ? AND node_key = ?`},
		{&s.getLeaf, `SELECT value FROM leaves_map WHERE key = ?`},
		{&s.insertBranch, `INSERT INTO branches_map (height, node_key, left_node, right_node)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (height, node_key) DO UPDATE SET left_node = excluded.left_node, right_node = excluded.right_node`},
		{&s.insertLeaf, `INSERT INTO leaves_map (key, value) VALUES (?, ?)
			ON CONFLICT (key) DO UPDATE SET value = excluded.value`},
		{&s.removeBranch, `DELETE FROM branches_map WHERE height = ? AND node_key = ?`},
		{&s.removeLeaf, `DELETE FROM leaves_map WHERE key = ?`},
	} {
		var err error
		*stmt.dst, err = s.db.Prepare(stmt.sql)
		if err != nil {
			return store.CodeBackend.WithFormat("prepare: %w", err)
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	return store.CodeBackend.Wrap(s.db.Close())
}

// GetBranch returns the branch stored at key, or nil if there is none.
func (s *Store) GetBranch(key smt.BranchKey) (*smt.BranchNode, error) {
	if err := store.ValidateBranchKey(key); err != nil {
		return nil, err
	}

	var rawLeft, rawRight []byte
	err := s.getBranch.QueryRow(key.Height, key.NodeKey[:]).Scan(&rawLeft, &rawRight)
	switch {
	case errors.Is(err, sql.ErrNoRows):
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
	var raw []byte
	err := s.getLeaf.QueryRow(key[:]).Scan(&raw)
	switch {
	case errors.Is(err, sql.ErrNoRows):
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

// InsertBranch upserts the branch at key.
func (s *Store) InsertBranch(key smt.BranchKey, node smt.BranchNode) error {
	if err := store.ValidateBranchKey(key); err != nil {
		return err
	}

	left := node.Left.Hash(s.newHasher)
	right := node.Right.Hash(s.newHasher)
	_, err := s.insertBranch.Exec(key.Height, key.NodeKey[:], left[:], right[:])
	if err != nil {
		return store.CodeBackend.WithFormat("insert branch: %w", err)
	}
	return nil
}

// InsertLeaf upserts the value at the leaf key.
func (s *Store) InsertLeaf(key, value smt.H256) error {
	_, err := s.insertLeaf.Exec(key[:], value[:])
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

	_, err := s.removeBranch.Exec(key.Height, key.NodeKey[:])
	if err != nil {
		return store.CodeBackend.WithFormat("remove branch: %w", err)
	}
	return nil
}

// RemoveLeaf deletes the leaf at key if present.
func (s *Store) RemoveLeaf(key smt.H256) error {
	_, err := s.removeLeaf.Exec(key[:])
	if err != nil {
		return store.CodeBackend.WithFormat("remove leaf: %w", err)
	}
	return nil
}
