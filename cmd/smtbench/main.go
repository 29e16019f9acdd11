// Copyright 2025 The Smtstore Authors
//
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file or at
// https://opensource.org/licenses/MIT.

// Smtbench measures the throughput of the store backends with synthetic
// branch and leaf workloads.
package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/treestone/smtstore/pkg/smt"
	"github.com/treestone/smtstore/pkg/smt/store"
	"github.com/treestone/smtstore/pkg/smt/store/badger"
	"github.com/treestone/smtstore/pkg/smt/store/memory"
	"github.com/treestone/smtstore/pkg/smt/store/postgres"
	"github.com/treestone/smtstore/pkg/smt/store/sqlite"
)

var cmd = &cobra.Command{
	Use:   "smtbench",
	Short: "Benchmark sparse Merkle tree stores",
	Args:  cobra.NoArgs,
	RunE:  run,
}

var flag = struct {
	Store  string
	Count  int
	Dir    string
	DSN    string
	Hasher string
	Reset  bool
}{}

func init() {
	cmd.Flags().StringVarP(&flag.Store, "store", "s", "memory", "Backend to benchmark: memory, badger, sqlite, or postgres")
	cmd.Flags().IntVarP(&flag.Count, "count", "n", 10000, "Number of branches and leaves to write")
	cmd.Flags().StringVar(&flag.Dir, "dir", "", "Data directory for badger and sqlite (default: a temporary directory)")
	cmd.Flags().StringVar(&flag.DSN, "dsn", "", "PostgreSQL connection string")
	cmd.Flags().StringVar(&flag.Hasher, "hasher", "blake2b", "Merge hash: blake2b or sha256")
	cmd.Flags().BoolVar(&flag.Reset, "reset", false, "Drop and recreate the PostgreSQL tables first")
}

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
	err := cmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func newHasher() (smt.NewHasher, error) {
	switch flag.Hasher {
	case "blake2b":
		return smt.Blake2b256Hasher, nil
	case "sha256":
		return smt.SHA256Hasher, nil
	default:
		return nil, fmt.Errorf("unknown hasher %q", flag.Hasher)
	}
}

func dataDir() (string, error) {
	if flag.Dir != "" {
		return flag.Dir, nil
	}
	return os.MkdirTemp("", "smtbench-*")
}

func openStore(ctx context.Context, hasher smt.NewHasher) (store.Store, error) {
	switch flag.Store {
	case "memory":
		return memory.New(hasher), nil

	case "badger":
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		return badger.Open(dir, hasher)

	case "sqlite":
		dir, err := dataDir()
		if err != nil {
			return nil, err
		}
		return sqlite.Open(filepath.Join(dir, "smtbench.db"), hasher)

	case "postgres":
		if flag.DSN == "" {
			return nil, fmt.Errorf("--dsn is required for the postgres store")
		}
		s, err := postgres.Open(ctx, flag.DSN, hasher)
		if err != nil {
			return nil, err
		}
		if flag.Reset {
			err = s.Reset(ctx)
			if err != nil {
				_ = s.Close()
				return nil, err
			}
		}
		return s, nil

	default:
		return nil, fmt.Errorf("unknown store %q", flag.Store)
	}
}

func run(cc *cobra.Command, _ []string) error {
	cc.SilenceUsage = true

	hasher, err := newHasher()
	if err != nil {
		return err
	}

	ctx := context.Background()
	s, err := openStore(ctx, hasher)
	if err != nil {
		return err
	}
	if c, ok := s.(io.Closer); ok {
		defer func() {
			err := c.Close()
			if err != nil {
				slog.Error("Failed to close store", "error", err)
			}
		}()
	}
	slog.Info("Opened store", "store", flag.Store, "count", flag.Count, "hasher", flag.Hasher)

	keys := make([]smt.H256, flag.Count)
	branchKeys := make([]smt.BranchKey, flag.Count)
	for i := range keys {
		_, err := io.ReadFull(rand.Reader, keys[i][:])
		if err != nil {
			return err
		}
		branchKeys[i] = smt.BranchKey{Height: i % 256, NodeKey: keys[i]}
	}

	err = measure("insert leaf", flag.Count, func(i int) error {
		return s.InsertLeaf(keys[i], keys[(i+1)%len(keys)])
	})
	if err != nil {
		return err
	}

	err = measure("insert branch", flag.Count, func(i int) error {
		return s.InsertBranch(branchKeys[i], smt.BranchNode{
			Left:  smt.MergeValueFromH256(keys[i]),
			Right: smt.MergeWithZero(keys[i], keys[(i+1)%len(keys)], byte(i)),
		})
	})
	if err != nil {
		return err
	}

	err = measure("get leaf", flag.Count, func(i int) error {
		v, err := s.GetLeaf(keys[i])
		if err == nil && v == nil {
			return fmt.Errorf("leaf %v missing", keys[i])
		}
		return err
	})
	if err != nil {
		return err
	}

	err = measure("get branch", flag.Count, func(i int) error {
		n, err := s.GetBranch(branchKeys[i])
		if err == nil && n == nil {
			return fmt.Errorf("branch (%d, %v) missing", branchKeys[i].Height, branchKeys[i].NodeKey)
		}
		return err
	})
	if err != nil {
		return err
	}

	err = measure("remove leaf", flag.Count, func(i int) error {
		return s.RemoveLeaf(keys[i])
	})
	if err != nil {
		return err
	}

	return measure("remove branch", flag.Count, func(i int) error {
		return s.RemoveBranch(branchKeys[i])
	})
}

func measure(name string, count int, op func(i int) error) error {
	start := time.Now()
	for i := 0; i < count; i++ {
		err := op(i)
		if err != nil {
			return fmt.Errorf("%s %d: %w", name, i, err)
		}
	}
	elapsed := time.Since(start)
	slog.Info("Measured", "op", name, "total", elapsed.Round(time.Millisecond),
		"per_op", (elapsed / time.Duration(count)).Round(time.Microsecond),
		"ops_per_sec", int(float64(count)/elapsed.Seconds()))
	return nil
}
