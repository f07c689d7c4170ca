package jotdb

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Env manages a directory of databases, one subdirectory each. Open handles
// are cached in an LRU; eviction closes the handle, so handles are owned by
// the Env and must not be used after Env.Close.
type Env struct {
	root string
	opt  EnvOptions

	mu     sync.Mutex
	open   *lru.Cache[string, *DB]
	closed bool
}

type EnvOptions struct {
	// MaxOpen bounds the number of simultaneously open databases (16 by
	// default).
	MaxOpen   int
	Backend   Backend
	Logger    *slog.Logger
	IsTesting bool
}

func OpenEnv(root string, opt EnvOptions) (*Env, error) {
	if err := os.MkdirAll(root, 0777); err != nil {
		return nil, err
	}
	if opt.MaxOpen <= 0 {
		opt.MaxOpen = 16
	}
	cache, err := lru.NewWithEvict(opt.MaxOpen, func(name string, db *DB) {
		_ = db.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Env{root: root, opt: opt, open: cache}, nil
}

// List returns the names of all databases under the root, sorted.
func (env *Env) List() ([]string, error) {
	entries, err := os.ReadDir(env.root)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Open returns the named database, opening (and creating) it if needed.
func (env *Env) Open(name string) (*DB, error) {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.closed {
		return nil, ErrClosed
	}
	if name == "" || name != filepath.Base(name) {
		return nil, fmt.Errorf("invalid database name %q", name)
	}
	if db, ok := env.open.Get(name); ok {
		return db, nil
	}
	db, err := Open(filepath.Join(env.root, name), Options{
		Backend:   env.opt.Backend,
		Logger:    env.opt.Logger,
		IsTesting: env.opt.IsTesting,
	})
	if err != nil {
		return nil, err
	}
	env.open.Add(name, db)
	return db, nil
}

// Create is Open under a name that is expected not to exist yet; it is not
// an error if it does.
func (env *Env) Create(name string) (*DB, error) {
	return env.Open(name)
}

// Close closes every cached database handle.
func (env *Env) Close() error {
	env.mu.Lock()
	defer env.mu.Unlock()
	if env.closed {
		return nil
	}
	env.closed = true
	env.open.Purge()
	return nil
}
