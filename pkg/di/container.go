// Package di provides dependency injection container
package di

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/ssargent/nvrecord/pkg/config"
	"github.com/ssargent/nvrecord/pkg/metrics"
	"github.com/ssargent/nvrecord/pkg/persist"
	"github.com/ssargent/nvrecord/pkg/store"
)

// Options carries the ambient dependencies handed to every adapter
type Options struct {
	Logger  *slog.Logger
	Metrics *metrics.Recorder
}

// Backend is an opened store together with the adapter bound to it
type Backend struct {
	Name    string
	Adapter persist.Adapter
	Flat    *persist.FlatAdapter // set for the flat backend
	KV      *persist.KVAdapter   // set for the kv backend

	eraser  namespaceEraser
	closers []io.Closer
}

type namespaceEraser interface {
	EraseNamespace(namespace string) error
}

// EraseNamespace removes every record of the kv backend's namespace
func (b *Backend) EraseNamespace() error {
	if b.KV == nil || b.eraser == nil {
		return fmt.Errorf("erase is only supported by the %s backend", config.BackendKV)
	}
	return b.eraser.EraseNamespace(b.KV.Namespace())
}

// Close releases the underlying store
func (b *Backend) Close() error {
	var errs []error
	for _, c := range b.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// BackendFactory opens the backend described by a configuration
type BackendFactory interface {
	Open(cfg *config.Config, opts Options) (*Backend, error)
}

type backendFactory struct{}

// NewBackendFactory returns the factory that opens real stores
func NewBackendFactory() BackendFactory {
	return backendFactory{}
}

func (backendFactory) Open(cfg *config.Config, opts Options) (*Backend, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case config.BackendFlat:
		return openFlat(cfg.Flat, opts)
	default:
		return openKV(cfg.KV, opts)
	}
}

func openFlat(cfg config.Flat, opts Options) (*Backend, error) {
	backend := &Backend{Name: config.BackendFlat}

	var flat store.FlatStore
	if cfg.Path == "" {
		flat = store.NewMemoryFlatStore(cfg.SectorSize)
	} else {
		fileStore, err := store.OpenFileFlatStore(store.FlatStoreConfig{Path: cfg.Path, SectorSize: cfg.SectorSize})
		if err != nil {
			return nil, err
		}
		flat = fileStore
		backend.closers = append(backend.closers, fileStore)
	}

	backend.Flat = persist.NewFlatAdapter(flat, persist.FlatAdapterConfig{
		MaxUsedSize: cfg.MaxUsedSize,
		Logger:      opts.Logger,
		Metrics:     opts.Metrics,
	})
	backend.Adapter = backend.Flat
	return backend, nil
}

func openKV(cfg config.KV, opts Options) (*Backend, error) {
	backend := &Backend{Name: config.BackendKV}
	storeConfig := store.KVStoreConfig{Path: cfg.Path, QuotaBytes: cfg.QuotaBytes}

	var kv store.KVStore
	switch cfg.Engine {
	case config.EnginePebble:
		pebbleStore, err := store.OpenPebbleKVStore(storeConfig)
		if err != nil {
			return nil, err
		}
		kv, backend.eraser = pebbleStore, pebbleStore
		backend.closers = append(backend.closers, pebbleStore)
	case config.EngineSQLite:
		sqliteStore, err := store.OpenSQLiteKVStore(storeConfig)
		if err != nil {
			return nil, err
		}
		kv, backend.eraser = sqliteStore, sqliteStore
		backend.closers = append(backend.closers, sqliteStore)
	default:
		quota := cfg.QuotaBytes
		if quota == 0 {
			quota = store.DefaultMemoryQuota
		}
		memoryStore := store.NewMemoryKVStore(quota)
		kv, backend.eraser = memoryStore, memoryStore
	}

	backend.KV = persist.NewKVAdapter(kv, persist.KVAdapterConfig{
		Namespace: cfg.Namespace,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	})
	backend.Adapter = backend.KV
	return backend, nil
}

// Container holds all the dependencies for the application
type Container struct {
	backendFactory BackendFactory
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	return &Container{
		backendFactory: NewBackendFactory(),
	}
}

// GetBackendFactory returns the backend factory
func (c *Container) GetBackendFactory() BackendFactory {
	return c.backendFactory
}

// SetBackendFactory allows overriding the backend factory (for testing)
func (c *Container) SetBackendFactory(factory BackendFactory) {
	c.backendFactory = factory
}
