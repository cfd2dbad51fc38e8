package dataset

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"ga4dash/adapters/excel"
	"ga4dash/domain/core"
	"ga4dash/domain/mart"
	"ga4dash/internal"

	"golang.org/x/sync/errgroup"
)

// StoreConfig configures where mart tables are read from
type StoreConfig struct {
	// Candidates are directories searched in order for mart.ProbeFile
	Candidates []string
	// Workbook, when set, is an .xlsx file with one sheet per mart and takes
	// precedence over Candidates
	Workbook string
	// Concurrency bounds how many files are read at once
	Concurrency int
}

// Store is the read-through cache of mart tables. Tables are read once on
// first access and kept for the lifetime of the Store.
type Store struct {
	config StoreConfig
	logger *internal.Logger

	mu      sync.Mutex
	loaded  bool
	source  string
	loadAt  time.Time
	tables  map[core.MartKey]*mart.Table
	skipped map[core.MartKey]string
}

// NewStore creates a store; nothing is read until first access
func NewStore(config StoreConfig, logger *internal.Logger) *Store {
	if config.Concurrency < 1 {
		config.Concurrency = 1
	}
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Store{config: config, logger: logger}
}

// NewStaticStore wraps already materialized tables, mainly for tests and
// for callers that produce tables themselves
func NewStaticStore(source string, tables ...*mart.Table) *Store {
	s := NewStore(StoreConfig{}, nil)
	s.loaded = true
	s.source = source
	s.loadAt = time.Now()
	s.tables = make(map[core.MartKey]*mart.Table, len(tables))
	for _, t := range tables {
		s.tables[t.Name] = t
	}
	return s
}

// Locate returns the first candidate directory containing probe
func Locate(candidates []string, probe string) (string, error) {
	for _, dir := range candidates {
		info, err := os.Stat(filepath.Join(dir, probe))
		if err == nil && !info.IsDir() {
			return dir, nil
		}
	}
	return "", fmt.Errorf("%w: %s not found in %v", core.ErrDataDirNotFound, probe, candidates)
}

// Load reads the tables if they have not been read yet
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil
	}
	return s.loadLocked(ctx)
}

// Reload discards cached tables and reads them again
func (s *Store) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	return s.loadLocked(ctx)
}

// Source returns the directory or workbook the tables were read from
func (s *Store) Source(ctx context.Context) (string, error) {
	if err := s.Load(ctx); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.source, nil
}

// Table returns one mart table
func (s *Store) Table(ctx context.Context, key core.MartKey) (*mart.Table, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tables[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrMartNotFound, key)
	}
	return t, nil
}

// LoadedAt returns when the tables were last read; zero before the first load
func (s *Store) LoadedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAt
}

// Has reports whether key was loaded, without surfacing load errors
func (s *Store) Has(ctx context.Context, key core.MartKey) bool {
	_, err := s.Table(ctx, key)
	return err == nil
}

// Available lists the loaded marts in sorted order
func (s *Store) Available(ctx context.Context) ([]core.MartKey, error) {
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	keys := make([]core.MartKey, 0, len(s.tables))
	for k := range s.tables {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys, nil
}

// Skipped returns the marts that could not be read and why
func (s *Store) Skipped() map[core.MartKey]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[core.MartKey]string, len(s.skipped))
	for k, v := range s.skipped {
		out[k] = v
	}
	return out
}

func (s *Store) loadLocked(ctx context.Context) error {
	start := time.Now()

	source, readers, err := s.resolveReaders()
	if err != nil {
		s.logger.Warn("[MartStore] %v", err)
		return err
	}

	tables := make(map[core.MartKey]*mart.Table, len(readers))
	skipped := make(map[core.MartKey]string)
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)
	for key, reader := range readers {
		key, reader := key, reader
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			table, err := reader.ReadTable(key)
			resultsMu.Lock()
			defer resultsMu.Unlock()
			if err != nil {
				// A missing or unreadable mart hides its dashboard section only
				s.logger.Warn("[MartStore] skipping %s: %v", key, err)
				skipped[key] = err.Error()
				return nil
			}
			tables[key] = table
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("loading marts from %s: %w", source, err)
	}

	s.tables = tables
	s.skipped = skipped
	s.source = source
	s.loadAt = time.Now()
	s.loaded = true
	s.logger.Info("[MartStore] loaded %d/%d marts from %s in %s", len(tables), len(readers), source, time.Since(start).Round(time.Millisecond))
	return nil
}

func (s *Store) resolveReaders() (string, map[core.MartKey]*excel.DataReader, error) {
	readers := make(map[core.MartKey]*excel.DataReader, len(mart.Files))

	if s.config.Workbook != "" {
		if _, err := os.Stat(s.config.Workbook); err != nil {
			return "", nil, fmt.Errorf("%w: workbook %s", core.ErrDataDirNotFound, s.config.Workbook)
		}
		for key := range mart.Files {
			readers[key] = excel.NewDataReader(s.config.Workbook).WithLogger(s.logger)
		}
		return s.config.Workbook, readers, nil
	}

	dir, err := Locate(s.config.Candidates, mart.ProbeFile)
	if err != nil {
		return "", nil, err
	}
	for key, file := range mart.Files {
		readers[key] = excel.NewDataReader(filepath.Join(dir, file)).WithLogger(s.logger)
	}
	return dir, readers, nil
}
