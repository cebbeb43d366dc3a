package loader

import (
	"errors"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"labdata/formats"
	"labdata/internal/files"
)

// OpenAll constructs Loaders for several files concurrently. Handlers
// are stateless, so parallel parses are safe. Files fail or succeed
// independently: the returned slice holds the successful Loaders in
// input order and the error joins every per-file failure.
func OpenAll(paths []string, opts ...Option) ([]*Loader, error) {
	// Share one registry across the batch instead of rebuilding the
	// default set per file.
	var probe options
	for _, opt := range opts {
		opt(&probe)
	}
	if probe.registry == nil {
		opts = append(opts, WithRegistry(formats.NewDefaultRegistry(probe.cfg)))
	}

	results := make([]*Loader, len(paths))
	errs := make([]error, len(paths))

	g := new(errgroup.Group)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			l, err := Open(path, opts...)
			if err != nil {
				errs[i] = fmt.Errorf("%s: %w", path, err)
				return nil
			}
			results[i] = l
			return nil
		})
	}
	// Errors are collected per file; Wait only synchronizes.
	_ = g.Wait()

	loaders := make([]*Loader, 0, len(paths))
	for _, l := range results {
		if l != nil {
			loaders = append(loaders, l)
		}
	}
	return loaders, errors.Join(errs...)
}

// OpenDir opens every recognizable data file in a directory, in name
// order.
func OpenDir(dir string, opts ...Option) ([]*Loader, error) {
	found, err := files.NewDiscovery("").FindDataFiles(dir)
	if err != nil {
		return nil, err
	}

	paths := make([]string, len(found))
	for i, f := range found {
		paths[i] = f.Path
	}
	return OpenAll(paths, opts...)
}
