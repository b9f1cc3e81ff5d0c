package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inodb/geneval/internal/annotation"
	"github.com/inodb/geneval/internal/genome"
	"github.com/inodb/geneval/internal/store"
)

type loadOptions struct {
	exonFeature string
	cacheDir    string
	canonical   annotation.CanonicalOverrides
	logger      *zap.Logger
}

// withCanonical loads canonical transcript overrides from path into opts.
func (opts *loadOptions) withCanonical(path string) error {
	if path == "" {
		return nil
	}
	overrides, err := annotation.LoadCanonicalOverrides(path)
	if err != nil {
		return err
	}
	opts.logger.Info("loaded canonical overrides", zap.String("path", path), zap.Int("genes", len(overrides)))
	opts.canonical = overrides
	return nil
}

// loadAnnotation parses a GTF file, going through the region cache when a
// cache directory is configured. Canonical overrides change transcript order,
// so the cache is not used when they are set.
func loadAnnotation(ctx context.Context, path string, opts loadOptions) (annotation.Regions, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var (
		rc  *store.RegionCache
		src store.FileFingerprint
	)
	if opts.cacheDir != "" && len(opts.canonical) == 0 {
		fp, err := store.StatFile(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		src = fp
		rc = store.NewRegionCache(opts.cacheDir)
		if rc.Valid(src, opts.exonFeature) {
			regions, err := rc.Load(src, opts.exonFeature)
			if err == nil {
				opts.logger.Info("loaded cached annotation", zap.String("path", path))
				return annotation.Regions(regions), nil
			}
			opts.logger.Warn("region cache unreadable, reparsing", zap.String("path", path), zap.Error(err))
		}
	}

	loader := annotation.NewGTFLoader(path)
	loader.SetExonFeature(opts.exonFeature)
	loader.SetCanonicalOverrides(opts.canonical)
	loader.SetLogger(opts.logger)
	regions, err := loader.Load()
	if err != nil {
		return nil, err
	}
	opts.logger.Info("loaded annotation",
		zap.String("path", path),
		zap.Int("regions", len(regions)),
		zap.Int("genes", regions.GeneCount()))

	if rc != nil {
		if err := rc.Write(map[string]*genome.GenomicRegion(regions), src, opts.exonFeature); err != nil {
			opts.logger.Warn("could not write region cache", zap.String("path", path), zap.Error(err))
		}
	}
	return regions, nil
}

// loadInputs loads the truth and test annotations, and the genome sequence
// if fastaPath is set, concurrently. Sequences are attached to both sides.
func loadInputs(ctx context.Context, truthPath, testPath, fastaPath string, opts loadOptions) (truth, test annotation.Regions, err error) {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		truth, err = loadAnnotation(ctx, truthPath, opts)
		if err != nil {
			return fmt.Errorf("loading truth: %w", err)
		}
		return nil
	})
	sameFile := truthPath == testPath
	if !sameFile {
		g.Go(func() error {
			var err error
			test, err = loadAnnotation(ctx, testPath, opts)
			if err != nil {
				return fmt.Errorf("loading test: %w", err)
			}
			return nil
		})
	}

	var fasta *annotation.FASTALoader
	if fastaPath != "" {
		fasta = annotation.NewFASTALoader(fastaPath)
		fasta.SetLogger(opts.logger)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fasta.Load(); err != nil {
				return fmt.Errorf("loading sequence: %w", err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	if sameFile {
		test = copyRegions(truth)
	}

	if fasta != nil {
		if missing := fasta.Attach(truth); missing > 0 {
			opts.logger.Warn("truth regions without sequence", zap.Int("count", missing))
		}
		fasta.Attach(test)
	}
	return truth, test, nil
}

func copyRegions(regions annotation.Regions) annotation.Regions {
	out := make(annotation.Regions, len(regions))
	for name, reg := range regions {
		out[name] = reg.Copy()
	}
	return out
}
