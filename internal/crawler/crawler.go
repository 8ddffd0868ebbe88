package crawler

import (
	"context"
	"io"
	"io/fs"
	"path/filepath"

	"documentor/internal/extractor"

	"github.com/sirupsen/logrus"
)

// Crawler scans a directory for source files.
type Crawler struct {
	extractors map[string]*extractor.Extractor
	ignored    map[string]bool
	log        logrus.FieldLogger
}

// NewCrawler creates a crawler that hands each supported file to the
// extractor for its language. extra names directories to skip in addition
// to the defaults.
func NewCrawler(log logrus.FieldLogger, extra ...string) (*Crawler, error) {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	c := &Crawler{
		extractors: make(map[string]*extractor.Extractor),
		ignored:    map[string]bool{".git": true, "vendor": true, "node_modules": true, "testdata": true},
		log:        log,
	}
	for _, name := range extra {
		c.ignored[name] = true
	}
	for _, lang := range []string{extractor.LangGo, extractor.LangPHP} {
		ext, err := extractor.NewExtractor(lang)
		if err != nil {
			return nil, err
		}
		c.extractors[lang] = ext
	}
	return c, nil
}

// ExtractFile runs the matching extractor on one file. Unsupported files
// yield no units.
func (c *Crawler) ExtractFile(ctx context.Context, path string) ([]*extractor.CodeUnit, error) {
	ext, ok := c.extractors[extractor.LanguageForPath(path)]
	if !ok {
		return nil, nil
	}
	return ext.ExtractFromFile(ctx, path)
}

// Ignores reports whether directories called name are skipped.
func (c *Crawler) Ignores(name string) bool {
	return c.ignored[name]
}

// ScanProject walks the root directory and processes all relevant files.
// It uses a callback to stream CodeUnits, preventing large memory buildup.
func (c *Crawler) ScanProject(ctx context.Context, root string, onUnit func(*extractor.CodeUnit)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && c.Ignores(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		units, err := c.ExtractFile(ctx, path)
		if err != nil {
			// Log and continue instead of failing the whole scan
			c.log.WithError(err).WithField("path", path).Warn("skipping unparsable file")
			return nil
		}

		for _, unit := range units {
			onUnit(unit)
		}
		return nil
	})
}
