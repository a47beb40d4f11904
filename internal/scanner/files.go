package scanner

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"unicode/utf8"

	"github.com/aifoundary/aifoundary/internal/domain"
	"github.com/aifoundary/aifoundary/internal/patterns"
	"golang.org/x/sync/errgroup"
)

// ErrRootUnreadable is returned when the scan root itself cannot be walked
var ErrRootUnreadable = errors.New("scan root unreadable")

// DefaultExtensions lists the file suffixes scanned when none are configured
var DefaultExtensions = []string{".py", ".js", ".ts"}

// Scanner applies a detector registry to every eligible file in a tree
type Scanner struct {
	logger   *log.Logger
	registry *patterns.Registry
	workers  int
}

// New creates a new Scanner. workers <= 0 means 2 * NumCPU.
func New(registry *patterns.Registry, workers int, logger *log.Logger) *Scanner {
	if workers <= 0 {
		workers = 2 * runtime.NumCPU()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{logger: logger, registry: registry, workers: workers}
}

// Scan walks rootPath and returns the files whose content matches at least
// one detector. Files that cannot be read are skipped.
func (s *Scanner) Scan(ctx context.Context, rootPath string, extensions []string) (*domain.ScanResult, error) {
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	files, err := s.FindFiles(rootPath, extensions)
	if err != nil {
		return nil, err
	}

	// Indexed by walk position so completion order never affects the result
	perFile := make([][]domain.RiskKind, len(files))

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, path := range files {
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			perFile[i] = s.scanFile(path)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var findings []domain.Finding
	for i, kinds := range perFile {
		for _, k := range kinds {
			findings = append(findings, domain.Finding{Path: files[i], Kind: k})
		}
	}

	return domain.Aggregate(findings), nil
}

// FindFiles recursively lists files under rootPath whose names end with one
// of extensions, in lexical walk order.
func (s *Scanner) FindFiles(rootPath string, extensions []string) ([]string, error) {
	info, err := os.Stat(rootPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRootUnreadable, err)
	}
	if !info.IsDir() {
		if HasEligibleSuffix(filepath.Base(rootPath), extensions) {
			return []string{rootPath}, nil
		}
		return nil, nil
	}

	// A trailing separator makes WalkDir resolve a symlinked root
	walkRoot := rootPath
	if linfo, err := os.Lstat(rootPath); err == nil && linfo.Mode()&fs.ModeSymlink != 0 {
		walkRoot = rootPath + string(filepath.Separator)
	}

	var files []string
	visited := make(map[string]struct{})

	err = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == walkRoot {
				return fmt.Errorf("%w: %v", ErrRootUnreadable, err)
			}
			if d != nil && d.IsDir() {
				s.logger.Printf("Warning: skipping directory %s: %v", path, err)
				return filepath.SkipDir
			}
			return nil // Skip entries we can't access
		}

		clean := filepath.Clean(path)
		if _, seen := visited[clean]; seen {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		visited[clean] = struct{}{}

		// WalkDir reports directory symlinks as non-directories and never descends into them
		if d.IsDir() {
			return nil
		}

		if HasEligibleSuffix(d.Name(), extensions) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return files, nil
}

// HasEligibleSuffix performs a literal, case-sensitive suffix check
func HasEligibleSuffix(name string, extensions []string) bool {
	for _, ext := range extensions {
		if ext != "" && strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

func (s *Scanner) scanFile(path string) []domain.RiskKind {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	if !utf8.Valid(content) {
		content = []byte(strings.ToValidUTF8(string(content), string(utf8.RuneError)))
	}
	return s.registry.Match(content)
}
