package service

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/ludo-technologies/bcflow/domain"
)

// methodFileExtensions are the extensions accepted as method files
var methodFileExtensions = []string{".yaml", ".yml", ".json"}

// MethodFileReaderImpl implements the MethodFileReader interface
type MethodFileReaderImpl struct{}

// NewMethodFileReader creates a new method file reader service
func NewMethodFileReader() *MethodFileReaderImpl {
	return &MethodFileReaderImpl{}
}

// CollectMethodFiles finds all method files in the given paths. Files named
// explicitly are always kept; files found in directories must match the
// include patterns and none of the exclude patterns.
func (f *MethodFileReaderImpl) CollectMethodFiles(paths []string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string
	seen := make(map[string]bool)

	add := func(path string) {
		clean := filepath.Clean(path)
		if !seen[clean] {
			seen[clean] = true
			files = append(files, clean)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}

		if info.IsDir() {
			dirFiles, err := f.collectFromDirectory(path, recursive, includePatterns, excludePatterns)
			if err != nil {
				return nil, err
			}
			for _, file := range dirFiles {
				add(file)
			}
		} else if f.IsMethodFile(path) {
			add(path)
		}
	}

	return files, nil
}

// ReadFile reads the content of a file
func (f *MethodFileReaderImpl) ReadFile(path string) ([]byte, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.NewFileNotFoundError(path, err)
	}
	return content, nil
}

// IsMethodFile checks if a file has a method file extension
func (f *MethodFileReaderImpl) IsMethodFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range methodFileExtensions {
		if ext == e {
			return true
		}
	}
	return false
}

// FileExists checks if a file exists
func (f *MethodFileReaderImpl) FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !info.IsDir(), nil
}

// collectFromDirectory collects method files from a directory
func (f *MethodFileReaderImpl) collectFromDirectory(dirPath string, recursive bool, includePatterns, excludePatterns []string) ([]string, error) {
	var files []string

	walkFunc := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			// Unreadable entries are skipped
			return nil
		}

		if path == dirPath {
			return nil
		}

		if info.IsDir() && !recursive {
			return filepath.SkipDir
		}

		// Skip hidden directories and files
		if strings.HasPrefix(info.Name(), ".") {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if info.IsDir() && f.shouldSkipDirectory(info.Name()) {
			return filepath.SkipDir
		}

		if !info.IsDir() && f.IsMethodFile(path) {
			rel, relErr := filepath.Rel(dirPath, path)
			if relErr != nil {
				rel = path
			}
			if f.shouldIncludeFile(filepath.ToSlash(rel), includePatterns, excludePatterns) {
				files = append(files, path)
			}
		}

		return nil
	}

	if err := filepath.Walk(dirPath, walkFunc); err != nil {
		return nil, fmt.Errorf("failed to walk directory %s: %w", dirPath, err)
	}

	return files, nil
}

// shouldIncludeFile checks a slash separated relative path against the
// include and exclude globs. Patterns may use ** to cross directories.
func (f *MethodFileReaderImpl) shouldIncludeFile(relPath string, includePatterns, excludePatterns []string) bool {
	base := filepath.Base(relPath)

	for _, pattern := range excludePatterns {
		if globMatch(pattern, relPath) || globMatch(pattern, base) {
			return false
		}
	}

	if len(includePatterns) == 0 {
		return true
	}

	for _, pattern := range includePatterns {
		if globMatch(pattern, relPath) || globMatch(pattern, base) {
			return true
		}
	}

	return false
}

func globMatch(pattern, path string) bool {
	matched, err := doublestar.Match(pattern, path)
	return err == nil && matched
}

// shouldSkipDirectory checks if a directory should be skipped entirely
func (f *MethodFileReaderImpl) shouldSkipDirectory(dirName string) bool {
	skipDirs := []string{
		".git",
		".svn",
		".hg",
		"node_modules",
		"vendor",
		"target",
		"build",
		"out",
	}

	dirLower := strings.ToLower(dirName)
	for _, skipDir := range skipDirs {
		if dirLower == skipDir {
			return true
		}
	}

	return false
}

// ValidatePaths validates that all provided paths exist and are accessible
func (f *MethodFileReaderImpl) ValidatePaths(paths []string) error {
	for _, path := range paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return domain.NewFileNotFoundError(path, err)
			}
			return domain.NewInvalidInputError(fmt.Sprintf("cannot access path: %s", path), err)
		}
	}
	return nil
}
