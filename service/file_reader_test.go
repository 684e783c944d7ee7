package service

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestFile(t *testing.T, dirPath, fileName, content string) string {
	t.Helper()
	filePath := filepath.Join(dirPath, fileName)
	require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0755))
	require.NoError(t, os.WriteFile(filePath, []byte(content), 0644))
	return filePath
}

func createTestDirectoryStructure(t *testing.T) string {
	tmpDir := t.TempDir()

	createTestFile(t, tmpDir, "Main.yaml", "class: Main\n")
	createTestFile(t, tmpDir, "Util.yml", "class: Util\n")
	createTestFile(t, tmpDir, "Loop.json", "{}")
	createTestFile(t, tmpDir, "README.md", "# Methods")
	createTestFile(t, tmpDir, "nested/Deep.yaml", "class: Deep\n")
	createTestFile(t, tmpDir, "nested/generated/Gen.yaml", "class: Gen\n")
	createTestFile(t, tmpDir, ".hidden/Hidden.yaml", "class: Hidden\n")
	createTestFile(t, tmpDir, "target/Built.yaml", "class: Built\n")

	return tmpDir
}

func relativeNames(t *testing.T, root string, files []string) []string {
	t.Helper()
	names := make([]string, 0, len(files))
	for _, f := range files {
		rel, err := filepath.Rel(root, f)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	sort.Strings(names)
	return names
}

func TestMethodFileReader_CollectMethodFiles(t *testing.T) {
	root := createTestDirectoryStructure(t)
	defaultInclude := []string{"**/*.yaml", "**/*.yml", "**/*.json"}

	tests := []struct {
		name            string
		recursive       bool
		includePatterns []string
		excludePatterns []string
		expected        []string
	}{
		{
			name:            "recursive with default patterns",
			recursive:       true,
			includePatterns: defaultInclude,
			expected: []string{
				"Loop.json", "Main.yaml", "Util.yml",
				"nested/Deep.yaml", "nested/generated/Gen.yaml",
			},
		},
		{
			name:            "non recursive",
			recursive:       false,
			includePatterns: defaultInclude,
			expected:        []string{"Loop.json", "Main.yaml", "Util.yml"},
		},
		{
			name:            "exclude directory with globstar",
			recursive:       true,
			includePatterns: defaultInclude,
			excludePatterns: []string{"nested/generated/**"},
			expected:        []string{"Loop.json", "Main.yaml", "Util.yml", "nested/Deep.yaml"},
		},
		{
			name:            "include only yaml",
			recursive:       true,
			includePatterns: []string{"**/*.yaml"},
			expected:        []string{"Main.yaml", "nested/Deep.yaml", "nested/generated/Gen.yaml"},
		},
		{
			name:            "exclude by base name",
			recursive:       true,
			includePatterns: defaultInclude,
			excludePatterns: []string{"Loop.*"},
			expected: []string{
				"Main.yaml", "Util.yml",
				"nested/Deep.yaml", "nested/generated/Gen.yaml",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reader := NewMethodFileReader()
			files, err := reader.CollectMethodFiles([]string{root}, tt.recursive, tt.includePatterns, tt.excludePatterns)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, relativeNames(t, root, files))
		})
	}
}

func TestMethodFileReader_ExplicitFiles(t *testing.T) {
	root := createTestDirectoryStructure(t)
	reader := NewMethodFileReader()

	main := filepath.Join(root, "Main.yaml")
	files, err := reader.CollectMethodFiles(
		[]string{main, main, filepath.Join(root, "README.md")},
		true, []string{"**/*.json"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{main}, files, "explicit files bypass include patterns and are deduplicated")
}

func TestMethodFileReader_MissingPath(t *testing.T) {
	reader := NewMethodFileReader()
	_, err := reader.CollectMethodFiles([]string{filepath.Join(t.TempDir(), "missing")}, true, nil, nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "FILE_NOT_FOUND")
}

func TestMethodFileReader_IsMethodFile(t *testing.T) {
	reader := NewMethodFileReader()

	tests := []struct {
		path     string
		expected bool
	}{
		{"Foo.yaml", true},
		{"Foo.YML", true},
		{"dir/Foo.json", true},
		{"Foo.class", false},
		{"Foo", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.expected, reader.IsMethodFile(tt.path))
		})
	}
}

func TestMethodFileReader_FileExistsAndRead(t *testing.T) {
	root := createTestDirectoryStructure(t)
	reader := NewMethodFileReader()

	exists, err := reader.FileExists(filepath.Join(root, "Main.yaml"))
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = reader.FileExists(filepath.Join(root, "nested"))
	require.NoError(t, err)
	assert.False(t, exists, "directories are not files")

	exists, err = reader.FileExists(filepath.Join(root, "nope.yaml"))
	require.NoError(t, err)
	assert.False(t, exists)

	content, err := reader.ReadFile(filepath.Join(root, "Main.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "class: Main\n", string(content))

	_, err = reader.ReadFile(filepath.Join(root, "nope.yaml"))
	assert.Error(t, err)
}

func TestMethodFileReader_ValidatePaths(t *testing.T) {
	root := createTestDirectoryStructure(t)
	reader := NewMethodFileReader()

	assert.NoError(t, reader.ValidatePaths([]string{root, filepath.Join(root, "Main.yaml")}))
	assert.Error(t, reader.ValidatePaths([]string{filepath.Join(root, "absent")}))
}
