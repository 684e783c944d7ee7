package app

import "github.com/ludo-technologies/bcflow/domain"

// ResolveFilePaths resolves the method files to structure.
// If every path is already a method file, the paths are returned as given.
// Otherwise method files are collected from the paths using the filters.
//
// validateMethodFile additionally requires each path to carry a method file
// extension before it is accepted as-is.
func ResolveFilePaths(
	fileReader domain.MethodFileReader,
	paths []string,
	recursive bool,
	includePatterns []string,
	excludePatterns []string,
	validateMethodFile bool,
) ([]string, error) {
	allFiles := len(paths) > 0
	for _, path := range paths {
		if validateMethodFile && !fileReader.IsMethodFile(path) {
			allFiles = false
			break
		}

		// FileExists is true only for regular files
		exists, err := fileReader.FileExists(path)
		if err != nil || !exists {
			allFiles = false
			break
		}
	}

	if allFiles {
		return paths, nil
	}

	return fileReader.CollectMethodFiles(
		paths,
		recursive,
		includePatterns,
		excludePatterns,
	)
}
