package roster

import (
	"sync"
)

// FileResult is the outcome of reading one roster file.
type FileResult struct {
	Path   string
	Result *ImportResult
	Err    error
}

// ReadFiles reads every file concurrently, one goroutine per file. The
// results are returned in the order of paths.
func ReadFiles(paths []string, opts Options) []FileResult {
	var wg sync.WaitGroup
	results := make([]FileResult, len(paths))

	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()
			result, err := Read(path, opts)
			results[i] = FileResult{Path: path, Result: result, Err: err}
		}(i, path)
	}

	wg.Wait()
	return results
}
