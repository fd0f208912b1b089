// Package model defines core data structures for fnmap.
package model

// FunctionRecord describes one function-like construct found in a source file.
// Name is nil when the construct has no discoverable name.
type FunctionRecord struct {
	Name      *string  `json:"name"`
	Params    []string `json:"params"`
	Variables []string `json:"variables"`
}

// FileReport holds the function records of a single source file, in
// pre-order traversal order.
type FileReport struct {
	Path      string // Relative to the scanned root, slash-separated
	Language  string
	Functions []FunctionRecord
}

// AnalysisResult is the complete analysis of a directory tree, ready for
// serialization. Files are kept in directory-walk order.
type AnalysisResult struct {
	Root  string
	Files []FileReport
}

// FunctionCount returns the total number of records across all files.
func (a *AnalysisResult) FunctionCount() int {
	n := 0
	for i := range a.Files {
		n += len(a.Files[i].Functions)
	}
	return n
}

// StringPtr returns a pointer to s. It exists for building records in tests
// and extractors.
func StringPtr(s string) *string {
	return &s
}
