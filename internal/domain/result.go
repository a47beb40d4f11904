package domain

import (
	"encoding/json"
	"fmt"
)

// FileRisks lists the distinct risk kinds found in one file
type FileRisks struct {
	Path  string
	Kinds []RiskKind
}

// MarshalJSON encodes the entry as a [path, [kinds...]] pair, the shape
// webhook receivers already consume.
func (f FileRisks) MarshalJSON() ([]byte, error) {
	kinds := f.Kinds
	if kinds == nil {
		kinds = []RiskKind{}
	}
	return json.Marshal([]any{f.Path, kinds})
}

// UnmarshalJSON decodes the [path, [kinds...]] pair.
func (f *FileRisks) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if len(raw) != 2 {
		return fmt.Errorf("file risks: expected [path, kinds], got %d elements", len(raw))
	}
	if err := json.Unmarshal(raw[0], &f.Path); err != nil {
		return err
	}
	return json.Unmarshal(raw[1], &f.Kinds)
}

// HasKind reports whether kind was found in the file
func (f FileRisks) HasKind(kind RiskKind) bool {
	for _, k := range f.Kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// ScanResult is the ordered set of files carrying at least one finding.
// It is built once per run and treated as read-only afterwards.
type ScanResult struct {
	Files []FileRisks
}

// Aggregate groups findings by file, keeping the order in which files and
// kinds were first seen and collapsing duplicate (path, kind) pairs.
func Aggregate(findings []Finding) *ScanResult {
	result := &ScanResult{}
	index := make(map[string]int)

	for _, f := range findings {
		i, ok := index[f.Path]
		if !ok {
			i = len(result.Files)
			index[f.Path] = i
			result.Files = append(result.Files, FileRisks{Path: f.Path})
		}
		if !result.Files[i].HasKind(f.Kind) {
			result.Files[i].Kinds = append(result.Files[i].Kinds, f.Kind)
		}
	}

	return result
}

// Empty returns true if no file carries a finding
func (r *ScanResult) Empty() bool {
	return r == nil || len(r.Files) == 0
}

// Len returns the number of flagged files
func (r *ScanResult) Len() int {
	if r == nil {
		return 0
	}
	return len(r.Files)
}

// FindingCount returns the number of (file, kind) pairs
func (r *ScanResult) FindingCount() int {
	if r == nil {
		return 0
	}
	count := 0
	for _, f := range r.Files {
		count += len(f.Kinds)
	}
	return count
}

// Findings flattens the result back into (file, kind) pairs in result order
func (r *ScanResult) Findings() []Finding {
	if r == nil {
		return nil
	}
	var out []Finding
	for _, f := range r.Files {
		for _, k := range f.Kinds {
			out = append(out, Finding{Path: f.Path, Kind: k})
		}
	}
	return out
}
