package manifest

import (
	"path"
	"slices"
)

// ChangeSet lists the paths that differ between two file tables.
type ChangeSet struct {
	Added    []string `json:"added"`
	Modified []string `json:"modified"`
	Deleted  []string `json:"deleted"`
}

// NewChangeSet creates an empty ChangeSet.
func NewChangeSet() *ChangeSet {
	return &ChangeSet{
		Added:    []string{},
		Modified: []string{},
		Deleted:  []string{},
	}
}

// Diff compares an old file table against a new one. An entry is
// modified when its hash or its size changed.
func Diff(oldFiles, newFiles map[string]FileEntry) *ChangeSet {
	cs := NewChangeSet()

	for p, newEntry := range newFiles {
		oldEntry, exists := oldFiles[p]
		if !exists {
			cs.Added = append(cs.Added, p)
			continue
		}
		if oldEntry != newEntry {
			cs.Modified = append(cs.Modified, p)
		}
	}

	for p := range oldFiles {
		if _, exists := newFiles[p]; !exists {
			cs.Deleted = append(cs.Deleted, p)
		}
	}

	cs.sort()
	return cs
}

// IsEmpty returns true if there are no changes.
func (cs *ChangeSet) IsEmpty() bool {
	if cs == nil {
		return true
	}
	return len(cs.Added) == 0 && len(cs.Modified) == 0 && len(cs.Deleted) == 0
}

// TotalChanges returns the total number of changed files.
func (cs *ChangeSet) TotalChanges() int {
	if cs == nil {
		return 0
	}
	return len(cs.Added) + len(cs.Modified) + len(cs.Deleted)
}

// AffectedDirs returns sorted unique directories containing changes.
func (cs *ChangeSet) AffectedDirs() []string {
	if cs == nil {
		return nil
	}

	dirs := make(map[string]struct{})
	for _, list := range [][]string{cs.Added, cs.Modified, cs.Deleted} {
		for _, p := range list {
			dirs[path.Dir(p)] = struct{}{}
		}
	}

	result := make([]string, 0, len(dirs))
	for dir := range dirs {
		result = append(result, dir)
	}
	slices.Sort(result)
	return result
}

// sort sorts all slices for deterministic output.
func (cs *ChangeSet) sort() {
	slices.Sort(cs.Added)
	slices.Sort(cs.Modified)
	slices.Sort(cs.Deleted)
}
