package runs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Entry is one scanned run folder with its summarized progress.
type Entry struct {
	RunFolder     string    `json:"run_folder"`
	LastModified  time.Time `json:"last_modified"`
	FormatVersion string    `json:"format_version"`
	SweepName     string    `json:"sweep_name,omitempty"`
	Summary       Summary   `json:"summary"`
}

// ScanResult is the outcome of scanning a runs root folder.
type ScanResult struct {
	Entries []Entry
	// Scanned counts every immediate subdirectory examined, including
	// candidates later dropped for corrupt or missing metadata.
	Scanned int
}

// candidate is a run folder that passed the cheap metadata-presence
// check; summarization happens later, after sorting and truncation.
type candidate struct {
	folder   string
	modified time.Time
}

// Scan walks the immediate subdirectories of root and summarizes every
// readable run it finds, newest first. maxRuns > 0 truncates the sorted
// candidate list before the per-run summarization step, so capped scans
// do not pay I/O for entries that would be discarded anyway.
//
// A corrupt run never aborts the scan; it is dropped from the result and
// still counted in Scanned.
func Scan(root string, maxRuns int) (*ScanResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("runs root %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("runs root %s is not a directory", root)
	}

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read runs root: %w", err)
	}

	result := &ScanResult{}
	candidates := make([]candidate, 0, len(dirEntries))
	for _, de := range dirEntries {
		if !de.IsDir() {
			continue
		}
		result.Scanned++

		folder := filepath.Join(root, de.Name())
		metaInfo, err := os.Stat(MetadataPath(folder))
		if err != nil {
			continue
		}
		candidates = append(candidates, candidate{folder: folder, modified: metaInfo.ModTime()})
	}

	// Newest first; folder name as a deterministic tie-break.
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].modified.Equal(candidates[j].modified) {
			return candidates[i].folder < candidates[j].folder
		}
		return candidates[i].modified.After(candidates[j].modified)
	})

	if maxRuns > 0 && len(candidates) > maxRuns {
		candidates = candidates[:maxRuns]
	}

	result.Entries = make([]Entry, 0, len(candidates))
	for _, c := range candidates {
		entry, err := summarizeCandidate(c)
		if err != nil {
			continue
		}
		result.Entries = append(result.Entries, entry)
	}

	return result, nil
}

func summarizeCandidate(c candidate) (Entry, error) {
	meta, err := LoadMetadata(c.folder)
	if err != nil {
		return Entry{}, err
	}
	summary, err := Summarize(c.folder, meta)
	if err != nil {
		return Entry{}, err
	}
	return Entry{
		RunFolder:     c.folder,
		LastModified:  c.modified,
		FormatVersion: meta.FormatVersion,
		SweepName:     meta.SweepName,
		Summary:       summary,
	}, nil
}
