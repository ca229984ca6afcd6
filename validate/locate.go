package validate

import (
	"os"
	"path/filepath"
	"strings"

	log "github.com/PNNL-Comp-Mass-Spec/Data-Import-Manager-sub000/chassis/logging"
)

type datasetKind int

const (
	kindNone datasetKind = iota
	kindFile
	kindDir
	kindDirWithExt
)

type datasetMatch struct {
	kind datasetKind
	path string
	name string
	// fallback is true when the invalid-character substitution pass produced
	// the match; the remote name will be renamed at capture time.
	fallback bool
}

// nameSubstitutions are the fixed replacements applied to filesystem-invalid
// characters in dataset names at capture time.
var nameSubstitutions = []struct {
	from string
	to   string
}{
	{" ", "_"},
	{"%", "pct"},
	{".", "pt"},
}

func substituteInvalidChars(name string) string {
	for _, sub := range nameSubstitutions {
		name = strings.ReplaceAll(name, sub.from, sub.to)
	}
	return name
}

// locateDataset finds dataset as exactly one of: nothing, a plain file, a
// directory without extension, or a directory whose name carries one. Two
// passes: exact name, then the substituted name.
func locateDataset(dir, dataset string) (datasetMatch, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return datasetMatch{}, err
	}
	if m, found := matchEntries(dir, entries, dataset); found {
		return m, nil
	}
	substituted := substituteInvalidChars(dataset)
	if substituted != dataset {
		if m, found := matchEntries(dir, entries, substituted); found {
			m.fallback = true
			log.WithFields(log.Fields{
				"event":   "dataset_matched_by_substitution",
				"dataset": dataset,
				"matched": m.name,
			}).Warn("dataset located only after invalid-character substitution")
			return m, nil
		}
	}
	return datasetMatch{kind: kindNone}, nil
}

func matchEntries(dir string, entries []os.DirEntry, expected string) (datasetMatch, bool) {
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if strings.EqualFold(name, expected) {
				return datasetMatch{kind: kindDir, path: filepath.Join(dir, name), name: name}, true
			}
			ext := filepath.Ext(name)
			if ext != "" && strings.EqualFold(strings.TrimSuffix(name, ext), expected) {
				return datasetMatch{kind: kindDirWithExt, path: filepath.Join(dir, name), name: name}, true
			}
			continue
		}
		base := strings.TrimSuffix(name, filepath.Ext(name))
		if strings.EqualFold(name, expected) || strings.EqualFold(base, expected) {
			return datasetMatch{kind: kindFile, path: filepath.Join(dir, name), name: name}, true
		}
	}
	return datasetMatch{}, false
}
