// Package resultcache persists the outcome of every TestItem from the last
// run to disk, for --lf/--ff consumption by internal/scheduler (spec.md
// §4.8). Encoded as YAML (domain-stack gopkg.in/yaml.v2, matching the
// teacher's own choice of YAML for its on-disk structured records, e.g.
// testing/attr.go's external attribute files), written atomically via
// temp-file-plus-rename, the same pattern the teacher's host-side file
// writers use.
package resultcache

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"

	"gotest/internal/errors"
	"gotest/internal/model"
)

// FileName is the cache's on-disk name within its directory.
const FileName = "lastfailed.yaml"

// record is the YAML-serializable shape of the cache.
type record struct {
	Outcomes map[string]string `yaml:"outcomes"`
}

// Cache maps TestItem id to its outcome on the previous run.
type Cache struct {
	Outcomes map[string]model.Outcome
}

// Load reads the cache from dir/FileName. A missing or corrupt cache
// degrades to an empty Cache without error (spec.md §4.8, "Missing or
// corrupt cache causes --lf/--ff to degrade to 'run all in discovery
// order' without error").
func Load(dir string) *Cache {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return &Cache{Outcomes: map[string]model.Outcome{}}
	}

	var rec record
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return &Cache{Outcomes: map[string]model.Outcome{}}
	}

	outcomes := make(map[string]model.Outcome, len(rec.Outcomes))
	for id, s := range rec.Outcomes {
		if o, ok := model.ParseOutcome(s); ok {
			outcomes[id] = o
		}
	}
	return &Cache{Outcomes: outcomes}
}

// Save writes report's per-item outcomes to dir/FileName atomically: the
// new content is written to a temp file in the same directory, then
// renamed over the target so a crash mid-write never corrupts the
// previously-saved cache (spec.md §4.8 "Written atomically after each
// run").
func Save(dir string, report *model.RunReport) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrap(err, "creating cache directory")
	}

	rec := record{Outcomes: make(map[string]string, len(report.Items))}
	for _, item := range report.Items {
		rec.Outcomes[item.ID] = item.Outcome.String()
	}

	data, err := yaml.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshaling result cache")
	}

	tmp, err := os.CreateTemp(dir, ".lastfailed-*.tmp")
	if err != nil {
		return errors.Wrap(err, "creating temp cache file")
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "writing temp cache file")
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "closing temp cache file")
	}

	if err := os.Rename(tmpPath, filepath.Join(dir, FileName)); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "renaming temp cache file into place")
	}
	return nil
}
