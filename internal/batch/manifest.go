package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one frame in the output manifest.
type ManifestEntry struct {
	Frame     int      `json:"frame"`
	Image     string   `json:"image"`
	Snapshot  string   `json:"snapshot,omitempty"`
	TAASample int      `json:"taa_sample"`
	TAAReset  bool     `json:"taa_reset,omitempty"`
	Stages    []string `json:"stages"`
	RenderMS  float64  `json:"render_ms"`
	Error     string   `json:"error,omitempty"`
}

// WriteManifest writes a JSON manifest of results to path.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		stages := r.Stages
		if stages == nil {
			stages = []string{}
		}
		entries[i] = ManifestEntry{
			Frame:     r.Frame,
			Image:     r.Image,
			Snapshot:  r.Snapshot,
			TAASample: r.TAASample,
			TAAReset:  r.TAAReset,
			Stages:    stages,
			RenderMS:  float64(r.Render.Microseconds()) / 1000,
			Error:     r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadManifest loads a manifest written by WriteManifest.
func ReadManifest(path string) ([]ManifestEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []ManifestEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
