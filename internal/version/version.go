package version

import (
	"encoding/json"
	"log"
	"os"
)

type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit,omitempty"`
}

// Load reads build info from the given JSON file. A missing or broken
// file falls back to a zero version so startup never blocks on it.
func Load(path string) Info {
	fallback := Info{Version: "0.0.0"}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("warning: could not read %s: %v", path, err)
		return fallback
	}
	var info Info
	if err := json.Unmarshal(data, &info); err != nil {
		log.Printf("warning: could not parse %s: %v", path, err)
		return fallback
	}
	if info.Version == "" {
		info.Version = fallback.Version
	}
	return info
}
