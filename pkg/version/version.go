// Package version reports the geoprefix build and the index format it reads
// and writes.
package version

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync"
)

// Version is set at build time:
// -ldflags "-X github.com/Aman-CERP/geoprefix/pkg/version.Version=v1.2.0"
var Version = "dev"

// Commit and Date may be set with -ldflags as well. Left empty, they come
// from the VCS stamp the go command embeds when building inside a checkout.
var (
	Commit string
	Date   string
)

// IndexFormat is the layout of an index directory: its manifest and the
// naming of token and coordinate fields. It is recorded in every manifest,
// and an index with another format has to be rebuilt.
const IndexFormat = 1

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version     string `json:"version"`
	Commit      string `json:"commit"`
	Date        string `json:"date"`
	Modified    bool   `json:"modified,omitempty"`
	IndexFormat int    `json:"index_format"`
	GoVersion   string `json:"go_version"`
	OS          string `json:"os"`
	Arch        string `json:"arch"`
}

type vcsStamp struct {
	revision string
	time     string
	modified bool
}

var readVCS = sync.OnceValue(func() vcsStamp {
	var s vcsStamp
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return s
	}
	for _, kv := range bi.Settings {
		switch kv.Key {
		case "vcs.revision":
			s.revision = kv.Value
		case "vcs.time":
			s.time = kv.Value
		case "vcs.modified":
			s.modified = kv.Value == "true"
		}
	}
	return s
})

// GetInfo returns structured version information.
func GetInfo() BuildInfo {
	vcs := readVCS()
	info := BuildInfo{
		Version:     Version,
		Commit:      firstNonEmpty(Commit, vcs.revision, "unknown"),
		Date:        firstNonEmpty(Date, vcs.time, "unknown"),
		Modified:    Commit == "" && vcs.modified,
		IndexFormat: IndexFormat,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
	if len(info.Commit) > 12 {
		info.Commit = info.Commit[:12]
	}
	return info
}

// String returns a one-line summary of GetInfo.
func String() string {
	i := GetInfo()
	commit := i.Commit
	if i.Modified {
		commit += "+dirty"
	}
	return fmt.Sprintf("geoprefix %s (commit: %s, built: %s, index format: %d, go: %s, %s/%s)",
		i.Version, commit, i.Date, i.IndexFormat, i.GoVersion, i.OS, i.Arch)
}

// Short returns just the version string.
func Short() string {
	return Version
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
