package version

import (
	"encoding/json"
	"fmt"
	"regexp"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion_FollowsSemverOrDev(t *testing.T) {
	// Given: the package default or an ldflags-injected version
	if Version == "dev" {
		return
	}

	// Then: injected versions are semver
	semver := regexp.MustCompile(`^v?\d+\.\d+\.\d+(-[a-zA-Z0-9.]+)?$`)
	require.True(t, semver.MatchString(Version), "got: %s", Version)
}

func TestString_ContainsBuildInfo(t *testing.T) {
	// When: formatting the full version
	s := String()

	// Then: every component is present
	assert.Contains(t, s, "geoprefix "+Version)
	assert.Contains(t, s, "commit: "+GetInfo().Commit)
	assert.Contains(t, s, fmt.Sprintf("index format: %d", IndexFormat))
	assert.Contains(t, s, "go: "+runtime.Version())
	assert.Contains(t, s, runtime.GOOS+"/"+runtime.GOARCH)
}

func TestShort_ReturnsVersion(t *testing.T) {
	assert.Equal(t, Version, Short())
}

func TestGetInfo_JSON(t *testing.T) {
	// Given: structured build info
	info := GetInfo()

	// When: encoding it
	data, err := json.Marshal(info)
	require.NoError(t, err)

	// Then: snake_case keys carry the runtime platform and index format
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, Version, decoded["version"])
	assert.Equal(t, runtime.Version(), decoded["go_version"])
	assert.Equal(t, runtime.GOOS, decoded["os"])
	assert.Equal(t, runtime.GOARCH, decoded["arch"])
	assert.Equal(t, float64(IndexFormat), decoded["index_format"])
	assert.NotEmpty(t, decoded["commit"])
}

func TestGetInfo_LdflagsOverrideVCS(t *testing.T) {
	// Given: values injected at build time
	oldCommit, oldDate := Commit, Date
	t.Cleanup(func() { Commit, Date = oldCommit, oldDate })
	Commit, Date = "0123456789abcdef", "2026-01-02T03:04:05Z"

	// When
	info := GetInfo()

	// Then: the commit is shortened and never marked dirty
	assert.Equal(t, "0123456789ab", info.Commit)
	assert.Equal(t, "2026-01-02T03:04:05Z", info.Date)
	assert.False(t, info.Modified)
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "b", firstNonEmpty("", "b", "c"))
	assert.Equal(t, "", firstNonEmpty("", ""))
}
