package version

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetUsesLdflags(t *testing.T) {
	oldVersion, oldCommit, oldTime := Version, GitCommit, BuildTime
	defer func() { Version, GitCommit, BuildTime = oldVersion, oldCommit, oldTime }()

	Version = "1.4.0"
	GitCommit = "0123456789abcdef"
	BuildTime = "2025-03-01T10:00:00Z"

	info := Get()
	assert.Equal(t, "1.4.0", info.Version)
	assert.Equal(t, "0123456789abcdef", info.GitCommit)
	assert.Equal(t, 2025, info.BuildTime.Year())
	assert.Equal(t, "1.4.0 (0123456)", info.Short())
	assert.NotEmpty(t, info.GoVersion)
	assert.Contains(t, info.Platform, "/")
}

func TestShortWithoutCommit(t *testing.T) {
	info := &BuildInfo{Version: "dev", GitCommit: "unknown"}
	assert.Equal(t, "dev", info.Short())
}

func TestUserAgent(t *testing.T) {
	assert.True(t, strings.HasPrefix(UserAgent(), "devkit/"))
}
