package buildinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShortCommit(t *testing.T) {
	orig := Commit
	t.Cleanup(func() { Commit = orig })

	Commit = "0123456789abcdef"
	assert.Equal(t, "0123456", ShortCommit())
	assert.Equal(t, "0123456789abcdef", Get().Commit)

	Commit = "abc"
	assert.Equal(t, "abc", ShortCommit())
}

func TestParsedBuildTime(t *testing.T) {
	orig := BuildTime
	t.Cleanup(func() { BuildTime = orig })

	BuildTime = "2024-05-01T12:00:00Z"
	ts, ok := ParsedBuildTime()
	assert.True(t, ok)
	assert.Equal(t, 2024, ts.Year())

	BuildTime = "yesterday"
	_, ok = ParsedBuildTime()
	assert.False(t, ok)
}
