package main

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"linkstash/cmd"
)

func TestVersion(t *testing.T) {
	assert.Equal(t, "dev", version, "default version is overridden with -ldflags at build time")
}

func TestSetVersionReachesRootCommand(t *testing.T) {
	original := cmd.GetVersion()
	defer cmd.SetVersion(original)

	cmd.SetVersion(version)
	assert.Equal(t, version, cmd.GetVersion())
}
