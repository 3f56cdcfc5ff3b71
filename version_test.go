package svchost

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetVersion(t *testing.T) {
	info := GetVersion()
	assert.Equal(t, Version, info.Version)
}

func TestProgramName(t *testing.T) {
	assert.Equal(t, "demo", programName("/usr/local/bin/demo"))
	assert.Equal(t, "demo", programName("/opt/demo.exe"))
	assert.Equal(t, "demo.worker", programName("demo.worker.bin"))
}
