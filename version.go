package svchost

import (
	"path/filepath"
	"runtime/debug"
	"strings"
)

// Version is the current version of the go-svchost library
const Version = "1.0.0"

// VersionInfo contains detailed version information
type VersionInfo struct {
	// Version is the library version
	Version string
	// Program is the main module version of the running executable, if known
	Program string
	// Platform is the name of the detected service manager
	Platform string
}

// GetVersion returns the current version information
func GetVersion() VersionInfo {
	info := VersionInfo{
		Version: Version,
		Program: programVersion(),
	}
	if m, err := DetectServiceManager(); err == nil {
		info.Platform = m.Name()
	}
	return info
}

// programVersion returns the main module version recorded in the build
// information, or "" for development builds
func programVersion() string {
	bi, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	v := bi.Main.Version
	if v == "" || v == "(devel)" {
		return ""
	}
	return v
}

// programName returns the base name of path without its extension
func programName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
