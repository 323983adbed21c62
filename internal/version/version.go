// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package version provides build-time version information.
package version

import "strings"

// Injected via ldflags, e.g.
// -X github.com/nimbuswork/storeadmin-go/internal/version.Version=v1.2.3
var (
	Version   = "dev"
	GitCommit = ""
	BuildTime = ""
)

// Info is a snapshot of the build metadata.
type Info struct {
	Version   string `json:"version"`
	GitCommit string `json:"gitCommit,omitempty"`
	BuildTime string `json:"buildTime,omitempty"`
}

// Get returns the build metadata of the running binary.
func Get() Info {
	return Info{Version: Version, GitCommit: GitCommit, BuildTime: BuildTime}
}

// String renders the info as "v1.2.3 (abc1234)".
func (i Info) String() string {
	var b strings.Builder
	b.WriteString(i.Version)
	if i.GitCommit != "" {
		b.WriteString(" (")
		b.WriteString(i.GitCommit)
		b.WriteString(")")
	}
	return b.String()
}
