// Package buildinfo holds version data stamped in at link time:
//
//	go build -ldflags "-X github.com/dmitrijs2005/daybook/internal/buildinfo.buildVersion=v1.0.0 \
//	  -X github.com/dmitrijs2005/daybook/internal/buildinfo.buildDate=2024-05-10 \
//	  -X github.com/dmitrijs2005/daybook/internal/buildinfo.buildCommit=abc123"
package buildinfo

import (
	"fmt"
	"io"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func valueOrNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

// PrintBuildData writes version, date and commit, one per line.
func PrintBuildData(w io.Writer) {
	_, _ = fmt.Fprintf(w, "Build version: %s\n", valueOrNA(buildVersion))
	_, _ = fmt.Fprintf(w, "Build date: %s\n", valueOrNA(buildDate))
	_, _ = fmt.Fprintf(w, "Build commit: %s\n", valueOrNA(buildCommit))
}
