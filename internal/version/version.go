// Package version reports what a vibedb binary was built from.
package version

import (
	"database/sql"
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"
)

// Set with -ldflags "-X github.com/vibesql/vibedb/internal/version.GitCommit=...".
// Empty values fall back to the VCS stamp of the Go build.
var (
	Version   = "1.0.0"
	GitCommit = ""
	BuildDate = ""
)

const unknown = "unknown"

type Info struct {
	Version   string
	GitCommit string
	BuildDate string
	// Modified is set when the binary was built from a dirty work tree.
	Modified  bool
	GoVersion string
	OS        string
	Arch      string
	// Drivers lists the database/sql drivers linked into the binary.
	Drivers   []string
}

func Get() Info {
	info := Info{
		Version:   Version,
		GitCommit: GitCommit,
		BuildDate: BuildDate,
		GoVersion: runtime.Version(),
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
		Drivers:   sql.Drivers(),
	}
	if bi, ok := debug.ReadBuildInfo(); ok {
		info.fill(bi)
	}
	if info.GitCommit == "" {
		info.GitCommit = unknown
	}
	if info.BuildDate == "" {
		info.BuildDate = unknown
	}
	return info
}

// fill takes commit, date and dirty flag from the vcs.* build settings for
// the fields that ldflags left empty.
func (i *Info) fill(bi *debug.BuildInfo) {
	stamped := i.GitCommit != ""
	for _, s := range bi.Settings {
		switch s.Key {
		case "vcs.revision":
			if !stamped {
				i.GitCommit = shortRevision(s.Value)
			}
		case "vcs.time":
			if i.BuildDate == "" {
				i.BuildDate = s.Value
			}
		case "vcs.modified":
			if !stamped {
				i.Modified = s.Value == "true"
			}
		}
	}
	if bi.GoVersion != "" {
		i.GoVersion = bi.GoVersion
	}
}

func shortRevision(rev string) string {
	if len(rev) > 12 {
		return rev[:12]
	}
	return rev
}

func (i Info) commit() string {
	if i.Modified {
		return i.GitCommit + "-dirty"
	}
	return i.GitCommit
}

func (i Info) drivers() string {
	if len(i.Drivers) == 0 {
		return "none"
	}
	return strings.Join(i.Drivers, ", ")
}

// String is the one-line form used in logs.
func (i Info) String() string {
	return fmt.Sprintf("vibedb %s (%s, %s, %s %s/%s)",
		i.Version, i.commit(), i.BuildDate, i.GoVersion, i.OS, i.Arch)
}

func (i Info) Short() string {
	return i.Version
}

// Full is printed by "vibedb version".
func (i Info) Full() string {
	var b strings.Builder
	fmt.Fprintf(&b, "vibedb %s\n", i.Version)
	fmt.Fprintf(&b, "  commit:  %s\n", i.commit())
	fmt.Fprintf(&b, "  built:   %s\n", i.BuildDate)
	fmt.Fprintf(&b, "  go:      %s %s/%s\n", i.GoVersion, i.OS, i.Arch)
	fmt.Fprintf(&b, "  drivers: %s", i.drivers())
	return b.String()
}
