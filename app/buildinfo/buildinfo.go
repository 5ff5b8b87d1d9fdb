// Package buildinfo holds build metadata injected at link time:
//
//	go build -ldflags "-X navius/app/buildinfo.Version=1.2.3 -X navius/app/buildinfo.Commit=$(git rev-parse HEAD)"
package buildinfo

import "time"

var (
	Version    = "dev"
	Commit     = "unknown"
	CommitTime = ""
	Branch     = "unknown"
	BuildTime  = ""
)

// Info is the build section of /actuator/info
type Info struct {
	Version    string `json:"version"`
	Commit     string `json:"commit"`
	CommitTime string `json:"commit_time,omitempty"`
	Branch     string `json:"branch"`
	BuildTime  string `json:"build_time,omitempty"`
}

func Get() Info {
	return Info{
		Version:    Version,
		Commit:     Commit,
		CommitTime: CommitTime,
		Branch:     Branch,
		BuildTime:  BuildTime,
	}
}

// ShortCommit is the first 7 characters of the commit id
func ShortCommit() string {
	if len(Commit) > 7 {
		return Commit[:7]
	}
	return Commit
}

// ParsedBuildTime returns BuildTime when it is RFC 3339
func ParsedBuildTime() (time.Time, bool) {
	t, err := time.Parse(time.RFC3339, BuildTime)
	return t, err == nil
}
