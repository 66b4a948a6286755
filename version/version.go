package version

import "fmt"

// GitCommit and GitTag are set at build time with -ldflags.
var GitCommit string
var GitTag string
var UserAgent string

func init() {
	UserAgent = fmt.Sprintf("uttp/%s+%s", GitTag, GitCommit)
}
