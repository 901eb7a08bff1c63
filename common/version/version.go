package version

import "fmt"

// VERSION is the major.minor.patch version the binary was built off of,
// injected at build time.
var VERSION string

// GITCOMMIT is the short git hash the binary was built off of, injected at
// build time.
var GITCOMMIT string

func VersionToString() string {
	// Development builds have nothing injected.
	if VERSION == "" && GITCOMMIT == "" {
		return "dev"
	}
	if GITCOMMIT == "" {
		return VERSION
	}
	return fmt.Sprintf("%s - %s", VERSION, GITCOMMIT)
}
