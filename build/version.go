package build

import "fmt"

var CurrentCommit string

// BuildVersion is the local build version
const BuildVersion = "0.5.0"

// UserVersion is the version string reported to peers
func UserVersion() string {
	return fmt.Sprintf("%s%s", BuildVersion, CurrentCommit)
}
