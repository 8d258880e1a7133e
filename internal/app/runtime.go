package app

import "flag"

// InTestMode reports whether the binary runs under `go test`.
func InTestMode() bool {
	return flag.Lookup("test.v") != nil
}
