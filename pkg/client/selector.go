package client

import "os"

// UseReactive decides which backend the facade should be built on. The
// VESTERIA_USE_REACTIVE environment variable is read on every call: an
// explicit "false" selects the legacy request/response client, anything else
// (including unset) selects the reactive subscription client.
//
// The flag is honored strictly. Rollback to the legacy path must stay a
// one-line environment change for the whole migration window.
func UseReactive() bool {
	return os.Getenv("VESTERIA_USE_REACTIVE") != "false"
}
