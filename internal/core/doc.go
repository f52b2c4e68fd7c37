// Package core holds the resource domain: the Resource model, the
// ResourceStore contract implemented by the storage backends, the bulk
// import parser and the Service used by the HTTP layer.
//
// # Import format
//
// An import payload is UTF-8 text with one record per line:
//
//	https://host:8080/path:login:password
//
// Records are split on the last two colons, so everything before them is
// the URL. Blank lines are ignored. Other malformed lines are reported as
// [LineError] diagnostics ("Line N: reason") without failing the import:
//
//	plan := core.ParseImport(text)
//	for _, d := range plan.Diagnostics {
//	    fmt.Println(d)
//	}
//
// # Concurrency
//
// [Service.Import] holds a slot of an [ImportLimiter] for its duration.
// When every slot stays busy past the configured wait it fails with
// [ErrTooManyImports].
//
// # Errors
//
// Storage failures are wrapped in [StorageError] and match [ErrStorage].
// Unknown ids match [ErrNotFound]. [MapError] turns any of these into a
// [UserMessage] with a support code.
package core
