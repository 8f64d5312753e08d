// Package contentstore uploads report artifacts to the content-addressed store.
//
// An upload exchanges the registry credential for a scoped store token, sends
// the file in chunks with bounded parallelism and reports cumulative progress.
// The first content identifier returned by the store addresses the report and
// is turned into a public gateway URL.
package contentstore
