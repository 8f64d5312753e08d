// Package artifact turns a user supplied audit report into a single PDF file
// ready for upload.
//
// A local report is validated in place. A report URL is rendered to PDF by a
// Renderer into a scratch directory owned by this package; the content store
// removes that directory once the upload completes.
package artifact
