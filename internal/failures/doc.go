// Package failures defines the error kinds shared by every publication stage.
//
// Components wrap their causes in Error values tagged with one of the sentinel
// kinds so callers can branch with errors.Is without depending on the
// component that produced the failure.
package failures
