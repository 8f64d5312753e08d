// Package publishing runs the audit publication pipeline and exposes it as
// the publish-audit command.
//
// A run resolves the report artifact, uploads it to the content store,
// resolves or creates the owning project, publishes the audit to the registry
// and, when requested, anchors the audit on every chain its contracts live on.
// Steps run strictly in that order and the first failure ends the run.
package publishing
