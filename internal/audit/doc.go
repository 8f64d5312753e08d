// Package audit models the audit record submitted to the registry.
//
// AuditData is the user-supplied input loaded from JSON or YAML. The pipeline
// enriches it with the project id, report fingerprint and report URL and
// freezes it as a PublishedAudit whose chain list is always recomputed from
// the contracts. The package also owns the compact encodings used on chain:
// the zero-padded project name and the packed risk-accepted severity word.
package audit
