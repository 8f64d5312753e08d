// Package anchor records audit fingerprints on chain through a gasless
// meta-transaction relay.
//
// For every chain touched by an audit the Orchestrator encodes the
// publishAudit call, dry-runs it against the registry contract, estimates gas
// with a safety margin, reads the forwarder nonce, signs an EIP-712
// ForwardRequest and hands the signed request to the relay webhook. Chains are
// processed sequentially in the audit's chain order.
package anchor
