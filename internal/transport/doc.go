// Package transport provides the HTTP client shared by the registry, content
// store, renderer and relay integrations.
//
// Every request carries the caller credential in the x-trustblock-api-key
// header when one is supplied and the run correlation identifier in
// x-request-id. Non-success responses surface as StatusError values that keep
// the endpoint, status and body verbatim.
package transport
