// Package registry talks to the audit registry HTTP API.
//
// Project resolution comes in two protocol variants behind the
// ProjectResolver interface: slug lookup keyed by the website domain and
// search by project name. Both create the project when the registry does not
// know it. The Publisher submits the frozen audit record and treats duplicate
// report or project responses as successful re-runs.
package registry
