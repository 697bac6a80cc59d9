// Package types defines the page entity, the gateway and codec interfaces,
// the event payloads, and the standard error types for the Leaflet
// persistence core.
package types
