// Package leaflet carries module-level metadata.
package leaflet

// Version is the module version reported by the CLI.
const Version = "0.1.0"
