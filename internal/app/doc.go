// Package app contains the core application logic. It wires the module
// registry, the optional shelf and the script host together and runs a
// script, decoupled from any specific entrypoint like a CLI.
package app
