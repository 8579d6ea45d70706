// Package app wires the application together: logger, module registry,
// template and job loaders, and the connector configuration. The CLI layer
// parses arguments into an app.Config and dispatches onto App methods.
package app
