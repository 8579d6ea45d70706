// Package cli parses command-line arguments into an app configuration and
// a command for the App layer to execute. It owns nothing but argument
// handling; all behavior lives behind app.App.
package cli
