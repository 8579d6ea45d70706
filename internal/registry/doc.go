// Package registry provides the central "glue" for the module system.
//
// The Registry stores mappings between the string identifiers used in
// specification documents (e.g., "core.map" in a functionRef, "github" in a
// connector configuration) and the compiled Go factories that implement
// them. It is an explicit object constructed by the process entry point and
// passed into the resolver, never a process-wide implicit table; a path
// absent from the registry fails resolution instead of triggering any
// dynamic symbol lookup.
//
// During application startup the registry is populated by each compiled-in
// module, preventing a wide class of runtime errors from malformed or
// malicious specifications.
package registry
