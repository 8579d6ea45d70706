// Package engine implements the pipeline compilation core: parameterized
// templates, the reference resolver that turns a declarative specification
// tree into a single runnable pipeline, and jobs that bind templates to
// concrete parameter values and drive the compiled pipeline to completion.
//
// A specification tree is an arbitrarily nested structure of mappings,
// sequences and scalars. Three reserved mapping keys take the containing
// mapping out of generic traversal: "functionRef" (a registered pipeline
// stage factory plus its configuration), "connectorRef" (a named external
// service handle injected per run) and "parameterRef" (a dotted-path lookup
// into the operator-supplied value document). Resolution is a single
// bottom-up recursive descent, performed exactly once per run before any
// item flows through the pipeline.
package engine
