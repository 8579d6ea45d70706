// Package loader reads templates and jobs from hierarchies of
// configuration directories. Directories are searched in precedence order:
// the first directory containing a name wins for Find, and List merges all
// directories with earlier ones shadowing later ones.
//
// Templates are authored either as YAML documents or as HCL documents; both
// produce the same native specification tree for the engine.
package loader
