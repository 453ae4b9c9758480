// Package mumps implements an interpreter for a small dynamically-typed
// procedural language derived from the MUMPS/M family.
//
// A source string is tokenized, parsed into an indentation-sensitive
// abstract syntax tree, and walked by a tree-based evaluator against an
// in-memory global/local variable store. Evaluation produces a single
// linear text output plus a list of diagnostics; there is no filesystem
// I/O, no concurrency, and no persisted state beyond a single Evaluate
// call.
//
// Basic usage:
//
//	in := mumps.New(nil)
//	res := in.Evaluate(` w "Hello, world!"`)
//	fmt.Print(res.Output)
package mumps
