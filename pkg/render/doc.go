// Package render writes a graph description to a file.
//
// The dot, json and yaml formats are produced in-process. Every other format
// (png, svg, pdf, ...) is delegated to the Graphviz dot executable, which
// reads the DOT text on stdin.
package render
