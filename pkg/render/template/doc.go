// Package template defines the renderer-agnostic template interface. The
// pongo subpackage implements it on top of pongo2.
package template
