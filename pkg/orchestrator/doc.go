// Package orchestrator wires the preview pipeline: questions are read from a
// source, built into a form model, passed through optional transformers and
// handed to a renderer from the registry.
package orchestrator
