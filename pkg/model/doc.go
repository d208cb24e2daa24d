// Package model defines the typed form model consumed by renderers. Builders
// reside in internal/model but return the types defined here. A model is
// derived from the builder's question list: hidden questions are dropped,
// unlabeled questions get a positional label and number questions carry
// their bounds as ordered validation rules (number, min, max) whose
// thresholds are pre-formatted in Params["value"].
package model
