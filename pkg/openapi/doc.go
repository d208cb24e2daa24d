// Package openapi bridges the builder and OpenAPI 3 documents. Export
// describes the question API and the current form's submission body; Import
// turns an operation's request body schema back into questions.
package openapi
