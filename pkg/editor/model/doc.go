// Package model provides the in-memory representation of a pipeline: its
// steps and the connections between them.
//
// Connections are stored once, as each step's ordered incoming_connections.
// The outgoing side is derived from them and recomputed by every structural
// mutation, so a reader never sees a stale outgoing list. Fields the editor
// does not understand (kernel, environment, parameters, ...) are kept as raw
// JSON and written back untouched.
package model
