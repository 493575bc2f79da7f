// Package arrangement maintains the steel arrangement hierarchy. Objects are
// filed under a four-level path (root, lateral zone, deck zone, structure
// leaf) whose names are a pure function of the classification, so a path and
// the node it names are the same thing. The tree store materializes paths
// idempotently and batches the change notifications of one materialization.
package arrangement
