// Package ir is the canonical, storable form of expression trees.
//
// A tree encodes to an IRObject: one object per node, keyed by snake_case
// field names, with only strings, integers, booleans, arrays and objects.
// MarshalCanonical renders it as RFC 8785 JSON, and Fingerprint hashes that
// rendering, so equal trees always get equal fingerprints.
//
// Extension nodes have no canonical form and cannot be encoded.
package ir
