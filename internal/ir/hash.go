package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/roach88/exprtrace/internal/expr"
)

// Hash domains. The version suffix changes whenever the encoding does.
const (
	DomainTree  = "exprtrace/tree/v1"
	DomainTrace = "exprtrace/trace/v1"
)

// hashWithDomain returns hex(SHA-256(domain || 0x00 || data)).
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Fingerprint returns the content address of n: the domain-separated
// SHA-256 of its canonical JSON.
func Fingerprint(n expr.Node) (string, error) {
	data, err := MarshalTree(n)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainTree, data), nil
}

// FingerprintObject is Fingerprint for an already encoded tree.
func FingerprintObject(obj IRObject) (string, error) {
	data, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("fingerprint: %w", err)
	}
	return hashWithDomain(DomainTree, data), nil
}

// TraceDigest identifies a trace output of the tree with the given
// fingerprint.
func TraceDigest(fingerprint, output string) string {
	return hashWithDomain(DomainTrace, []byte(fingerprint+"\x00"+output))
}

// MustFingerprint is like Fingerprint but panics on error.
func MustFingerprint(n expr.Node) string {
	fp, err := Fingerprint(n)
	if err != nil {
		panic(err)
	}
	return fp
}
