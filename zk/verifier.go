package zk

import (
	"github.com/r3e-network/neo-zkvm/log"
)

// Verifier checks a proof envelope against a caller-supplied expected tuple.
type Verifier struct {
	backend Backend
}

// NewVerifier wraps a proving backend.
func NewVerifier(backend Backend) *Verifier {
	return &Verifier{backend: backend}
}

// Verify decodes the committed public bytes and compares them field for
// field against the expected tuple before consulting the backend. A proof
// whose commitment differs from the claim in any field, gas included, is
// rejected regardless of backend validity.
func (v *Verifier) Verify(proof, public []byte, expected PublicValues) bool {
	committed, err := DecodePublicValues(public)
	if err != nil {
		log.Debug(log.ProveMonitoring, "verify rejected malformed public bytes", "err", err)
		return false
	}
	if committed != expected {
		log.Debug(log.ProveMonitoring, "verify rejected tuple mismatch")
		return false
	}
	return v.backend.VerifyProof(proof, public)
}
