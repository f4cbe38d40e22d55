package types

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
)

// SubjectIDLength is the fixed byte length of a subject identifier.
const SubjectIDLength = 20

// SubjectID is the fixed-length opaque identifier naming a registered
// principal (administrator, doctor, or patient). It mirrors a 20-byte
// ledger account address.
type SubjectID [SubjectIDLength]byte

// ZeroSubject is the null identifier. It is never a valid principal.
var ZeroSubject SubjectID

// ParseSubjectID parses a hex-encoded subject identifier, with or without
// a 0x prefix.
func ParseSubjectID(s string) (SubjectID, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "0x")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return ZeroSubject, fmt.Errorf("invalid subject id %q: %w", s, err)
	}
	if len(raw) != SubjectIDLength {
		return ZeroSubject, fmt.Errorf("invalid subject id length: got %d bytes, want %d", len(raw), SubjectIDLength)
	}
	var id SubjectID
	copy(id[:], raw)
	return id, nil
}

// String returns the 0x-prefixed hex form.
func (id SubjectID) String() string {
	return "0x" + hex.EncodeToString(id[:])
}

// IsZero reports whether the identifier is the null identifier.
func (id SubjectID) IsZero() bool {
	return id == ZeroSubject
}

// Bytes returns a copy of the raw identifier bytes.
func (id SubjectID) Bytes() []byte {
	out := make([]byte, SubjectIDLength)
	copy(out, id[:])
	return out
}

// MarshalJSON encodes the identifier as a hex string.
func (id SubjectID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// UnmarshalJSON decodes the identifier from a hex string.
func (id *SubjectID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseSubjectID(s)
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}
