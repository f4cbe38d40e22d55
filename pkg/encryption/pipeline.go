// Package encryption implements the per-subject authenticated-encryption
// pipeline. It is a pure transform pair: a process-wide secret plus a
// subject identifier deterministically derive a key, and packages are
// self-describing (salt, IV, and authentication tag travel with the
// ciphertext), so no per-subject key state is kept anywhere.
package encryption

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"

	"golang.org/x/crypto/pbkdf2"

	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

const (
	saltSize = 16
	ivSize   = 16
	tagSize  = 16
	keySize  = 32

	// headerSize is the fixed prefix of every package: salt, IV, tag.
	headerSize = saltSize + ivSize + tagSize

	// kdfIterations is the PBKDF2 round count for the slow derivation.
	kdfIterations = 100_000
)

// recordDomain binds ciphertexts to this application's record type so a tag
// produced here never verifies in another domain.
var recordDomain = []byte("blockhealth:medical-record:v1")

// Pipeline performs per-subject authenticated encryption. The secret is
// loaded once at startup and never mutated; an empty secret is a
// misconfiguration reported when the pipeline is used, not at construction.
type Pipeline struct {
	secret []byte
}

// NewPipeline creates a pipeline around the process-wide secret.
func NewPipeline(secret string) *Pipeline {
	return &Pipeline{secret: []byte(secret)}
}

// deriveKey produces the 32-byte AEAD key for a subject and salt. The fast
// keyed hash of secret and subject seeds the slow salted derivation, so the
// expensive step still runs per call with a fresh salt.
func (p *Pipeline) deriveKey(subject types.SubjectID, salt []byte) []byte {
	seed := sha256.Sum256(append(append([]byte{}, p.secret...), subject[:]...))
	return pbkdf2.Key(seed[:], salt, kdfIterations, keySize, sha256.New)
}

// Encrypt transforms plaintext into a self-describing encrypted package:
// salt(16) || iv(16) || tag(16) || ciphertext.
func (p *Pipeline) Encrypt(plaintext []byte, subject types.SubjectID) ([]byte, error) {
	if len(p.secret) == 0 {
		return nil, types.NewError(types.KindEncryptionFailed, "encryption secret is not configured")
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, types.WrapError(types.KindEncryptionFailed, err, "failed to generate salt")
	}

	iv := make([]byte, ivSize)
	if _, err := io.ReadFull(rand.Reader, iv); err != nil {
		return nil, types.WrapError(types.KindEncryptionFailed, err, "failed to generate iv")
	}

	aead, err := p.newAEAD(subject, salt)
	if err != nil {
		return nil, types.WrapError(types.KindEncryptionFailed, err, "failed to initialize cipher")
	}

	// Seal appends the 16-byte tag after the ciphertext; the package layout
	// wants it between the IV and the ciphertext, so relocate it.
	sealed := aead.Seal(nil, iv, plaintext, recordDomain)
	ct, tag := sealed[:len(sealed)-tagSize], sealed[len(sealed)-tagSize:]

	out := make([]byte, 0, headerSize+len(ct))
	out = append(out, salt...)
	out = append(out, iv...)
	out = append(out, tag...)
	out = append(out, ct...)
	return out, nil
}

// Decrypt unpacks and verifies an encrypted package. Truncated packages and
// failed tag checks report the same error kind; no plaintext is released on
// any failure.
func (p *Pipeline) Decrypt(pkg []byte, subject types.SubjectID) ([]byte, error) {
	if len(p.secret) == 0 {
		return nil, types.NewError(types.KindDecryptionFailed, "encryption secret is not configured")
	}

	if len(pkg) < headerSize {
		return nil, types.NewError(types.KindDecryptionFailed, "invalid encrypted package")
	}

	salt := pkg[:saltSize]
	iv := pkg[saltSize : saltSize+ivSize]
	tag := pkg[saltSize+ivSize : headerSize]
	ct := pkg[headerSize:]

	aead, err := p.newAEAD(subject, salt)
	if err != nil {
		return nil, types.WrapError(types.KindDecryptionFailed, err, "invalid encrypted package")
	}

	sealed := make([]byte, 0, len(ct)+tagSize)
	sealed = append(sealed, ct...)
	sealed = append(sealed, tag...)

	plaintext, err := aead.Open(nil, iv, sealed, recordDomain)
	if err != nil {
		return nil, types.NewError(types.KindDecryptionFailed, "invalid encrypted package")
	}
	return plaintext, nil
}

// newAEAD builds the AES-256-GCM instance for a subject and salt. The GCM
// nonce size is widened to match the 16-byte IV the package format carries.
func (p *Pipeline) newAEAD(subject types.SubjectID, salt []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(p.deriveKey(subject, salt))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCMWithNonceSize(block, ivSize)
}

// HashData generates the hex SHA-256 hash of data, used as the
// content address for blob storage.
func HashData(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
