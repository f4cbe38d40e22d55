// Package documents orchestrates the document pipeline: encrypt a payload
// for its subject, store it in the blob store, and hand back the content
// address the record stores reference.
package documents

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/riannbarbosa/BlockHealth/pkg/interfaces"
	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// unstoredPrefix marks placeholder addresses handed out when the blob store
// rejected a payload. Such an address can never be resolved later.
const unstoredPrefix = "unstored-"

var storeFallbacks = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "blockhealth",
	Subsystem: "documents",
	Name:      "store_fallbacks_total",
	Help:      "Uploads that received a placeholder address because the blob store failed.",
})

// Vault ties the cipher and the blob store together. With a nil cipher the
// vault stores payloads as-is, which is only meant for tests and local runs.
type Vault struct {
	cipher interfaces.Cipher
	blobs  interfaces.BlobStore
	logger *logger.Logger
}

// NewVault creates a document vault.
func NewVault(cipher interfaces.Cipher, blobs interfaces.BlobStore, log *logger.Logger) *Vault {
	return &Vault{cipher: cipher, blobs: blobs, logger: log}
}

// Upload encrypts data for subject and stores it, returning the content
// address. When the blob store fails, Upload still succeeds with a
// placeholder address so the metadata write can proceed; the payload is
// lost and the failure is logged and counted.
func (v *Vault) Upload(ctx context.Context, subject types.SubjectID, data []byte) (string, error) {
	if len(data) == 0 {
		return "", types.NewError(types.KindEmptyField, "document payload must not be empty")
	}

	payload := data
	if v.cipher != nil {
		encrypted, err := v.cipher.Encrypt(data, subject)
		if err != nil {
			return "", err
		}
		payload = encrypted
	}

	address, err := v.blobs.Put(ctx, payload)
	if err != nil {
		address = unstoredPrefix + uuid.NewString()
		storeFallbacks.Inc()
		v.logger.WithSubject(subject.String()).WithError(err).WithField("placeholder", address).
			Error("blob store rejected payload, handing out placeholder address")
		return address, nil
	}

	return address, nil
}

// Download retrieves and decrypts the document at address for subject.
func (v *Vault) Download(ctx context.Context, subject types.SubjectID, address string) ([]byte, error) {
	if strings.HasPrefix(address, unstoredPrefix) {
		return nil, types.NewError(types.KindRemoteUnavailable, "address %s is a placeholder, payload was never stored", address)
	}

	payload, err := v.blobs.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	if v.cipher == nil {
		return payload, nil
	}
	return v.cipher.Decrypt(payload, subject)
}
