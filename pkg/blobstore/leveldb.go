package blobstore

import (
	"context"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/riannbarbosa/BlockHealth/pkg/logger"
	"github.com/riannbarbosa/BlockHealth/pkg/types"
)

// LevelDB is a persistent content-addressed store backed by a local leveldb
// database. Keys are content addresses; values are the raw blobs.
type LevelDB struct {
	db     *leveldb.DB
	logger *logger.Logger
}

// OpenLevelDB opens (or creates) the blob database at path.
func OpenLevelDB(path string, log *logger.Logger) (*LevelDB, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, types.WrapError(types.KindRemoteUnavailable, err, "failed to open blob store at %s", path)
	}
	log.WithComponent("blobstore").WithField("path", path).Info("Blob store opened")
	return &LevelDB{db: db, logger: log}, nil
}

// Put stores data under its content address. Re-putting identical content is
// a no-op that returns the same address.
func (s *LevelDB) Put(_ context.Context, data []byte) (string, error) {
	address := Address(data)
	if err := s.db.Put([]byte(address), data, nil); err != nil {
		return "", types.WrapError(types.KindRemoteUnavailable, err, "failed to store blob")
	}
	return address, nil
}

// Get retrieves a blob by content address and re-verifies its integrity
// against the address before returning it.
func (s *LevelDB) Get(_ context.Context, address string) ([]byte, error) {
	data, err := s.db.Get([]byte(address), nil)
	if err == leveldb.ErrNotFound {
		return nil, types.NewError(types.KindNotFound, "blob %s not found", address)
	}
	if err != nil {
		return nil, types.WrapError(types.KindRemoteUnavailable, err, "failed to read blob")
	}
	if Address(data) != address {
		return nil, types.NewError(types.KindRemoteUnavailable, "blob %s failed integrity check", address)
	}
	return data, nil
}

// Close closes the underlying database.
func (s *LevelDB) Close() error {
	return s.db.Close()
}
