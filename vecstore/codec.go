package vecstore

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/bookmatch/core"
)

// indexMagic identifies the on-disk vector index format.
var indexMagic = [4]byte{'B', 'M', 'I', 'X'}

// Save persists the index and its metadata sidecar. Both files are written
// atomically (write-temp-then-rename), so concurrent readers of a previous
// snapshot are never exposed to a partial write.
func (s *Store) Save() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dim == 0 || len(s.vectors) == 0 {
		return ErrIndexNotLoaded
	}

	if err := writeAtomic(s.indexPath, encodeIndex(s.dim, s.vectors)); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	metaData, err := json.MarshalIndent(s.meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	if err := writeAtomic(s.metaPath, metaData); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	s.logger.Info("index saved", "vectors", len(s.vectors), "path", s.indexPath)
	return nil
}

// Load restores the index and metadata from disk. Returns false with no
// error when the files are absent, so callers can treat "no index yet" as a
// recoverable condition. A mismatch between index and sidecar is an error.
func (s *Store) Load() (bool, error) {
	indexData, err := os.ReadFile(s.indexPath)
	if os.IsNotExist(err) {
		s.logger.Debug("index file not found", "path", s.indexPath)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read index: %w", err)
	}

	metaData, err := os.ReadFile(s.metaPath)
	if os.IsNotExist(err) {
		s.logger.Warn("index present but metadata sidecar missing", "path", s.metaPath)
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read metadata: %w", err)
	}

	dim, vectors, err := decodeIndex(indexData)
	if err != nil {
		return false, err
	}

	var meta []core.BookMeta
	if err := json.Unmarshal(metaData, &meta); err != nil {
		return false, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}

	if len(meta) != len(vectors) {
		return false, fmt.Errorf("%w: %d vectors, %d metadata entries",
			ErrCorruptIndex, len(vectors), len(meta))
	}

	s.mu.Lock()
	s.dim = dim
	s.vectors = vectors
	s.meta = meta
	s.mu.Unlock()

	s.logger.Info("index loaded", "vectors", len(vectors), "dim", dim)
	return true, nil
}

// Delete removes the index files and resets the in-memory state.
func (s *Store) Delete() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, path := range []string{s.indexPath, s.metaPath} {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove %s: %w", path, err)
		}
	}

	s.dim = 0
	s.vectors = nil
	s.meta = nil

	s.logger.Info("index deleted")
	return nil
}

func encodeIndex(dim int, vectors [][]float32) []byte {
	size := len(indexMagic) + varint.Int.Size(dim) + varint.Int.Size(len(vectors))
	size += len(vectors) * dim * raw.Float32.Size(0)

	bs := make([]byte, size)
	n := copy(bs, indexMagic[:])
	n += varint.Int.Marshal(dim, bs[n:])
	n += varint.Int.Marshal(len(vectors), bs[n:])
	for _, vector := range vectors {
		for _, val := range vector {
			n += raw.Float32.Marshal(val, bs[n:])
		}
	}
	return bs
}

func decodeIndex(bs []byte) (dim int, vectors [][]float32, err error) {
	if len(bs) < len(indexMagic) || !bytes.Equal(bs[:len(indexMagic)], indexMagic[:]) {
		return 0, nil, fmt.Errorf("%w: bad magic", ErrCorruptIndex)
	}
	n := len(indexMagic)

	dim, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	n += n1

	count, n1, err := varint.Int.Unmarshal(bs[n:])
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
	}
	n += n1

	if dim <= 0 || count < 0 {
		return 0, nil, fmt.Errorf("%w: dim %d, count %d", ErrCorruptIndex, dim, count)
	}

	vectors = make([][]float32, count)
	for i := range vectors {
		vector := make([]float32, dim)
		for j := range vector {
			val, n1, err := raw.Float32.Unmarshal(bs[n:])
			if err != nil {
				return 0, nil, fmt.Errorf("%w: %v", ErrCorruptIndex, err)
			}
			vector[j] = val
			n += n1
		}
		vectors[i] = vector
	}

	if n != len(bs) {
		return 0, nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptIndex, len(bs)-n)
	}
	return dim, vectors, nil
}

func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}
