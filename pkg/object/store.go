package object

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123... Object payloads are stored
// zstd-compressed; hashes always cover the uncompressed envelope.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given directory. The objects/
// subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.root, "objects", string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if !h.Valid() {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. The logical format
// is "type len\0content"; the on-disk bytes are the zstd-compressed
// envelope. Writes are atomic: data is written to a temp file and then
// renamed into place.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	envelope := fmt.Sprintf("%s %d\x00", objType, len(data))
	raw := append([]byte(envelope), data...)

	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	compressed, err := compressZstd(raw)
	if err != nil {
		return "", fmt.Errorf("object write compress: %w", err)
	}

	dir := filepath.Join(s.root, "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	// Atomic write via temp + rename.
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(compressed); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	dest := s.objectPath(h)
	if err := os.Rename(tmpName, dest); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}

	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
// Missing objects yield ErrNotFound; undecodable ones yield ErrCorrupt.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if !h.Valid() {
		return "", nil, notFound(h, fmt.Errorf("malformed hash %q", string(h)))
	}

	compressed, err := os.ReadFile(s.objectPath(h))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil, notFound(h, err)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h.Short(), err)
	}

	raw, err := decompressZstd(compressed)
	if err != nil {
		return "", nil, corrupt(h, fmt.Errorf("decompress: %w", err))
	}

	// Parse envelope: "type len\0content"
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, corrupt(h, fmt.Errorf("invalid envelope (no NUL)"))
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 {
		return "", nil, corrupt(h, fmt.Errorf("invalid header %q", header))
	}
	objType := ObjectType(parts[0])
	length, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", nil, corrupt(h, fmt.Errorf("invalid length %q: %w", parts[1], err))
	}
	if len(content) != length {
		return "", nil, corrupt(h, fmt.Errorf("length mismatch (header=%d, actual=%d)", length, len(content)))
	}

	return objType, content, nil
}

// VerifyReport summarizes an integrity scan of the object store.
type VerifyReport struct {
	Objects int
}

// Verify re-reads every stored object, checking that it decompresses,
// parses, and hashes back to its own name. The first corrupt object
// aborts the scan with an ErrCorrupt error.
func (s *Store) Verify() (*VerifyReport, error) {
	objectsDir := filepath.Join(s.root, "objects")
	report := &VerifyReport{}

	fanouts, err := os.ReadDir(objectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return report, nil
		}
		return nil, fmt.Errorf("verify: %w", err)
	}

	for _, fanout := range fanouts {
		if !fanout.IsDir() || len(fanout.Name()) != 2 {
			continue
		}
		files, err := os.ReadDir(filepath.Join(objectsDir, fanout.Name()))
		if err != nil {
			return nil, fmt.Errorf("verify: %w", err)
		}
		for _, f := range files {
			if f.IsDir() || strings.HasPrefix(f.Name(), ".") {
				continue
			}
			h := Hash(fanout.Name() + f.Name())
			objType, content, err := s.Read(h)
			if err != nil {
				return nil, fmt.Errorf("verify: %w", err)
			}
			if HashObject(objType, content) != h {
				return nil, corrupt(h, fmt.Errorf("content does not hash to object name"))
			}
			report.Objects++
		}
	}
	return report, nil
}

// compressZstd compresses data using zstd.
func compressZstd(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// decompressZstd decompresses zstd-compressed data.
func decompressZstd(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	return dec.DecodeAll(data, nil)
}

// ---------------------------------------------------------------------------
// Typed convenience methods
// ---------------------------------------------------------------------------

// WriteBlob serializes and stores a Blob.
func (s *Store) WriteBlob(b *Blob) (Hash, error) {
	return s.Write(TypeBlob, MarshalBlob(b))
}

// ReadBlob reads and deserializes a Blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeBlob {
		return nil, corrupt(h, fmt.Errorf("type mismatch: got %q, want %q", objType, TypeBlob))
	}
	return UnmarshalBlob(data)
}

// WriteTree serializes and stores a TreeObj.
func (s *Store) WriteTree(tr *TreeObj) (Hash, error) {
	return s.Write(TypeTree, MarshalTree(tr))
}

// ReadTree reads and deserializes a TreeObj.
func (s *Store) ReadTree(h Hash) (*TreeObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeTree {
		return nil, corrupt(h, fmt.Errorf("type mismatch: got %q, want %q", objType, TypeTree))
	}
	tr, err := UnmarshalTree(data)
	if err != nil {
		return nil, corrupt(h, err)
	}
	return tr, nil
}

// WriteCommit serializes and stores a CommitObj.
func (s *Store) WriteCommit(c *CommitObj) (Hash, error) {
	return s.Write(TypeCommit, MarshalCommit(c))
}

// ReadCommit reads and deserializes a CommitObj.
func (s *Store) ReadCommit(h Hash) (*CommitObj, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != TypeCommit {
		return nil, corrupt(h, fmt.Errorf("type mismatch: got %q, want %q", objType, TypeCommit))
	}
	c, err := UnmarshalCommit(data)
	if err != nil {
		return nil, corrupt(h, err)
	}
	return c, nil
}
