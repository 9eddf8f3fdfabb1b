package artifact

import (
	"bytes"
	"encoding/gob"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FilesystemStore writes one blob file per handle under root. Put writes the
// blob straight to disk and returns the handle without retaining an
// in-memory copy. Writes use the same write-temp-then-rename discipline as
// the result cache's filesystem backend.
type FilesystemStore struct {
	root       string
	serializer Serializer
}

// NewFilesystemStore creates a filesystem artifact store rooted at dir.
func NewFilesystemStore(dir string, serializer Serializer) (*FilesystemStore, error) {
	if serializer == "" {
		serializer = SerializerGob
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact store dir: %w", err)
	}
	return &FilesystemStore{root: dir, serializer: serializer}, nil
}

func (s *FilesystemStore) pathFor(ref Ref) string {
	return filepath.Join(s.root, ref.id+".blob")
}

func (s *FilesystemStore) encode(value any) ([]byte, error) {
	if s.serializer == SerializerJSON {
		return json.Marshal(value)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(&value); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (s *FilesystemStore) decode(data []byte) (any, error) {
	if s.serializer == SerializerJSON {
		var v any
		if err := json.Unmarshal(data, &v); err != nil {
			return nil, err
		}
		return v, nil
	}
	var v any
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *FilesystemStore) Put(value any) (Ref, error) {
	ref := newRef()
	data, err := s.encode(value)
	if err != nil {
		return Ref{}, fmt.Errorf("failed to encode artifact: %w", err)
	}

	target := s.pathFor(ref)
	tempFile := target + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return Ref{}, fmt.Errorf("failed to write temp artifact file: %w", err)
	}
	if err := os.Rename(tempFile, target); err != nil {
		os.Remove(tempFile)
		return Ref{}, fmt.Errorf("failed to rename temp artifact file: %w", err)
	}
	return ref, nil
}

func (s *FilesystemStore) Get(ref Ref) (any, error) {
	data, err := os.ReadFile(s.pathFor(ref))
	if err != nil {
		return nil, ErrNotFound()
	}
	return s.decode(data)
}

func (s *FilesystemStore) Delete(ref Ref) error {
	err := os.Remove(s.pathFor(ref))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
