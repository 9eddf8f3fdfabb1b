// Package artifact is a handle-based blob store for large task results,
// with memory and filesystem backends.
package artifact

import (
	"crypto/rand"
	"encoding/gob"
	"encoding/hex"
	"fmt"
)

func init() {
	// Pre-register the common concrete types dagflow tasks tend to pass
	// through the gob codec; user-defined types must still be registered
	// by the caller via gob.Register before Put/Get.
	gob.Register([]int{})
	gob.Register([]string{})
	gob.Register([]any{})
	gob.Register(map[string]string{})
	gob.Register(map[string]any{})
}

// Ref is the opaque handle identifying a stored blob.
type Ref struct {
	id string
}

func (r Ref) String() string { return r.id }

// newRef generates a fresh random handle.
func newRef() Ref {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return Ref{id: "artifact:" + hex.EncodeToString(b)}
}

// RefFromString reconstructs a Ref from its serialized form (e.g. after it
// crossed a process boundary as a plain task argument).
func RefFromString(s string) Ref { return Ref{id: s} }

// Store is the contract every backend satisfies.
type Store interface {
	Put(value any) (Ref, error)
	Get(ref Ref) (any, error)
	Delete(ref Ref) error
}

// Serializer selects the wire format an artifact is persisted with: "pickle"
// names the gob encoding (see DESIGN.md for why gob plays that role here),
// "json" the plain encoding/json path.
type Serializer string

const (
	SerializerGob  Serializer = "pickle"
	SerializerJSON Serializer = "json"
)

var errNotFound = fmt.Errorf("artifact not found")

// ErrNotFound is returned by Get when ref does not resolve to a blob.
func ErrNotFound() error { return errNotFound }
