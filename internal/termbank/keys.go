package termbank

import (
	"strings"

	"github.com/google/uuid"
)

// KeyGenerator mints identifiers for new entries.
type KeyGenerator interface {
	NewKey() string
}

// KeyFunc adapts a plain function to KeyGenerator.
type KeyFunc func() string

func (f KeyFunc) NewKey() string { return f() }

// RandomKeys produces 16 hex character keys from a version 4 UUID, which is
// read from crypto/rand.
type RandomKeys struct{}

func (RandomKeys) NewKey() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:16]
}
