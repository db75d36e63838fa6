// Package cursor wraps store-native continuation tokens in an opaque type
// so the engine never depends on the backing store's cursor representation.
package cursor

import (
	"encoding/base64"
	"fmt"

	"github.com/clinicore/chartfind/internal/domain"
)

// Cursor is an opaque continuation token. The zero value means "fresh"
// (no continuation). Cursors are strategy-specific and must never be fed
// to a different strategy.
type Cursor struct {
	token string
}

// Zero is the fresh cursor.
var Zero = Cursor{}

// New encodes a store-native continuation payload into an opaque cursor.
func New(raw []byte) Cursor {
	if len(raw) == 0 {
		return Zero
	}
	return Cursor{token: base64.RawURLEncoding.EncodeToString(raw)}
}

// FromToken rebuilds a cursor from its token form (wire round trip).
func FromToken(token string) Cursor {
	return Cursor{token: token}
}

// Token returns the wire form of the cursor.
func (c Cursor) Token() string { return c.token }

// IsZero reports whether the cursor is fresh.
func (c Cursor) IsZero() bool { return c.token == "" }

// Payload decodes the store-native continuation payload.
func (c Cursor) Payload() ([]byte, error) {
	if c.token == "" {
		return nil, nil
	}
	raw, err := base64.RawURLEncoding.DecodeString(c.token)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidCursor, err)
	}
	return raw, nil
}
