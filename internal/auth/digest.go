package auth

import (
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
	"github.com/zeebo/blake3"
)

const digestContext = "echohub 2024 session and reset-code digest"

// Digester produces the keyed digests stored in place of session tokens
// and password-reset codes. The same input always yields the same digest,
// which is what makes index lookups by digest possible.
type Digester struct {
	key [32]byte
}

func NewDigester(workspaceSecret string) *Digester {
	d := &Digester{}
	blake3.DeriveKey(digestContext, []byte(workspaceSecret), d.key[:])
	return d
}

func (d *Digester) Digest(value string) string {
	h, err := blake3.NewKeyed(d.key[:])
	if err != nil {
		// The key is always 32 bytes.
		panic(err)
	}
	_, _ = h.Write([]byte(value))
	return hex.EncodeToString(h.Sum(nil))
}

// NewResetCode returns a short, human-typable password reset code.
func NewResetCode() string {
	raw := strings.ReplaceAll(uuid.NewString(), "-", "")
	return strings.ToUpper(raw[:10])
}
