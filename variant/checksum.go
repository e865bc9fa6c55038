package variant

import (
	"crypto/sha256"
	"fmt"
	"hash/adler32"
	"strconv"
	"strings"

	"github.com/lewtec/imgvariant/internal/domain"
)

// ChecksumAlgorithm names the digest used to gate regeneration.
type ChecksumAlgorithm string

const (
	Adler32 ChecksumAlgorithm = "adler32"
	SHA256  ChecksumAlgorithm = "sha256"
)

func ParseChecksumAlgorithm(s string) (ChecksumAlgorithm, error) {
	switch a := ChecksumAlgorithm(strings.ToLower(strings.TrimSpace(s))); a {
	case Adler32, SHA256:
		return a, nil
	}
	return "", fmt.Errorf("%w: unknown checksum algorithm %q", domain.ErrConfiguration, s)
}

// TagKey is the object tag (and sidecar flavour) the checksum is stored under.
func (a ChecksumAlgorithm) TagKey() string {
	if a == SHA256 {
		return "sha256"
	}
	return "checksum"
}

// Sum digests data. adler32 renders as a decimal integer, sha256 as hex.
func (a ChecksumAlgorithm) Sum(data []byte) string {
	if a == SHA256 {
		return fmt.Sprintf("%x", sha256.Sum256(data))
	}
	return strconv.FormatUint(uint64(adler32.Checksum(data)), 10)
}
