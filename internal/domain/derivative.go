package domain

import (
	"fmt"
	"path"
	"strings"
)

// TargetSize is one of the named edge lengths of the resize catalog.
type TargetSize int

const (
	Original TargetSize = iota
	Xl
	Lg
	Md
	Sm
	Xs
	sizeCount
)

var sizeIDs = [sizeCount]string{"og", "xl", "lg", "md", "sm", "xs"}
var sizeNames = [sizeCount]string{"original", "xl", "lg", "md", "sm", "xs"}
var sizeDefaults = [sizeCount]int{2500, 1200, 600, 300, 150, 75}

// AllSizes lists the catalog sizes from the largest to the smallest.
func AllSizes() []TargetSize {
	return []TargetSize{Original, Xl, Lg, Md, Sm, Xs}
}

// ID is the short identifier used in derivative file names.
func (t TargetSize) ID() string { return sizeIDs[t] }

// Name is the identifier used in configuration files.
func (t TargetSize) Name() string { return sizeNames[t] }

func (t TargetSize) DefaultEdge() int { return sizeDefaults[t] }

func (t TargetSize) String() string { return t.Name() }

// ParseTargetSize accepts either the configuration name or the short id.
func ParseTargetSize(s string) (TargetSize, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i := TargetSize(0); i < sizeCount; i++ {
		if s == sizeNames[i] || s == sizeIDs[i] {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown target size %q", ErrConfiguration, s)
}

// Sizes maps every target size to its configured edge length. It is a value
// type so copies never alias.
type Sizes [sizeCount]int

func DefaultSizes() Sizes {
	return Sizes(sizeDefaults)
}

// Edge returns the configured edge, falling back to the default for unset entries.
func (s Sizes) Edge(t TargetSize) int {
	if s[t] > 0 {
		return s[t]
	}
	return t.DefaultEdge()
}

// With returns a copy of s with one edge overridden.
func (s Sizes) With(t TargetSize, edge int) Sizes {
	s[t] = edge
	return s
}

// ResizeMode selects between a plain fit and a center crop to the destination ratio.
type ResizeMode int

const (
	Fit ResizeMode = iota
	CropToFit
)

func (m ResizeMode) String() string {
	if m == CropToFit {
		return "crop"
	}
	return "fit"
}

// Encoding is the closed set of output encoders.
type Encoding int

const (
	EncodeLossless Encoding = iota
	EncodeLosslessGray
	EncodeLossy
	EncodeLossyGray
)

func (e Encoding) String() string {
	switch e {
	case EncodeLossless:
		return "png"
	case EncodeLosslessGray:
		return "png-gray"
	case EncodeLossy:
		return "jpeg"
	case EncodeLossyGray:
		return "jpeg-gray"
	}
	return fmt.Sprintf("Encoding(%d)", int(e))
}

// Gray reports whether the encoder desaturates its input.
func (e Encoding) Gray() bool {
	return e == EncodeLosslessGray || e == EncodeLossyGray
}

func (e Encoding) ContentType() string {
	if e == EncodeLossless || e == EncodeLosslessGray {
		return "image/png"
	}
	return "image/jpeg"
}

// EncodingFor picks the encoder for a source format and branch.
func EncodingFor(format TargetFormat, gray bool) Encoding {
	switch {
	case format == Lossless && gray:
		return EncodeLosslessGray
	case format == Lossless:
		return EncodeLossless
	case gray:
		return EncodeLossyGray
	default:
		return EncodeLossy
	}
}

// DerivativeSpec is one output to produce from a source.
type DerivativeSpec struct {
	Edge     int
	ID       string
	Key      string
	Mode     ResizeMode
	Encoding Encoding
}

func (s DerivativeSpec) String() string {
	return s.Key
}

// JoinKey joins sink key segments with forward slashes, dropping empty and
// leading separators.
func JoinKey(parts ...string) string {
	clean := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Trim(strings.ReplaceAll(p, "\\", "/"), "/")
		if p != "" && p != "." {
			clean = append(clean, p)
		}
	}
	return path.Join(clean...)
}

// ChecksumKey returns the sidecar name stored next to a derivative key, e.g.
// "a/b/md.png" becomes "a/b/.md.checksum".
func ChecksumKey(key string) string {
	dir, file := path.Split(key)
	stem := strings.TrimSuffix(file, path.Ext(file))
	return dir + "." + stem + ".checksum"
}
