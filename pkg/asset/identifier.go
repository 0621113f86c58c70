package asset

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/MrLixm/picture-lab-lxm/pkg/errors"
)

// Identifier is the parsed form of an asset's 3-token name, for example
// "PAfm-SWE-neongirl":
//
//   - "PAfm": a pseudo-reference; the first letter encodes the asset type
//     ('C' for cgi, 'P' for plate), the rest abbreviates the author or source.
//   - "SWE": a random token keeping identifiers unique.
//   - "neongirl": a human-readable content tag.
type Identifier struct {
	Reference string // Type letter plus author abbreviation, e.g. "PAfm"
	Token     string // 3-character random token, e.g. "SWE"
	Tag       string // Content slug, e.g. "neongirl"
}

// ParseIdentifier splits and validates a raw identifier string.
func ParseIdentifier(raw string) (Identifier, error) {
	if err := errors.ValidateIdentifier(raw); err != nil {
		return Identifier{}, err
	}
	parts := strings.SplitN(raw, "-", 3)
	return Identifier{Reference: parts[0], Token: parts[1], Tag: parts[2]}, nil
}

// NewIdentifier builds a fresh identifier with a random token.
func NewIdentifier(assetType Type, authorRef, tag string) (Identifier, error) {
	var prefix string
	switch assetType {
	case TypeCGI:
		prefix = "C"
	case TypePlate:
		prefix = "P"
	default:
		return Identifier{}, errors.New(errors.ErrCodeInvalidInput, "unknown asset type %q", assetType)
	}

	id := Identifier{
		Reference: prefix + authorRef,
		Token:     randomToken(),
		Tag:       strings.ToLower(tag),
	}
	if err := errors.ValidateIdentifier(id.String()); err != nil {
		return Identifier{}, err
	}
	return id, nil
}

// String renders the identifier in its canonical dashed form.
func (i Identifier) String() string {
	return fmt.Sprintf("%s-%s-%s", i.Reference, i.Token, i.Tag)
}

// Type returns the asset type encoded in the reference prefix.
func (i Identifier) Type() Type {
	if strings.HasPrefix(i.Reference, "P") {
		return TypePlate
	}
	return TypeCGI
}

// IsPlate reports whether the identifier names a photographic plate.
func (i Identifier) IsPlate() bool {
	return i.Type() == TypePlate
}

const tokenAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// randomToken derives a 3-character token from a random UUID.
func randomToken() string {
	u := uuid.New()
	b := make([]byte, 3)
	for i := range b {
		b[i] = tokenAlphabet[int(u[i*4])%len(tokenAlphabet)]
	}
	return string(b)
}
