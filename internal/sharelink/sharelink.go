// Package sharelink encodes the key-transport fragment of share URLs.
//
// Single-access links carry the session key itself:
//
//	#<id>#<base64 key>[#<url-encoded name>]
//
// Vault links carry only the public salt; the password never appears:
//
//	#<id>#<base64 salt>[#<url-encoded name>]#vault
//
// The fragment is never sent to the backend by browsers, so the key stays
// out of server access logs. A missing name segment means a text secret.
package sharelink

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
)

const (
	sep         = "#"
	vaultMarker = "vault"

	// DownloadPath is the page path that share links point at.
	DownloadPath = "/download.html"
)

// ErrInvalidFragment is returned for fragments that cannot be decoded.
var ErrInvalidFragment = errors.New("invalid share fragment")

// Fragment is the decoded content of a share link fragment.
type Fragment struct {
	ID string
	// Secret is the base64 key for single-access links and the base64
	// salt for vault links.
	Secret string
	Name   string
	Vault  bool
}

// IsText reports whether the link refers to a text secret rather than a file.
func (f Fragment) IsText() bool {
	return f.Name == ""
}

// Encode serializes f, including the leading '#'.
func Encode(f Fragment) (string, error) {
	if f.ID == "" || strings.Contains(f.ID, sep) {
		return "", fmt.Errorf("%w: bad object id", ErrInvalidFragment)
	}
	if f.Secret == "" || strings.Contains(f.Secret, sep) {
		return "", fmt.Errorf("%w: bad key material", ErrInvalidFragment)
	}

	var b strings.Builder
	b.WriteString(sep + f.ID + sep + f.Secret)
	if f.Name != "" {
		b.WriteString(sep + encodeName(f.Name))
	}
	if f.Vault {
		b.WriteString(sep + vaultMarker)
	}
	return b.String(), nil
}

// Decode parses a fragment with or without its leading '#'. A fragment that
// was percent-encoded as a whole (for instance '#' sent as %23) is decoded
// before it is split.
func Decode(s string) (Fragment, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), sep)
	if !strings.Contains(s, sep) {
		unescaped, err := url.PathUnescape(s)
		if err != nil {
			return Fragment{}, fmt.Errorf("%w: %v", ErrInvalidFragment, err)
		}
		s = strings.TrimPrefix(unescaped, sep)
	}

	parts := strings.Split(s, sep)
	vault := len(parts) >= 3 && parts[len(parts)-1] == vaultMarker
	if vault {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 || len(parts) > 3 {
		return Fragment{}, fmt.Errorf("%w: %d segments", ErrInvalidFragment, len(parts))
	}

	f := Fragment{ID: parts[0], Secret: parts[1], Vault: vault}
	if f.ID == "" || f.Secret == "" {
		return Fragment{}, fmt.Errorf("%w: missing id or key material", ErrInvalidFragment)
	}
	if len(parts) == 3 && parts[2] != "" {
		name, err := url.PathUnescape(parts[2])
		if err != nil {
			return Fragment{}, fmt.Errorf("%w: name: %v", ErrInvalidFragment, err)
		}
		f.Name = name
	}
	return f, nil
}

// BuildURL returns the full share URL for f under base, e.g.
// https://sdbx.cc/download.html#id#key#name.
func BuildURL(base string, f Fragment) (string, error) {
	frag, err := Encode(f)
	if err != nil {
		return "", err
	}
	return strings.TrimRight(base, "/") + DownloadPath + frag, nil
}

// Parse accepts a full share URL or a bare fragment and decodes its fragment.
func Parse(link string) (Fragment, error) {
	link = strings.TrimSpace(link)
	if !strings.Contains(link, "://") {
		return Decode(link)
	}
	if _, frag, ok := strings.Cut(link, sep); ok {
		return Decode(frag)
	}
	// A link encoded as a whole has no raw '#' left.
	if i := strings.Index(strings.ToLower(link), "%23"); i >= 0 {
		return Decode(link[i:])
	}
	return Fragment{}, fmt.Errorf("%w: link has no fragment", ErrInvalidFragment)
}

// encodeName escapes a file name like encodeURIComponent. A name that is
// literally "vault" is escaped further so it cannot be read as the marker.
func encodeName(name string) string {
	escaped := url.PathEscape(name)
	escaped = strings.ReplaceAll(escaped, "+", "%2B")
	if escaped == vaultMarker {
		return "%76ault"
	}
	return escaped
}
