package gateway

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dunglas/httpsfv"
)

// GuestSession is the backend-issued guest cart session, carried in the
// Cart-Session response header.
type GuestSession struct {
	Token string
	// TTL in seconds, 0 when the backend omitted it.
	TTL int64
}

// ParseCartSessionHeader extracts the guest session from a Cart-Session
// header. Format: token="abc123";ttl=14400 (RFC 8941 Dictionary).
//
// Examples:
//   - token="abc123"             → {Token: "abc123"}
//   - token="abc123";ttl=14400   → {Token: "abc123", TTL: 14400}
//
// Returns error if the header is empty, malformed, or missing the token key.
func ParseCartSessionHeader(header string) (GuestSession, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return GuestSession{}, errors.New("empty Cart-Session header")
	}

	dict, err := httpsfv.UnmarshalDictionary([]string{header})
	if err != nil {
		return GuestSession{}, fmt.Errorf("invalid Cart-Session header: %w", err)
	}

	member, ok := dict.Get("token")
	if !ok {
		return GuestSession{}, errors.New("token key not found in Cart-Session header")
	}

	item, ok := member.(httpsfv.Item)
	if !ok {
		return GuestSession{}, errors.New("token value must be an item")
	}

	token, ok := item.Value.(string)
	if !ok {
		return GuestSession{}, errors.New("token value must be a string")
	}

	sess := GuestSession{Token: token}
	if ttl, ok := item.Params.Get("ttl"); ok {
		if n, ok := ttl.(int64); ok {
			sess.TTL = n
		}
	}
	return sess, nil
}

// FormatCartSessionHeader serializes a guest session back into Cart-Session
// form for outbound requests.
func FormatCartSessionHeader(sess GuestSession) (string, error) {
	item := httpsfv.NewItem(sess.Token)
	if sess.TTL > 0 {
		item.Params.Add("ttl", sess.TTL)
	}
	dict := httpsfv.NewDictionary()
	dict.Add("token", item)
	return httpsfv.Marshal(dict)
}
