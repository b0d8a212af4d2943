package model

import (
	"strings"

	apperrors "github.com/arangoml/phenolrs-go/pkg/errors"
)

// Identifier is a document identifier of the form "<collection>/<key>".
// "/" never appears in the collection name.
type Identifier string

// Collection returns the collection portion of the identifier.
func (id Identifier) Collection() string {
	c, _, _ := strings.Cut(string(id), "/")
	return c
}

// Key returns the key portion of the identifier.
func (id Identifier) Key() string {
	_, k, _ := strings.Cut(string(id), "/")
	return k
}

// Split parses an identifier into its collection and key parts.
func Split(id string) (collection, key string, err error) {
	c, k, ok := strings.Cut(id, "/")
	if !ok || c == "" || k == "" {
		return "", "", apperrors.Wrapf(apperrors.CodeDecode, nil, "malformed identifier %q: expected <collection>/<key>", id)
	}
	return c, k, nil
}

// NewIdentifier joins a collection name and key into an Identifier.
func NewIdentifier(collection, key string) Identifier {
	return Identifier(collection + "/" + key)
}
