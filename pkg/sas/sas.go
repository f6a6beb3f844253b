// Package sas implements shared access signature authentication for
// the management API and parsing of the connection strings that carry
// the signing material.
package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Connection string errors.
var (
	ErrInvalidConnectionString = errors.New("invalid connection string")
)

// TokenProvider signs resource URIs with a shared access key.
type TokenProvider struct {
	keyName string
	key     []byte
}

// NewTokenProvider returns a provider signing with the named key.
func NewTokenProvider(keyName, key string) (*TokenProvider, error) {
	if keyName == "" {
		return nil, errors.New("sas: key name must not be empty")
	}
	if key == "" {
		return nil, errors.New("sas: key must not be empty")
	}
	return &TokenProvider{keyName: keyName, key: []byte(key)}, nil
}

// Token returns a shared access signature for the resource URI, valid
// until expiry. The signed payload is the lowercased URL-encoded
// resource followed by the expiry as Unix seconds.
func (p *TokenProvider) Token(resourceURI string, expiry time.Time) string {
	resource := strings.ToLower(url.QueryEscape(resourceURI))
	se := strconv.FormatInt(expiry.Unix(), 10)

	mac := hmac.New(sha256.New, p.key)
	mac.Write([]byte(resource + "\n" + se))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("SharedAccessSignature sr=%s&sig=%s&se=%s&skn=%s",
		resource, url.QueryEscape(sig), se, p.keyName)
}

// ConnectionString holds the parts of a namespace connection string.
type ConnectionString struct {
	// Endpoint is the namespace address, usually with the sb scheme.
	Endpoint string

	// KeyName names the shared access policy.
	KeyName string

	// Key is the shared access key.
	Key string

	// EntityPath scopes the connection string to one entity. Empty
	// means the whole namespace.
	EntityPath string
}

// ParseConnectionString parses the semicolon separated property list
// issued by the service, for example
//
//	Endpoint=sb://ns.example.net/;SharedAccessKeyName=root;SharedAccessKey=abc=
//
// Property values may contain = characters, only the first one in each
// segment separates the name. Unknown properties are ignored.
func ParseConnectionString(s string) (*ConnectionString, error) {
	var cs ConnectionString
	for _, segment := range strings.Split(s, ";") {
		if strings.TrimSpace(segment) == "" {
			continue
		}
		name, value, found := strings.Cut(segment, "=")
		if !found {
			return nil, fmt.Errorf("%w: segment %q has no value", ErrInvalidConnectionString, segment)
		}
		switch name {
		case "Endpoint":
			cs.Endpoint = value
		case "SharedAccessKeyName":
			cs.KeyName = value
		case "SharedAccessKey":
			cs.Key = value
		case "EntityPath":
			cs.EntityPath = value
		}
	}
	if cs.Endpoint == "" {
		return nil, fmt.Errorf("%w: missing Endpoint", ErrInvalidConnectionString)
	}
	if cs.KeyName == "" {
		return nil, fmt.Errorf("%w: missing SharedAccessKeyName", ErrInvalidConnectionString)
	}
	if cs.Key == "" {
		return nil, fmt.Errorf("%w: missing SharedAccessKey", ErrInvalidConnectionString)
	}
	return &cs, nil
}

// HTTPSEndpoint returns the endpoint rewritten for the management API:
// https scheme and a trailing slash.
func (cs *ConnectionString) HTTPSEndpoint() string {
	endpoint := cs.Endpoint
	if after, ok := strings.CutPrefix(endpoint, "sb://"); ok {
		endpoint = "https://" + after
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}
	return endpoint
}

// TokenProvider returns a provider signing with the connection string's
// key.
func (cs *ConnectionString) TokenProvider() (*TokenProvider, error) {
	return NewTokenProvider(cs.KeyName, cs.Key)
}
