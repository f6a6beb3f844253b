package sas

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestToken(t *testing.T) {
	provider, err := NewTokenProvider("root", "super-secret")
	if err != nil {
		t.Fatalf("NewTokenProvider failed: %v", err)
	}

	expiry := time.Unix(1700000000, 0)
	token := provider.Token("https://NS.example.net/orders/subscriptions/audit", expiry)

	if !strings.HasPrefix(token, "SharedAccessSignature ") {
		t.Fatalf("token scheme mismatch: got %q", token)
	}
	values, err := url.ParseQuery(strings.TrimPrefix(token, "SharedAccessSignature "))
	if err != nil {
		t.Fatalf("token query parse failed: %v", err)
	}

	// ParseQuery hands back decoded values, so sr is the lowercased URI.
	if got := values.Get("sr"); got != "https://ns.example.net/orders/subscriptions/audit" {
		t.Errorf("sr mismatch: got %q", got)
	}
	if got := values.Get("se"); got != "1700000000" {
		t.Errorf("se mismatch: got %q", got)
	}
	if got := values.Get("skn"); got != "root" {
		t.Errorf("skn mismatch: got %q", got)
	}

	signed := strings.ToLower(url.QueryEscape("https://NS.example.net/orders/subscriptions/audit"))
	mac := hmac.New(sha256.New, []byte("super-secret"))
	mac.Write([]byte(signed + "\n1700000000"))
	wantSig := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	if got := values.Get("sig"); got != wantSig {
		t.Errorf("sig mismatch: got %q, want %q", got, wantSig)
	}
}

func TestNewTokenProvider_Invalid(t *testing.T) {
	if _, err := NewTokenProvider("", "key"); err == nil {
		t.Error("empty key name should fail")
	}
	if _, err := NewTokenProvider("root", ""); err == nil {
		t.Error("empty key should fail")
	}
}

func TestParseConnectionString(t *testing.T) {
	cs, err := ParseConnectionString("Endpoint=sb://ns.example.net/;SharedAccessKeyName=root;SharedAccessKey=c2VjcmV0a2V5PT0=;EntityPath=orders;")
	if err != nil {
		t.Fatalf("ParseConnectionString failed: %v", err)
	}

	if cs.Endpoint != "sb://ns.example.net/" {
		t.Errorf("Endpoint mismatch: got %q", cs.Endpoint)
	}
	if cs.KeyName != "root" {
		t.Errorf("KeyName mismatch: got %q", cs.KeyName)
	}
	if cs.Key != "c2VjcmV0a2V5PT0=" {
		t.Errorf("Key mismatch: got %q, trailing padding must survive", cs.Key)
	}
	if cs.EntityPath != "orders" {
		t.Errorf("EntityPath mismatch: got %q", cs.EntityPath)
	}
}

func TestParseConnectionString_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"missing endpoint", "SharedAccessKeyName=root;SharedAccessKey=abc"},
		{"missing key name", "Endpoint=sb://ns.example.net/;SharedAccessKey=abc"},
		{"missing key", "Endpoint=sb://ns.example.net/;SharedAccessKeyName=root"},
		{"segment without value", "Endpoint=sb://ns.example.net/;SharedAccessKeyName"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseConnectionString(tt.data); !errors.Is(err, ErrInvalidConnectionString) {
				t.Errorf("error mismatch: got %v, want ErrInvalidConnectionString", err)
			}
		})
	}
}

func TestParseConnectionString_IgnoresUnknown(t *testing.T) {
	cs, err := ParseConnectionString("Endpoint=sb://ns.example.net;SharedAccessKeyName=root;SharedAccessKey=abc;UseDevelopmentEmulator=true")
	if err != nil {
		t.Fatalf("ParseConnectionString failed: %v", err)
	}
	if cs.EntityPath != "" {
		t.Errorf("EntityPath mismatch: got %q", cs.EntityPath)
	}
}

func TestHTTPSEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"sb scheme", "sb://ns.example.net/", "https://ns.example.net/"},
		{"sb scheme without slash", "sb://ns.example.net", "https://ns.example.net/"},
		{"https passthrough", "https://ns.example.net/", "https://ns.example.net/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cs := &ConnectionString{Endpoint: tt.endpoint}
			if got := cs.HTTPSEndpoint(); got != tt.want {
				t.Errorf("endpoint mismatch: got %q, want %q", got, tt.want)
			}
		})
	}
}
