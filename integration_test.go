package sbatom_test

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"

	"github.com/sbatom/sbatom-go/pkg/atom"
	"github.com/sbatom/sbatom-go/pkg/iso8601"
	"github.com/sbatom/sbatom-go/pkg/mgmt"
	"github.com/sbatom/sbatom-go/pkg/rule"
	"github.com/sbatom/sbatom-go/pkg/sas"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// TestEndToEnd_EncodeDecode drives a fully populated description through
// normalization, encoding, and decoding, and checks that a second encode
// reproduces the first document byte for byte.
func TestEndToEnd_EncodeDecode(t *testing.T) {
	codec := subscription.Codec{Rules: rule.Codec{}}

	d := subscription.NewDescription("orders", "audit")
	d.LockDuration = 90 * time.Second
	d.RequiresSession = true
	d.DefaultMessageTimeToLive = 14 * iso8601.Day
	d.DeadLetteringOnMessageExpiration = true
	d.MaxDeliveryCount = 25
	d.Status = subscription.StatusReceiveDisabled
	forward := "audit-queue"
	d.ForwardTo = &forward
	meta := "owned by billing"
	d.UserMetadata = &meta
	d.DefaultRule = &rule.Description{
		Name:   rule.DefaultRuleName,
		Filter: rule.SQLFilter{Expression: "region = 'emea'", CompatibilityLevel: 20},
		Action: rule.SQLAction{Expression: "SET processed = 1", CompatibilityLevel: 20},
	}

	if err := d.NormalizeForwarding("https://ns.example.net/"); err != nil {
		t.Fatalf("Failed to normalize forwarding: %v", err)
	}
	if got := *d.ForwardTo; got != "https://ns.example.net/audit-queue" {
		t.Fatalf("unexpected forward address: %s", got)
	}

	// Normalizing a second time must not change the address again.
	if err := d.NormalizeForwarding("https://ns.example.net/"); err != nil {
		t.Fatalf("Failed to normalize twice: %v", err)
	}
	if got := *d.ForwardTo; got != "https://ns.example.net/audit-queue" {
		t.Fatalf("normalization is not idempotent: %s", got)
	}

	doc, err := codec.EncodeEntry(d)
	if err != nil {
		t.Fatalf("Failed to encode: %v", err)
	}
	first, err := doc.WriteToBytes()
	if err != nil {
		t.Fatalf("Failed to serialize: %v", err)
	}

	root, err := atom.ParseDocument(first)
	if err != nil {
		t.Fatalf("Failed to parse: %v", err)
	}
	decoded, err := codec.DecodeEntry(root, "orders")
	if err != nil {
		t.Fatalf("Failed to decode: %v", err)
	}
	if !reflect.DeepEqual(decoded, d) {
		t.Errorf("decoded description differs:\n got  %+v\n want %+v", decoded, d)
	}

	redone, err := codec.EncodeEntry(decoded)
	if err != nil {
		t.Fatalf("Failed to re-encode: %v", err)
	}
	second, err := redone.WriteToBytes()
	if err != nil {
		t.Fatalf("Failed to serialize again: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Errorf("re-encoded document differs:\n first  %s\n second %s", first, second)
	}
}

// TestEndToEnd_SubscriptionLifecycle runs the management client against
// an in-memory namespace: create, read, list, update, and delete, with
// the service's conflict and not-found answers along the way.
func TestEndToEnd_SubscriptionLifecycle(t *testing.T) {
	ns := newFakeNamespace()
	server := httptest.NewServer(ns)
	defer server.Close()

	provider, err := sas.NewTokenProvider("root", "secret")
	if err != nil {
		t.Fatalf("Failed to create token provider: %v", err)
	}

	client, err := mgmt.New(mgmt.ClientConfig{
		Endpoint:      server.URL,
		TokenProvider: provider,
		Retry: mgmt.RetryConfig{
			InitialInterval: time.Millisecond,
			MaxInterval:     5 * time.Millisecond,
			MaxElapsedTime:  250 * time.Millisecond,
		},
	})
	if err != nil {
		t.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	// Create: the relative forward target is normalized against the
	// namespace endpoint before the request goes out.
	d := subscription.NewDescription("orders", "audit")
	d.LockDuration = 90 * time.Second
	d.MaxDeliveryCount = 25
	forward := "audit-queue"
	d.ForwardTo = &forward
	d.DefaultRule = &rule.Description{
		Name:   rule.DefaultRuleName,
		Filter: rule.SQLFilter{Expression: "region = 'emea'", CompatibilityLevel: 20},
	}

	created, err := client.CreateSubscription(ctx, d)
	if err != nil {
		t.Fatalf("Failed to create subscription: %v", err)
	}
	if created.MaxDeliveryCount != 25 {
		t.Errorf("created MaxDeliveryCount mismatch: got %d, want 25", created.MaxDeliveryCount)
	}
	if created.ForwardTo == nil || !strings.HasPrefix(*created.ForwardTo, server.URL) {
		t.Errorf("forward address was not normalized: %v", created.ForwardTo)
	}
	rd, ok := created.DefaultRule.(*rule.Description)
	if !ok {
		t.Fatalf("default rule did not survive the round trip: %T", created.DefaultRule)
	}
	if f, ok := rd.Filter.(rule.SQLFilter); !ok || f.Expression != "region = 'emea'" {
		t.Errorf("rule filter mismatch: %+v", rd.Filter)
	}

	// Read back.
	got, err := client.GetSubscription(ctx, "orders", "audit")
	if err != nil {
		t.Fatalf("Failed to get subscription: %v", err)
	}
	if !reflect.DeepEqual(got, created) {
		t.Errorf("get result differs from create result:\n got  %+v\n want %+v", got, created)
	}

	// Creating the same subscription again conflicts.
	if _, err := client.CreateSubscription(ctx, d); !errors.Is(err, mgmt.ErrConflict) {
		t.Errorf("expected ErrConflict on duplicate create, got %v", err)
	}

	// A second subscription, so the list has an order to preserve.
	other := subscription.NewDescription("orders", "billing")
	if _, err := client.CreateSubscription(ctx, other); err != nil {
		t.Fatalf("Failed to create second subscription: %v", err)
	}

	list, err := client.ListSubscriptions(ctx, "orders")
	if err != nil {
		t.Fatalf("Failed to list subscriptions: %v", err)
	}
	names := make([]string, len(list))
	for i, item := range list {
		names[i] = item.Name
	}
	if !reflect.DeepEqual(names, []string{"audit", "billing"}) {
		t.Errorf("list order mismatch: got %v", names)
	}

	// Update.
	created.MaxDeliveryCount = 50
	updated, err := client.UpdateSubscription(ctx, created)
	if err != nil {
		t.Fatalf("Failed to update subscription: %v", err)
	}
	if updated.MaxDeliveryCount != 50 {
		t.Errorf("updated MaxDeliveryCount mismatch: got %d, want 50", updated.MaxDeliveryCount)
	}

	// Updating a missing subscription fails instead of creating it.
	missing := subscription.NewDescription("orders", "nope")
	if _, err := client.UpdateSubscription(ctx, missing); !errors.Is(err, atom.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound on update of missing subscription, got %v", err)
	}

	// A missing subscription reads back as an entry-less feed.
	if _, err := client.GetSubscription(ctx, "orders", "nope"); !errors.Is(err, atom.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound on get of missing subscription, got %v", err)
	}

	// Delete, then confirm it is gone.
	if err := client.DeleteSubscription(ctx, "orders", "audit"); err != nil {
		t.Fatalf("Failed to delete subscription: %v", err)
	}
	if err := client.DeleteSubscription(ctx, "orders", "audit"); !errors.Is(err, atom.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound on double delete, got %v", err)
	}

	if err := client.DeleteSubscription(ctx, "orders", "billing"); err != nil {
		t.Fatalf("Failed to delete second subscription: %v", err)
	}
	if _, err := client.ListSubscriptions(ctx, "orders"); !errors.Is(err, atom.ErrEntityNotFound) {
		t.Errorf("expected ErrEntityNotFound on empty list, got %v", err)
	}
}

// fakeNamespace is an in-memory management endpoint speaking the Atom
// entry protocol over HTTP. Entries are stored as the raw documents the
// client sent and echoed back verbatim.
type fakeNamespace struct {
	mu      sync.Mutex
	entries map[string][]byte
	order   []string
}

func newFakeNamespace() *fakeNamespace {
	return &fakeNamespace{entries: make(map[string][]byte)}
}

func (n *fakeNamespace) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !strings.HasPrefix(r.Header.Get("Authorization"), "SharedAccessSignature ") {
		writeServiceError(w, http.StatusUnauthorized, "missing token")
		return
	}

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) < 2 || parts[1] != "subscriptions" {
		writeServiceError(w, http.StatusBadRequest, "unexpected path "+r.URL.Path)
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()

	if len(parts) == 2 {
		if r.Method != http.MethodGet {
			writeServiceError(w, http.StatusBadRequest, "unexpected method "+r.Method)
			return
		}
		n.writeFeed(w, parts[0])
		return
	}

	key := parts[0] + "/" + parts[2]
	switch r.Method {
	case http.MethodGet:
		entry, ok := n.entries[key]
		if !ok {
			// The service answers a read of a missing subscription
			// with an entry-less feed, not with a 404.
			fmt.Fprintf(w, `<feed xmlns=%q><title type="text">Subscriptions</title></feed>`, atom.NamespaceAtom)
			return
		}
		w.Write(entry)
	case http.MethodPut:
		if ct := r.Header.Get("Content-Type"); !strings.HasPrefix(ct, "application/atom+xml") {
			writeServiceError(w, http.StatusBadRequest, "unexpected content type "+ct)
			return
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeServiceError(w, http.StatusBadRequest, "unreadable body")
			return
		}
		_, exists := n.entries[key]
		if r.Header.Get("If-Match") != "" && !exists {
			writeServiceError(w, http.StatusNotFound, "subscription does not exist")
			return
		}
		if r.Header.Get("If-Match") == "" && exists {
			writeServiceError(w, http.StatusConflict, "subscription already exists")
			return
		}
		if !exists {
			n.order = append(n.order, key)
			w.WriteHeader(http.StatusCreated)
		}
		n.entries[key] = body
		w.Write(body)
	case http.MethodDelete:
		if _, ok := n.entries[key]; !ok {
			writeServiceError(w, http.StatusNotFound, "subscription does not exist")
			return
		}
		delete(n.entries, key)
		for i, k := range n.order {
			if k == key {
				n.order = append(n.order[:i], n.order[i+1:]...)
				break
			}
		}
	default:
		writeServiceError(w, http.StatusBadRequest, "unexpected method "+r.Method)
	}
}

func (n *fakeNamespace) writeFeed(w http.ResponseWriter, topic string) {
	doc := etree.NewDocument()
	feed := doc.CreateElement("feed")
	feed.CreateAttr("xmlns", atom.NamespaceAtom)
	title := feed.CreateElement("title")
	title.CreateAttr("type", "text")
	title.SetText("Subscriptions")

	for _, key := range n.order {
		if !strings.HasPrefix(key, topic+"/") {
			continue
		}
		entryDoc := etree.NewDocument()
		if err := entryDoc.ReadFromBytes(n.entries[key]); err != nil {
			writeServiceError(w, http.StatusInternalServerError, err.Error())
			return
		}
		feed.AddChild(entryDoc.Root())
	}

	data, err := doc.WriteToBytes()
	if err != nil {
		writeServiceError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Write(data)
}

func writeServiceError(w http.ResponseWriter, status int, detail string) {
	w.WriteHeader(status)
	fmt.Fprintf(w, "<Error><Code>%d</Code><Detail>%s</Detail></Error>", status, detail)
}
