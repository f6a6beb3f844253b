package mgmt

import (
	"context"
	"fmt"
	"net/http"

	"github.com/sbatom/sbatom-go/pkg/atom"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// entityURL addresses one subscription of a topic.
func (c *Client) entityURL(topicName, name string) string {
	return fmt.Sprintf("%s%s/subscriptions/%s?api-version=%s", c.endpoint, topicName, name, apiVersion)
}

// collectionURL addresses all subscriptions of a topic.
func (c *Client) collectionURL(topicName string) string {
	return fmt.Sprintf("%s%s/subscriptions?api-version=%s", c.endpoint, topicName, apiVersion)
}

// GetSubscription fetches one subscription. The service reports a
// missing subscription either with a 404 or with a feed that has no
// entries; both surface as atom.ErrEntityNotFound.
func (c *Client) GetSubscription(ctx context.Context, topicName, name string) (*subscription.Description, error) {
	c.debugLog("getting subscription", "topic", topicName, "subscription", name)
	body, err := c.do(ctx, http.MethodGet, c.entityURL(topicName, name), nil, nil)
	if err != nil {
		return nil, err
	}
	root, err := atom.ParseDocument(body)
	if err != nil {
		return nil, err
	}
	return c.codec.DecodeEntry(root, topicName)
}

// ListSubscriptions fetches every subscription of a topic in the order
// the service returns them. A topic without subscriptions answers with
// an empty feed, which surfaces as atom.ErrEntityNotFound.
func (c *Client) ListSubscriptions(ctx context.Context, topicName string) ([]*subscription.Description, error) {
	c.debugLog("listing subscriptions", "topic", topicName)
	body, err := c.do(ctx, http.MethodGet, c.collectionURL(topicName), nil, nil)
	if err != nil {
		return nil, err
	}
	root, err := atom.ParseDocument(body)
	if err != nil {
		return nil, err
	}
	return c.codec.DecodeFeed(root, topicName)
}

// CreateSubscription creates the subscription and returns the service's
// view of it. Forwarding targets are normalized against the namespace
// endpoint before the request is sent. Creating a subscription that
// already exists fails with ErrConflict.
func (c *Client) CreateSubscription(ctx context.Context, d *subscription.Description) (*subscription.Description, error) {
	c.debugLog("creating subscription", "topic", d.TopicName, "subscription", d.Name)
	return c.putSubscription(ctx, d, nil)
}

// UpdateSubscription overwrites an existing subscription and returns
// the service's view of it. The unconditional If-Match makes the
// request an update: a missing subscription fails with
// atom.ErrEntityNotFound instead of being created.
func (c *Client) UpdateSubscription(ctx context.Context, d *subscription.Description) (*subscription.Description, error) {
	c.debugLog("updating subscription", "topic", d.TopicName, "subscription", d.Name)
	return c.putSubscription(ctx, d, map[string]string{"If-Match": "*"})
}

// DeleteSubscription removes the subscription. Deleting one that does
// not exist fails with atom.ErrEntityNotFound.
func (c *Client) DeleteSubscription(ctx context.Context, topicName, name string) error {
	c.debugLog("deleting subscription", "topic", topicName, "subscription", name)
	_, err := c.do(ctx, http.MethodDelete, c.entityURL(topicName, name), nil, nil)
	return err
}

func (c *Client) putSubscription(ctx context.Context, d *subscription.Description, headers map[string]string) (*subscription.Description, error) {
	if err := d.NormalizeForwarding(c.endpoint); err != nil {
		return nil, err
	}
	doc, err := c.codec.EncodeEntry(d)
	if err != nil {
		return nil, err
	}
	payload, err := doc.WriteToBytes()
	if err != nil {
		return nil, err
	}

	body, err := c.do(ctx, http.MethodPut, c.entityURL(d.TopicName, d.Name), payload, headers)
	if err != nil {
		return nil, err
	}
	root, err := atom.ParseDocument(body)
	if err != nil {
		return nil, err
	}
	return c.codec.DecodeEntry(root, d.TopicName)
}
