package subscription

import (
	"fmt"
	"strings"
	"time"

	"github.com/sbatom/sbatom-go/pkg/addr"
	"github.com/sbatom/sbatom-go/pkg/iso8601"
)

// Service defaults applied by NewDescription.
const (
	DefaultLockDuration     = time.Minute
	DefaultMaxDeliveryCount = 10
)

// Description holds the management properties of a topic subscription.
type Description struct {
	// TopicName is the path of the parent topic. It is not part of the
	// wire entity; the management client uses it to address requests.
	TopicName string

	// Name is the subscription name. It travels as the Atom entry title.
	Name string

	// LockDuration is how long a delivered message stays locked before
	// it returns to the subscription.
	LockDuration time.Duration

	// RequiresSession constrains the subscription to session-aware
	// receivers.
	RequiresSession bool

	// DefaultMessageTimeToLive is applied to messages without their own
	// time to live. iso8601.Unbounded means messages never expire.
	DefaultMessageTimeToLive time.Duration

	// DeadLetteringOnMessageExpiration moves expired messages to the
	// dead letter queue instead of dropping them.
	DeadLetteringOnMessageExpiration bool

	// DeadLetteringOnFilterEvaluationExceptions moves messages that
	// crash a rule filter to the dead letter queue.
	DeadLetteringOnFilterEvaluationExceptions bool

	// DefaultRule is the routing rule created together with the
	// subscription. Nil means the service applies its own default.
	DefaultRule RuleSerializer

	// MaxDeliveryCount is how many deliveries are attempted before a
	// message is dead lettered.
	MaxDeliveryCount int32

	// EnableBatchedOperations lets the service batch internal store
	// operations for throughput.
	EnableBatchedOperations bool

	// Status is the administrative state of the subscription.
	Status Status

	// ForwardTo is the entity that receives messages instead of this
	// subscription. Nil means no forwarding.
	ForwardTo *string

	// UserMetadata is free-form text stored with the subscription.
	UserMetadata *string

	// ForwardDeadLetteredMessagesTo is the entity that receives dead
	// lettered messages. Nil means they stay on the subscription.
	ForwardDeadLetteredMessagesTo *string

	// AutoDeleteOnIdle is how long the subscription may stay idle
	// before the service removes it. iso8601.Unbounded disables the
	// cleanup.
	AutoDeleteOnIdle time.Duration
}

// NewDescription returns a subscription description populated with the
// service defaults for a create request.
func NewDescription(topicName, name string) *Description {
	return &Description{
		TopicName:                topicName,
		Name:                     name,
		LockDuration:             DefaultLockDuration,
		DefaultMessageTimeToLive: iso8601.Unbounded,
		DeadLetteringOnFilterEvaluationExceptions: true,
		MaxDeliveryCount:        DefaultMaxDeliveryCount,
		EnableBatchedOperations: true,
		Status:                  StatusActive,
		AutoDeleteOnIdle:        iso8601.Unbounded,
	}
}

// decodeBase returns the starting state for a decode. Only the two
// lifetime durations are preset: when the wire omits them the entity
// has no expiry, which is iso8601.Unbounded, not zero.
func decodeBase(topicName, name string) *Description {
	return &Description{
		TopicName:                topicName,
		Name:                     name,
		DefaultMessageTimeToLive: iso8601.Unbounded,
		AutoDeleteOnIdle:         iso8601.Unbounded,
	}
}

// NormalizeForwarding resolves the forwarding targets against the
// namespace base address, in place. Absent targets are left alone. The
// call is idempotent because already absolute targets pass through
// unchanged.
func (d *Description) NormalizeForwarding(baseAddress string) error {
	if err := normalizeAddress(d.ForwardTo, baseAddress); err != nil {
		return fmt.Errorf("ForwardTo: %w", err)
	}
	if err := normalizeAddress(d.ForwardDeadLetteredMessagesTo, baseAddress); err != nil {
		return fmt.Errorf("ForwardDeadLetteredMessagesTo: %w", err)
	}
	return nil
}

// normalizeAddress rewrites *value to its normalized form. Nil and
// blank values are not forwarding targets and stay untouched.
func normalizeAddress(value *string, baseAddress string) error {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	normalized, err := addr.Normalize(*value, baseAddress)
	if err != nil {
		return err
	}
	*value = normalized
	return nil
}
