package subscription

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"

	"github.com/sbatom/sbatom-go/pkg/iso8601"
)

// field binds one wire element to its Description property. The fields
// table is the single source of truth for the entity layout: encoding
// walks it in order, decoding looks elements up by name.
type field struct {
	name   string
	decode func(c Codec, d *Description, el *etree.Element) error
	encode func(c Codec, d *Description) (*etree.Element, error)
}

// fields lists the entity elements in the order the service expects
// them. The service validates element order on writes, so encode must
// never emit them in any other sequence.
var fields = []field{
	{
		name: "LockDuration",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			v, err := iso8601.ParseDuration(text(el))
			if err != nil {
				return err
			}
			d.LockDuration = v
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return textElement("LockDuration", iso8601.FormatDuration(d.LockDuration)), nil
		},
	},
	{
		name: "RequiresSession",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			return decodeBool(el, &d.RequiresSession)
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return boolElement("RequiresSession", d.RequiresSession), nil
		},
	},
	{
		name: "DefaultMessageTimeToLive",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			v, err := iso8601.ParseDuration(text(el))
			if err != nil {
				return err
			}
			d.DefaultMessageTimeToLive = v
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return lifetimeElement("DefaultMessageTimeToLive", d.DefaultMessageTimeToLive), nil
		},
	},
	{
		name: "DeadLetteringOnMessageExpiration",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			return decodeBool(el, &d.DeadLetteringOnMessageExpiration)
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return boolElement("DeadLetteringOnMessageExpiration", d.DeadLetteringOnMessageExpiration), nil
		},
	},
	{
		name: "DeadLetteringOnFilterEvaluationExceptions",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			return decodeBool(el, &d.DeadLetteringOnFilterEvaluationExceptions)
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return boolElement("DeadLetteringOnFilterEvaluationExceptions", d.DeadLetteringOnFilterEvaluationExceptions), nil
		},
	},
	{
		name: "DefaultRuleDescription",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			if c.Rules == nil {
				return nil
			}
			rule, err := c.Rules.ParseRule(el)
			if err != nil {
				return err
			}
			d.DefaultRule = rule
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			if d.DefaultRule == nil {
				return nil, nil
			}
			return d.DefaultRule.SerializeRule("DefaultRuleDescription")
		},
	},
	{
		name: "MaxDeliveryCount",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			v, err := strconv.ParseInt(text(el), 10, 32)
			if err != nil {
				return fmt.Errorf("invalid integer %q", text(el))
			}
			d.MaxDeliveryCount = int32(v)
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return textElement("MaxDeliveryCount", strconv.FormatInt(int64(d.MaxDeliveryCount), 10)), nil
		},
	},
	{
		name: "EnableBatchedOperations",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			return decodeBool(el, &d.EnableBatchedOperations)
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return boolElement("EnableBatchedOperations", d.EnableBatchedOperations), nil
		},
	},
	{
		name: "Status",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			v, err := ParseStatus(text(el))
			if err != nil {
				return err
			}
			d.Status = v
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return textElement("Status", d.Status.String()), nil
		},
	},
	{
		name: "ForwardTo",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			d.ForwardTo = optionalText(el, d.ForwardTo)
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return optionalTextElement("ForwardTo", d.ForwardTo), nil
		},
	},
	{
		name: "UserMetadata",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			d.UserMetadata = optionalText(el, d.UserMetadata)
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return optionalTextElement("UserMetadata", d.UserMetadata), nil
		},
	},
	{
		name: "ForwardDeadLetteredMessagesTo",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			d.ForwardDeadLetteredMessagesTo = optionalText(el, d.ForwardDeadLetteredMessagesTo)
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return optionalTextElement("ForwardDeadLetteredMessagesTo", d.ForwardDeadLetteredMessagesTo), nil
		},
	},
	{
		name: "AutoDeleteOnIdle",
		decode: func(c Codec, d *Description, el *etree.Element) error {
			v, err := iso8601.ParseDuration(text(el))
			if err != nil {
				return err
			}
			d.AutoDeleteOnIdle = v
			return nil
		},
		encode: func(c Codec, d *Description) (*etree.Element, error) {
			return lifetimeElement("AutoDeleteOnIdle", d.AutoDeleteOnIdle), nil
		},
	},
}

// fieldsByName indexes the field table for decoding.
var fieldsByName = func() map[string]field {
	m := make(map[string]field, len(fields))
	for _, f := range fields {
		m[f.name] = f
	}
	return m
}()

// text returns the element text with surrounding whitespace removed.
// Scalar values are always trimmed before parsing so indentation in
// pretty-printed documents does not change their meaning.
func text(el *etree.Element) string {
	return strings.TrimSpace(el.Text())
}

// optionalText returns the element text verbatim for optional string
// fields. A value that is empty or whitespace only means the field is
// absent, so the previous pointer is kept.
func optionalText(el *etree.Element, prev *string) *string {
	raw := el.Text()
	if strings.TrimSpace(raw) == "" {
		return prev
	}
	return &raw
}

func decodeBool(el *etree.Element, target *bool) error {
	switch text(el) {
	case "true":
		*target = true
	case "false":
		*target = false
	default:
		return fmt.Errorf("invalid boolean %q", text(el))
	}
	return nil
}

func textElement(name, value string) *etree.Element {
	el := etree.NewElement(name)
	el.SetText(value)
	return el
}

func boolElement(name string, value bool) *etree.Element {
	return textElement(name, strconv.FormatBool(value))
}

// lifetimeElement formats a lifetime duration, omitting the element
// entirely for iso8601.Unbounded because the wire format expresses an
// unlimited lifetime by absence.
func lifetimeElement(name string, value time.Duration) *etree.Element {
	if value == iso8601.Unbounded {
		return nil
	}
	return textElement(name, iso8601.FormatDuration(value))
}

// optionalTextElement emits an optional string field. Absent values and
// whitespace-only values produce no element.
func optionalTextElement(name string, value *string) *etree.Element {
	if value == nil || strings.TrimSpace(*value) == "" {
		return nil
	}
	return textElement(name, *value)
}
