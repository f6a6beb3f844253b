package subscription

import (
	"errors"
	"fmt"

	"github.com/beevik/etree"

	"github.com/sbatom/sbatom-go/pkg/atom"
)

// entityName is the wire name of the subscription entity body.
const entityName = "SubscriptionDescription"

// RuleSerializer is the encoding capability of a routing rule. The
// codec asks the rule to render itself under the element name the
// entity layout dictates.
type RuleSerializer interface {
	SerializeRule(elementName string) (*etree.Element, error)
}

// RuleParser is the decoding capability for routing rules.
type RuleParser interface {
	ParseRule(el *etree.Element) (RuleSerializer, error)
}

// Codec translates subscription descriptions to and from Atom
// envelopes. The zero value works but skips default rule elements; set
// Rules to decode them.
type Codec struct {
	// Rules parses DefaultRuleDescription elements. If nil, rule
	// elements are skipped like any other unknown element.
	Rules RuleParser
}

// DecodeEntry decodes a subscription description from an Atom entry
// root. The entry title provides the subscription name; topicName is
// supplied by the caller because the entity body does not carry it.
// Unknown elements are skipped. A known element with a malformed value
// aborts the decode with an atom.DecodeError.
func (c Codec) DecodeEntry(root *etree.Element, topicName string) (*Description, error) {
	title, body, err := atom.UnwrapEntry(root, entityName)
	if err != nil {
		return nil, err
	}
	d := decodeBase(topicName, title)
	for _, el := range body.ChildElements() {
		f, ok := fieldsByName[el.Tag]
		if !ok {
			continue
		}
		if err := f.decode(c, d, el); err != nil {
			var derr *atom.DecodeError
			if errors.As(err, &derr) {
				return nil, err
			}
			return nil, &atom.DecodeError{Entity: entityName, Elem: el.Tag, Err: err}
		}
	}
	return d, nil
}

// DecodeFeed decodes every entry of an Atom feed root, preserving the
// document order. The first undecodable entry aborts the whole feed.
func (c Codec) DecodeFeed(root *etree.Element, topicName string) ([]*Description, error) {
	entries, err := atom.UnwrapFeed(root)
	if err != nil {
		return nil, err
	}
	descriptions := make([]*Description, 0, len(entries))
	for _, entry := range entries {
		d, err := c.DecodeEntry(entry, topicName)
		if err != nil {
			return nil, err
		}
		descriptions = append(descriptions, d)
	}
	return descriptions, nil
}

// EncodeEntry renders the description as an Atom entry document ready
// to be sent to the service. Fields appear in the fixed wire order;
// unbounded lifetimes and absent optional strings are omitted.
func (c Codec) EncodeEntry(d *Description) (*etree.Document, error) {
	body := etree.NewElement(entityName)
	body.CreateAttr("xmlns", atom.NamespaceServiceBus)
	body.CreateAttr("xmlns:i", atom.NamespaceSchemaInstance)
	for _, f := range fields {
		el, err := f.encode(c, d)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", f.name, err)
		}
		if el == nil {
			continue
		}
		body.AddChild(el)
	}
	return atom.WrapEntry(d.Name, body), nil
}
