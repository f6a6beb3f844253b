package rule

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/sbatom/sbatom-go/pkg/atom"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// ruleEntity names the rule vocabulary in decode errors.
const ruleEntity = "RuleDescription"

// Codec decodes rule elements. It implements the subscription codec's
// RuleParser capability, so plugging it in makes subscription decoding
// symmetric with encoding.
type Codec struct{}

var _ subscription.RuleParser = Codec{}

// ParseRule decodes a rule element into a Description. Children other
// than Filter, Action and Name, such as the CreatedAt timestamp the
// service adds, are skipped.
func (Codec) ParseRule(el *etree.Element) (subscription.RuleSerializer, error) {
	d := &Description{}
	for _, child := range el.ChildElements() {
		switch child.Tag {
		case "Name":
			d.Name = strings.TrimSpace(child.Text())
		case "Filter":
			f, err := parseFilter(child)
			if err != nil {
				return nil, &atom.DecodeError{Entity: ruleEntity, Elem: "Filter", Err: err}
			}
			d.Filter = f
		case "Action":
			a, err := parseAction(child)
			if err != nil {
				return nil, &atom.DecodeError{Entity: ruleEntity, Elem: "Action", Err: err}
			}
			d.Action = a
		}
	}
	return d, nil
}

func parseFilter(el *etree.Element) (Filter, error) {
	kind := typeAttr(el)
	switch kind {
	case "SqlFilter":
		expr := childText(el, "SqlExpression")
		if expr == "" {
			return nil, errors.New("SqlFilter has no SqlExpression")
		}
		lvl, err := compatibilityLevel(el)
		if err != nil {
			return nil, err
		}
		return SQLFilter{Expression: expr, CompatibilityLevel: lvl}, nil
	case "CorrelationFilter":
		var f CorrelationFilter
		for _, child := range el.ChildElements() {
			value := child.Text()
			if strings.TrimSpace(value) == "" {
				continue
			}
			switch child.Tag {
			case "CorrelationId":
				f.CorrelationID = &value
			case "MessageId":
				f.MessageID = &value
			case "To":
				f.To = &value
			case "ReplyTo":
				f.ReplyTo = &value
			case "Label":
				f.Label = &value
			case "SessionId":
				f.SessionID = &value
			case "ReplyToSessionId":
				f.ReplyToSessionID = &value
			case "ContentType":
				f.ContentType = &value
			}
		}
		return f, nil
	case "TrueFilter":
		return TrueFilter{}, nil
	case "FalseFilter":
		return FalseFilter{}, nil
	case "":
		return nil, errors.New("filter has no type attribute")
	default:
		return nil, fmt.Errorf("unsupported filter type %q", kind)
	}
}

func parseAction(el *etree.Element) (Action, error) {
	kind := typeAttr(el)
	switch kind {
	case "SqlRuleAction":
		expr := childText(el, "SqlExpression")
		if expr == "" {
			return nil, errors.New("SqlRuleAction has no SqlExpression")
		}
		lvl, err := compatibilityLevel(el)
		if err != nil {
			return nil, err
		}
		return SQLAction{Expression: expr, CompatibilityLevel: lvl}, nil
	case "EmptyRuleAction":
		return EmptyAction{}, nil
	case "":
		return nil, errors.New("action has no type attribute")
	default:
		return nil, fmt.Errorf("unsupported action type %q", kind)
	}
}

// typeAttr returns the XML Schema instance type attribute that
// discriminates polymorphic filter and action elements. It accepts the
// attribute both with a resolvable namespace and with the conventional
// i prefix, so detached fragments decode the same as full documents.
func typeAttr(el *etree.Element) string {
	for _, attr := range el.Attr {
		if attr.Key != "type" {
			continue
		}
		if attr.Space == "i" || attr.NamespaceURI() == atom.NamespaceSchemaInstance {
			return attr.Value
		}
	}
	return ""
}

func childText(el *etree.Element, name string) string {
	child := el.SelectElement(name)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Text())
}

func compatibilityLevel(el *etree.Element) (int, error) {
	raw := childText(el, "CompatibilityLevel")
	if raw == "" {
		return defaultCompatibilityLevel, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid CompatibilityLevel %q", raw)
	}
	return v, nil
}
