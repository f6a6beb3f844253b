// Package rule models the routing rules a subscription applies to
// incoming messages and their wire form.
//
// A rule pairs a filter, which decides whether a message is selected,
// with an optional action that rewrites selected messages. The filter
// and action sets are closed: the wire format discriminates them with
// an XML Schema instance type attribute and the service only accepts
// the kinds modeled here, so both interfaces are sealed to this
// package.
package rule

import (
	"errors"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// DefaultRuleName is the name the service gives the rule created
// together with a subscription.
const DefaultRuleName = "$Default"

// defaultCompatibilityLevel is the SQL dialect level the service
// expects when none is given.
const defaultCompatibilityLevel = 20

// Description is a routing rule.
type Description struct {
	// Name identifies the rule within its subscription. Empty is
	// allowed in requests; the service then names the rule itself.
	Name string

	// Filter selects messages. Nil encodes as TrueFilter.
	Filter Filter

	// Action rewrites selected messages. Nil means no action element
	// is sent.
	Action Action
}

// Filter decides whether a message is selected by a rule. The set of
// filters is fixed by the wire contract, so the interface is sealed.
type Filter interface {
	appendFilter(el *etree.Element) error
}

// Action rewrites messages selected by a rule. Sealed like Filter.
type Action interface {
	appendAction(el *etree.Element) error
}

// SerializeRule renders the rule under the given element name. It
// implements the subscription codec's rule capability.
func (d *Description) SerializeRule(elementName string) (*etree.Element, error) {
	root := etree.NewElement(elementName)
	filter := d.Filter
	if filter == nil {
		filter = TrueFilter{}
	}
	if err := filter.appendFilter(root.CreateElement("Filter")); err != nil {
		return nil, err
	}
	if d.Action != nil {
		if err := d.Action.appendAction(root.CreateElement("Action")); err != nil {
			return nil, err
		}
	}
	if d.Name != "" {
		root.CreateElement("Name").SetText(d.Name)
	}
	return root, nil
}

// SQLFilter selects messages with a SQL-92 condition over their
// properties, for example "color = 'blue' AND quantity > 10".
type SQLFilter struct {
	// Expression is the SQL condition. It must not be empty.
	Expression string

	// CompatibilityLevel pins the SQL dialect. Zero means the service
	// default.
	CompatibilityLevel int
}

func (f SQLFilter) appendFilter(el *etree.Element) error {
	if strings.TrimSpace(f.Expression) == "" {
		return errors.New("sql filter requires an expression")
	}
	el.CreateAttr("i:type", "SqlFilter")
	el.CreateElement("SqlExpression").SetText(f.Expression)
	el.CreateElement("CompatibilityLevel").SetText(strconv.Itoa(level(f.CompatibilityLevel)))
	return nil
}

// CorrelationFilter selects messages by matching broker properties
// verbatim. Nil fields are not matched; at least one must be set.
type CorrelationFilter struct {
	CorrelationID    *string
	MessageID        *string
	To               *string
	ReplyTo          *string
	Label            *string
	SessionID        *string
	ReplyToSessionID *string
	ContentType      *string
}

func (f CorrelationFilter) appendFilter(el *etree.Element) error {
	el.CreateAttr("i:type", "CorrelationFilter")
	matched := false
	for _, p := range []struct {
		name  string
		value *string
	}{
		{"CorrelationId", f.CorrelationID},
		{"MessageId", f.MessageID},
		{"To", f.To},
		{"ReplyTo", f.ReplyTo},
		{"Label", f.Label},
		{"SessionId", f.SessionID},
		{"ReplyToSessionId", f.ReplyToSessionID},
		{"ContentType", f.ContentType},
	} {
		if p.value == nil {
			continue
		}
		el.CreateElement(p.name).SetText(*p.value)
		matched = true
	}
	if !matched {
		return errors.New("correlation filter requires at least one property")
	}
	return nil
}

// TrueFilter selects every message. The wire format spells it as a SQL
// filter with a constant expression.
type TrueFilter struct{}

func (TrueFilter) appendFilter(el *etree.Element) error {
	el.CreateAttr("i:type", "TrueFilter")
	el.CreateElement("SqlExpression").SetText("1=1")
	el.CreateElement("CompatibilityLevel").SetText(strconv.Itoa(defaultCompatibilityLevel))
	return nil
}

// FalseFilter selects no messages.
type FalseFilter struct{}

func (FalseFilter) appendFilter(el *etree.Element) error {
	el.CreateAttr("i:type", "FalseFilter")
	el.CreateElement("SqlExpression").SetText("1=0")
	el.CreateElement("CompatibilityLevel").SetText(strconv.Itoa(defaultCompatibilityLevel))
	return nil
}

// SQLAction rewrites selected messages with SQL-92 SET expressions,
// for example "SET priority = 'high'".
type SQLAction struct {
	// Expression is the SQL action. It must not be empty.
	Expression string

	// CompatibilityLevel pins the SQL dialect. Zero means the service
	// default.
	CompatibilityLevel int
}

func (a SQLAction) appendAction(el *etree.Element) error {
	if strings.TrimSpace(a.Expression) == "" {
		return errors.New("sql action requires an expression")
	}
	el.CreateAttr("i:type", "SqlRuleAction")
	el.CreateElement("SqlExpression").SetText(a.Expression)
	el.CreateElement("CompatibilityLevel").SetText(strconv.Itoa(level(a.CompatibilityLevel)))
	return nil
}

// EmptyAction leaves selected messages unchanged.
type EmptyAction struct{}

func (EmptyAction) appendAction(el *etree.Element) error {
	el.CreateAttr("i:type", "EmptyRuleAction")
	return nil
}

func level(v int) int {
	if v == 0 {
		return defaultCompatibilityLevel
	}
	return v
}

var _ subscription.RuleSerializer = (*Description)(nil)
