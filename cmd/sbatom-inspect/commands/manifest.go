package commands

import (
	"errors"
	"fmt"

	"github.com/sbatom/sbatom-go/pkg/iso8601"
	"github.com/sbatom/sbatom-go/pkg/rule"
	"github.com/sbatom/sbatom-go/pkg/subscription"
)

// manifest is the YAML form of a subscription description. Duration
// fields hold ISO-8601 literals; leaving a lifetime empty means
// unbounded. Omitted booleans and counts keep the service defaults.
// Only SQL rules are representable: other filter kinds export with an
// empty expression, which reads back as the match-everything filter.
type manifest struct {
	Topic                                     string        `yaml:"topic,omitempty" json:"topic,omitempty"`
	Name                                      string        `yaml:"name" json:"name"`
	LockDuration                              string        `yaml:"lockDuration,omitempty" json:"lockDuration,omitempty"`
	RequiresSession                           *bool         `yaml:"requiresSession,omitempty" json:"requiresSession,omitempty"`
	DefaultMessageTimeToLive                  string        `yaml:"defaultMessageTimeToLive,omitempty" json:"defaultMessageTimeToLive,omitempty"`
	DeadLetteringOnMessageExpiration          *bool         `yaml:"deadLetteringOnMessageExpiration,omitempty" json:"deadLetteringOnMessageExpiration,omitempty"`
	DeadLetteringOnFilterEvaluationExceptions *bool         `yaml:"deadLetteringOnFilterEvaluationExceptions,omitempty" json:"deadLetteringOnFilterEvaluationExceptions,omitempty"`
	MaxDeliveryCount                          *int32        `yaml:"maxDeliveryCount,omitempty" json:"maxDeliveryCount,omitempty"`
	EnableBatchedOperations                   *bool         `yaml:"enableBatchedOperations,omitempty" json:"enableBatchedOperations,omitempty"`
	Status                                    string        `yaml:"status,omitempty" json:"status,omitempty"`
	ForwardTo                                 string        `yaml:"forwardTo,omitempty" json:"forwardTo,omitempty"`
	UserMetadata                              string        `yaml:"userMetadata,omitempty" json:"userMetadata,omitempty"`
	ForwardDeadLetteredMessagesTo             string        `yaml:"forwardDeadLetteredMessagesTo,omitempty" json:"forwardDeadLetteredMessagesTo,omitempty"`
	AutoDeleteOnIdle                          string        `yaml:"autoDeleteOnIdle,omitempty" json:"autoDeleteOnIdle,omitempty"`
	DefaultRule                               *ruleManifest `yaml:"defaultRule,omitempty" json:"defaultRule,omitempty"`
}

// ruleManifest is the YAML form of a routing rule.
type ruleManifest struct {
	Name          string `yaml:"name,omitempty" json:"name,omitempty"`
	SQLExpression string `yaml:"sqlExpression,omitempty" json:"sqlExpression,omitempty"`
	Action        string `yaml:"action,omitempty" json:"action,omitempty"`
}

// toDescription builds a description from the manifest, starting from
// the service defaults.
func (m *manifest) toDescription() (*subscription.Description, error) {
	if m.Name == "" {
		return nil, errors.New("name is required")
	}
	d := subscription.NewDescription(m.Topic, m.Name)

	if m.LockDuration != "" {
		v, err := iso8601.ParseDuration(m.LockDuration)
		if err != nil {
			return nil, fmt.Errorf("lockDuration: %w", err)
		}
		d.LockDuration = v
	}
	if m.DefaultMessageTimeToLive != "" {
		v, err := iso8601.ParseDuration(m.DefaultMessageTimeToLive)
		if err != nil {
			return nil, fmt.Errorf("defaultMessageTimeToLive: %w", err)
		}
		d.DefaultMessageTimeToLive = v
	}
	if m.AutoDeleteOnIdle != "" {
		v, err := iso8601.ParseDuration(m.AutoDeleteOnIdle)
		if err != nil {
			return nil, fmt.Errorf("autoDeleteOnIdle: %w", err)
		}
		d.AutoDeleteOnIdle = v
	}
	if m.RequiresSession != nil {
		d.RequiresSession = *m.RequiresSession
	}
	if m.DeadLetteringOnMessageExpiration != nil {
		d.DeadLetteringOnMessageExpiration = *m.DeadLetteringOnMessageExpiration
	}
	if m.DeadLetteringOnFilterEvaluationExceptions != nil {
		d.DeadLetteringOnFilterEvaluationExceptions = *m.DeadLetteringOnFilterEvaluationExceptions
	}
	if m.MaxDeliveryCount != nil {
		d.MaxDeliveryCount = *m.MaxDeliveryCount
	}
	if m.EnableBatchedOperations != nil {
		d.EnableBatchedOperations = *m.EnableBatchedOperations
	}
	if m.Status != "" {
		s, err := subscription.ParseStatus(m.Status)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		d.Status = s
	}
	if m.ForwardTo != "" {
		v := m.ForwardTo
		d.ForwardTo = &v
	}
	if m.UserMetadata != "" {
		v := m.UserMetadata
		d.UserMetadata = &v
	}
	if m.ForwardDeadLetteredMessagesTo != "" {
		v := m.ForwardDeadLetteredMessagesTo
		d.ForwardDeadLetteredMessagesTo = &v
	}
	if m.DefaultRule != nil {
		d.DefaultRule = m.DefaultRule.toRule()
	}
	return d, nil
}

func (r *ruleManifest) toRule() *rule.Description {
	d := &rule.Description{Name: r.Name}
	if r.SQLExpression != "" {
		d.Filter = rule.SQLFilter{Expression: r.SQLExpression}
	} else {
		d.Filter = rule.TrueFilter{}
	}
	if r.Action != "" {
		d.Action = rule.SQLAction{Expression: r.Action}
	}
	return d
}

// manifestFromDescription renders a description for display or export.
func manifestFromDescription(d *subscription.Description) manifest {
	m := manifest{
		Topic:                            d.TopicName,
		Name:                             d.Name,
		LockDuration:                     iso8601.FormatDuration(d.LockDuration),
		RequiresSession:                  boolptr(d.RequiresSession),
		DeadLetteringOnMessageExpiration: boolptr(d.DeadLetteringOnMessageExpiration),
		DeadLetteringOnFilterEvaluationExceptions: boolptr(d.DeadLetteringOnFilterEvaluationExceptions),
		MaxDeliveryCount:        int32ptr(d.MaxDeliveryCount),
		EnableBatchedOperations: boolptr(d.EnableBatchedOperations),
		Status:                  d.Status.String(),
	}
	if d.DefaultMessageTimeToLive != iso8601.Unbounded {
		m.DefaultMessageTimeToLive = iso8601.FormatDuration(d.DefaultMessageTimeToLive)
	}
	if d.AutoDeleteOnIdle != iso8601.Unbounded {
		m.AutoDeleteOnIdle = iso8601.FormatDuration(d.AutoDeleteOnIdle)
	}
	if d.ForwardTo != nil {
		m.ForwardTo = *d.ForwardTo
	}
	if d.UserMetadata != nil {
		m.UserMetadata = *d.UserMetadata
	}
	if d.ForwardDeadLetteredMessagesTo != nil {
		m.ForwardDeadLetteredMessagesTo = *d.ForwardDeadLetteredMessagesTo
	}
	if rd, ok := d.DefaultRule.(*rule.Description); ok {
		m.DefaultRule = ruleManifestFrom(rd)
	}
	return m
}

func ruleManifestFrom(rd *rule.Description) *ruleManifest {
	rm := &ruleManifest{Name: rd.Name}
	switch f := rd.Filter.(type) {
	case rule.SQLFilter:
		rm.SQLExpression = f.Expression
	case rule.FalseFilter:
		rm.SQLExpression = "1=0"
	}
	if a, ok := rd.Action.(rule.SQLAction); ok {
		rm.Action = a.Expression
	}
	return rm
}

func boolptr(v bool) *bool {
	return &v
}

func int32ptr(v int32) *int32 {
	return &v
}
