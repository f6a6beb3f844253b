// Package subscription models topic subscriptions and translates them
// to and from the management wire format.
//
// # Data Model
//
// Description is the in-memory form of a subscription. NewDescription
// returns one populated with the service defaults, ready to be adjusted
// and sent in a create request. Fields the wire format treats as
// optional are pointers and nil means absent.
//
// # Wire Mapping
//
// Codec translates between Description values and the Atom envelopes
// defined in the atom package. Encoding always emits the entity fields
// in the order the service expects. Decoding skips elements it does not
// know, so additions to the service contract do not break existing
// clients, but it is strict about the values of the elements it does
// know: a malformed boolean, count, duration or status literal aborts
// the decode with an atom.DecodeError naming the element.
//
// # Rules
//
// A subscription may carry a default routing rule. The rule vocabulary
// lives in its own package; this one only depends on the RuleSerializer
// and RuleParser capabilities, keeping the two vocabularies independent.
package subscription
