// Package atom implements the Atom publishing envelope that the Service
// Bus management API wraps around entity descriptions.
//
// # Envelope Layout
//
// A single management resource travels as an Atom entry. The entry title
// carries the entity name and the content element carries the entity
// body, an element in the service's own namespace:
//
//	<entry xmlns="http://www.w3.org/2005/Atom">
//	  <title type="text">my-subscription</title>
//	  <content type="application/xml">
//	    <SubscriptionDescription xmlns="...">...</SubscriptionDescription>
//	  </content>
//	</entry>
//
// Collections travel as an Atom feed whose children are entries of the
// same shape. The service answers an empty collection with a feed that
// has no entries; UnwrapFeed treats that as ErrEntityNotFound, matching
// how the service reports a missing single resource.
//
// # Error Taxonomy
//
// ErrEntityNotFound covers every defect of the envelope itself: malformed
// XML, a missing or untitled entry, and a feed without entries. Field
// level failures inside an entity body are carried by DecodeError, which
// names the entity kind and the offending element and keeps the original
// cause for errors.Is and errors.As.
package atom
