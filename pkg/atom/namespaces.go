package atom

// XML namespaces used by the management protocol.
const (
	// NamespaceAtom is the Atom syndication namespace that qualifies the
	// envelope elements (entry, feed, title, content).
	NamespaceAtom = "http://www.w3.org/2005/Atom"

	// NamespaceServiceBus qualifies entity description bodies and their
	// fields.
	NamespaceServiceBus = "http://schemas.microsoft.com/netservices/2010/10/servicebus/connect"

	// NamespaceSchemaInstance is the XML Schema instance namespace. The
	// wire format uses its type attribute to discriminate polymorphic
	// elements such as rule filters.
	NamespaceSchemaInstance = "http://www.w3.org/2001/XMLSchema-instance"
)
