// Package metadata ingests bootstrap configuration from document metadata.
//
// A host document declares configuration as <meta name content> pairs. Four
// names are recognized:
//
//	bootsel:property           name=value property override
//	bootsel:onPropertyErrorFn  handler for bad property reports
//	bootsel:onLoadErrorFn      handler for bad load reports
//	bootsel:base               path=module base path override
//
// Entries are processed in document order into a Config, the page-load
// scoped state consulted by providers, the error reporter and the dispatcher.
// A malformed handler directive raises an immediate alert; it is never routed
// to a user handler.
package metadata
