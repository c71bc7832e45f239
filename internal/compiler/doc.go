// Package compiler turns CUE permutation manifests into ir.Manifest values.
//
// A manifest declares the module name, its deferred-binding properties in
// evaluation order, the permutation table and any external dependencies:
//
//	module: "app"
//	property: {
//		platform: allowed: ["a", "b"]
//		locale: allowed: ["en", "fr"]
//		render: {allowed: ["std"], value: "std"} // fixed at build time
//	}
//	permutation: {
//		P1: ["a", "en", "std"]
//		P2: [["a", "fr", "std"], ["b", "fr", "std"]] // one artifact, many tuples
//	}
//	script: ["lib/polyfill.js"]
//	style: ["app.css"]
//
// Property order is the CUE field order and is never rearranged; every
// permutation tuple must list values in that same order. Validate reports
// tuples of the wrong arity, values outside a property's allowed set and
// duplicate tuples, which would otherwise make selection ambiguous.
package compiler
