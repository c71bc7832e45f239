// Package selection picks one permutation for the current environment.
//
// Three pieces cooperate:
//
//   - Registry maps property names to providers, zero-argument functions
//     that read one property's value from the environment.
//   - Table is a trie over ordered property values. Each level corresponds
//     to one property in declaration order; leaves hold artifact IDs.
//   - Selector walks the Table one property at a time, evaluating each
//     provider only when its level is reached.
//
// A value missing from the current trie node ends selection with a
// *BadPropertyError carrying the property, the keys present at that node
// and the offending value. A provider that fails (returns an error other
// than ErrUnset, or panics) ends selection with a *ProviderError; callers
// treat that as an unsupported environment and stay silent.
package selection
