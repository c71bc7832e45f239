// Package harness runs bootstrap scenarios against a simulated page.
//
// A scenario names a CUE manifest, describes the page (computed property
// values, failing providers, metadata, development shell, signal order) and
// states the expected outcome. The harness compiles the manifest, bootstraps
// it on simhost with a fixed bootstrap ID and a fresh logical clock, and
// checks the result.
//
// # Scenario Format
//
//	name: fetch_select
//	description: "Selects the webkit/fr permutation and starts it"
//	manifest: ../../../../testdata/manifests/app
//	bootstrap_id: boot-1
//	env: { platform: webkit, locale: fr }
//	metas:
//	  - { name: "bootsel:base", content: "/static/app=app" }
//	handlers: [ onBadProp ]
//	order: inject-first
//	expect:
//	  outcome: started
//	  artifact: B2
//	  target: /static/app/B2.cache.html
//	  alerts: 0
//	  started: 1
//	assertions:
//	  - type: trace_order
//	    kinds: [ selected, injection_done, load_done, started ]
//
// # Assertion Types
//
//   - trace_contains: an event of the given kind whose attrs include the
//     given subset
//   - trace_order: kinds appear in the given order (not necessarily adjacent)
//   - trace_count: an event kind appears exactly N times
//
// # Golden Traces
//
// RunWithGolden snapshots the trace as canonical JSON and compares it with
// testdata/golden/<name>.golden. Regenerate with
//
//	go test ./internal/harness -update
package harness
