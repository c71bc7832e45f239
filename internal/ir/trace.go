package ir

// Mode identifies which bootstrap path ran.
type Mode string

const (
	// ModeDirectAttach attaches to a development shell without selection.
	ModeDirectAttach Mode = "direct_attach"

	// ModeFetchSelect selects a permutation and loads it.
	ModeFetchSelect Mode = "fetch_select"
)

// Outcome is the terminal state of one bootstrap.
type Outcome string

const (
	// OutcomeStarted means the artifact entry point was invoked.
	OutcomeStarted Outcome = "started"

	// OutcomePending means loading began but both signals have not arrived yet.
	OutcomePending Outcome = "pending"

	// OutcomeAttached means direct-attach mode handed the frame to the shell.
	OutcomeAttached Outcome = "attached"

	// OutcomeBadProperty means a property value had no matching permutation.
	OutcomeBadProperty Outcome = "bad_property"

	// OutcomeUnsupported means a provider failed; the page is left inert.
	OutcomeUnsupported Outcome = "unsupported"

	// OutcomeBadLoad means the artifact or shell reported a load failure.
	OutcomeBadLoad Outcome = "bad_load"

	// OutcomeConfigError means a malformed metadata directive stopped the
	// bootstrap before selection.
	OutcomeConfigError Outcome = "config_error"
)

// Trace event kinds.
const (
	EventBootstrap      = "bootstrap"
	EventConfigError    = "config_error"
	EventDirective      = "directive"
	EventProperty       = "property"
	EventBadProperty    = "bad_property"
	EventProviderFailed = "provider_failed"
	EventSelected       = "selected"
	EventFrameCreated   = "frame_created"
	EventInjectionDone  = "injection_done"
	EventLoadDone       = "load_done"
	EventStarted        = "started"
	EventAttached       = "attached"
	EventBadLoad        = "bad_load"
)

// TraceEvent records one step of a bootstrap.
type TraceEvent struct {
	BootstrapID string            `json:"bootstrap_id"`
	Seq         int64             `json:"seq"`
	Kind        string            `json:"kind"`
	Attrs       map[string]string `json:"attrs,omitempty"`
}

// BootstrapRecord summarizes one bootstrap for the store.
type BootstrapRecord struct {
	ID           string  `json:"id"`
	Module       string  `json:"module"`
	Mode         Mode    `json:"mode"`
	Outcome      Outcome `json:"outcome"`
	ArtifactID   string  `json:"artifact_id,omitempty"`
	Target       string  `json:"target,omitempty"`
	ManifestHash string  `json:"manifest_hash,omitempty"`
	Seq          int64   `json:"seq"`
}
