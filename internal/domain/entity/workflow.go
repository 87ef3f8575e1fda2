package entity

import "strings"

type WorkflowStatus string

const (
	StatusOK          WorkflowStatus = "ok"
	StatusError       WorkflowStatus = "error"
	StatusLoginFailed WorkflowStatus = "login_failed"
	StatusNoItems     WorkflowStatus = "no_items"
	StatusFailedAdd   WorkflowStatus = "failed_add"
)

type Phase string

const (
	PhaseLogin    Phase = "login"
	PhaseSearch   Phase = "search"
	PhaseCart     Phase = "cart"
	PhaseCheckout Phase = "checkout"
)

// Artifact is a screenshot + HTML snapshot pair captured at a checkpoint.
// Capture is best-effort: an empty path means that half of the capture failed.
type Artifact struct {
	ScreenshotPath string `json:"screenshot,omitempty"`
	HTMLPath       string `json:"html,omitempty"`
	StepLabel      string `json:"step_label"`
}

type StepStatus string

const (
	StepSuccess StepStatus = "success"
	StepSkipped StepStatus = "skipped"
	StepFailed  StepStatus = "failed"
)

type FailureKind string

const (
	FailTimeout   FailureKind = "timeout"
	FailException FailureKind = "exception"
)

// StepResult records the outcome of one step inside a phase. Skips and
// per-item failures end up here instead of being silently swallowed.
type StepResult struct {
	Name   string     `json:"name"`
	Status StepStatus `json:"status"`
	Reason string     `json:"reason,omitempty"`
}

// PhaseResult is the outcome of one phase executor.
type PhaseResult struct {
	Phase        Phase       `json:"phase"`
	Status       StepStatus  `json:"status"`
	Substatus    string      `json:"substatus"`
	Kind         FailureKind `json:"kind,omitempty"`
	Message      string      `json:"message,omitempty"`
	Artifacts    []Artifact  `json:"artifacts,omitempty"`
	Steps        []StepResult `json:"steps,omitempty"`
	ProductCount int         `json:"product_count,omitempty"`
	AddedCount   int         `json:"added_count,omitempty"`
}

// WorkflowResult is the terminal record of one workflow run.
type WorkflowResult struct {
	Status           WorkflowStatus   `json:"status"`
	Artifacts        []Artifact       `json:"artifacts"`
	PhaseResults     map[Phase]string `json:"phase_results"`
	Phases           []PhaseResult    `json:"phases,omitempty"`
	StepCounts       map[Phase]int    `json:"workflow_steps"`
	TotalScreenshots int              `json:"total_screenshots"`
	Message          string           `json:"message,omitempty"`
}

func NewWorkflowResult() *WorkflowResult {
	return &WorkflowResult{
		Artifacts:    []Artifact{},
		PhaseResults: make(map[Phase]string),
		StepCounts:   make(map[Phase]int),
	}
}

// Absorb appends a phase outcome to the run, keeping artifact order.
func (r *WorkflowResult) Absorb(pr PhaseResult) {
	r.Artifacts = append(r.Artifacts, pr.Artifacts...)
	r.Phases = append(r.Phases, pr)
	r.PhaseResults[pr.Phase] = pr.Substatus
}

// Finalize fills the derived aggregates once all phases have run.
func (r *WorkflowResult) Finalize() {
	r.TotalScreenshots = len(r.Artifacts)
	r.StepCounts = CountByPhase(r.Artifacts)
}

// CountByPhase classifies artifacts by the phase substring in their label.
func CountByPhase(artifacts []Artifact) map[Phase]int {
	counts := make(map[Phase]int)
	for _, a := range artifacts {
		for _, p := range []Phase{PhaseLogin, PhaseSearch, PhaseCart, PhaseCheckout} {
			if strings.Contains(a.StepLabel, string(p)) {
				counts[p]++
			}
		}
	}
	return counts
}
