package types

// ExtractionStep is one line item of an ExtractionPlan: a single strategy
// to run against a page, in order (spec.md §3/§4.6).
type ExtractionStep struct {
	StepNumber int                `json:"step_number"`
	Strategy   ExtractionStrategy `json:"strategy"`
	Rationale  string             `json:"rationale"`
	// IsFallback marks the single step of the Router's default plan,
	// emitted when the analysis call fails or its response cannot be
	// parsed or validated. Steps from the zero-recommendation and
	// simple-page tie-breaks leave it false.
	IsFallback bool `json:"is_fallback"`
}

// ExtractionPlan is the Router's output for a single page: an ordered,
// length-capped list of steps; the same strategy may appear in more than
// one step (spec.md §4.5/§4.6).
type ExtractionPlan struct {
	PageIndex      int              `json:"page_index"`
	PageComplexity PageComplexity   `json:"page_complexity"`
	Steps          []ExtractionStep `json:"steps"`
}

// ExtractionResult is the outcome of running one ExtractionStep against a
// page (spec.md §4.7). Content holds the strategy's parsed output and is
// intentionally open-ended since each strategy's schema differs.
type ExtractionResult struct {
	StepNumber int                    `json:"step_number"`
	Strategy   ExtractionStrategy     `json:"strategy"`
	Success    bool                   `json:"success"`
	Content    map[string]interface{} `json:"content,omitempty"`
	Error      string                 `json:"error,omitempty"`
	ModelUsed  string                 `json:"model_used,omitempty"`
	ElapsedMS  int64                  `json:"elapsed_ms"`
}

// PageResult is the merged, per-page record the pipeline ultimately emits
// (spec.md §4.8/§8). Content holds the Merger's union of every successful
// ExtractionResult.Content on this page: "main_title"/"page_summary" as
// strings, "key_sections"/"visual_elements" as []map[string]interface{}.
// ExtractionMethod is a scalar ("smart_routing" or "fallback"), not a
// strategy name: it records how the plan was produced, not what ran.
type PageResult struct {
	PageIndex        int                    `json:"page_index"`
	PageComplexity   PageComplexity         `json:"page_complexity"`
	ExtractionMethod string                 `json:"extraction_method"`
	TotalSteps       int                    `json:"total_steps"`
	SuccessfulSteps  int                    `json:"successful_steps"`
	RefinementCycles int                    `json:"refinement_cycles"`
	Content          map[string]interface{} `json:"content"`
}
