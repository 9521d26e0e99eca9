package jobs

// GenerationStatus is the reconciled, presentation-facing view of a
// GenerationJob. Its JSON shape is shared with the web client as-is.
type GenerationStatus struct {
	Status      GenerationState `json:"status"`
	Progress    int             `json:"progress"`
	CurrentStep string          `json:"currentStep"`
	Resumable   *bool           `json:"resumable,omitempty"`
	Sections    map[string]bool `json:"sections,omitempty"`
}

const (
	StepNotStarted      = "Not started"
	StepPlaceholder     = "Processing..."
	StepGenerating      = "Generating your mystery package..."
	StepCompleted       = "Package generation completed"
	StepStatusCheckFail = "Unable to check generation status"
	StepStarting        = "Starting generation"
	StepTriggered       = "Generation request sent"
	StepTriggerFailed   = "Generation failed to start"
)

func NotStartedStatus() GenerationStatus {
	return GenerationStatus{Status: StateNotStarted, Progress: 0, CurrentStep: StepNotStarted}
}

func CompletedStatus() GenerationStatus {
	return GenerationStatus{
		Status:      StateCompleted,
		Progress:    100,
		CurrentStep: StepCompleted,
		Sections:    AllSectionsComplete(),
	}
}

func (s GenerationStatus) Completed() bool { return s.Status == StateCompleted }
