package tutor

// Frame types exchanged with the voice gateway.
const (
	frameTranscript    = "transcript"
	frameAgentSpeaking = "agent_speaking"
	frameEvaluation    = "evaluation"

	frameText     = "text"
	frameMute     = "mute"
	frameEvaluate = "evaluate"
)

// inbound is a gateway-to-client frame.
type inbound struct {
	Type string `json:"type"`

	// transcript
	Role      string `json:"role,omitempty"`
	SegmentID string `json:"segment_id,omitempty"`
	Text      string `json:"text,omitempty"`
	Final     bool   `json:"final,omitempty"`

	// agent_speaking
	Speaking bool `json:"speaking,omitempty"`

	// evaluation
	QuestionID string `json:"question_id,omitempty"`
	Correct    bool   `json:"correct,omitempty"`
	Feedback   string `json:"feedback,omitempty"`
}

// outbound is a client-to-gateway frame.
type outbound struct {
	Type string `json:"type"`

	Text  string `json:"text,omitempty"`
	Muted *bool  `json:"muted,omitempty"`

	QuestionID string `json:"question_id,omitempty"`
	Question   string `json:"question,omitempty"`
	Answer     string `json:"answer,omitempty"`
}
