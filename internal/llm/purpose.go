package llm

import "context"

// Purpose labels why the tutor asked for a completion. It selects the
// generation profile and is recorded on every request event.
type Purpose string

const (
	PurposeTutorChat    Purpose = "tutor-chat"
	PurposeEvaluation   Purpose = "answer-eval"
	PurposeLessonRecap  Purpose = "lesson-recap"
	purposeUnclassified Purpose = "unknown"
)

// Profile holds the generation defaults for one purpose. Zero fields leave
// the request (or the provider) to decide.
type Profile struct {
	// Model overrides the provider's configured model, e.g. a cheaper
	// model for grading.
	Model       string
	MaxTokens   int
	Temperature float64
}

// DefaultProfiles keeps chat replies short and conversational, grading
// close to deterministic, and recaps long enough to list key points.
func DefaultProfiles() map[Purpose]Profile {
	return map[Purpose]Profile{
		PurposeTutorChat:   {MaxTokens: 400, Temperature: 0.4},
		PurposeEvaluation:  {MaxTokens: 300, Temperature: 0.1},
		PurposeLessonRecap: {MaxTokens: 700, Temperature: 0.3},
	}
}

type purposeKey struct{}

// WithPurpose tags ctx with the purpose of the next Generate call.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the purpose tagged on ctx, or "unknown".
func PurposeFrom(ctx context.Context) Purpose {
	if p, ok := ctx.Value(purposeKey{}).(Purpose); ok && p != "" {
		return p
	}
	return purposeUnclassified
}

// ProfileProvider fills unset request fields from the caller's purpose.
type ProfileProvider struct {
	inner    Provider
	profiles map[Purpose]Profile
}

// WithProfiles wraps p so that requests inherit their purpose's profile.
func WithProfiles(p Provider, profiles map[Purpose]Profile) Provider {
	return &ProfileProvider{inner: p, profiles: profiles}
}

func (pp *ProfileProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	return pp.inner.Generate(ctx, pp.profiles[PurposeFrom(ctx)].apply(req))
}

func (pp *ProfileProvider) ModelID() string {
	return pp.inner.ModelID()
}

func (prof Profile) apply(req Request) Request {
	if req.Model == "" {
		req.Model = prof.Model
	}
	if req.MaxTokens == 0 {
		req.MaxTokens = prof.MaxTokens
	}
	if req.Temperature == 0 {
		req.Temperature = prof.Temperature
	}
	return req
}
