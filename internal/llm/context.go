package llm

import "context"

// Purpose labels what a call is for in logs and metrics.
type Purpose string

const (
	PurposeDescribe Purpose = "describe"
	PurposeEvaluate Purpose = "evaluate"
	PurposeUnknown  Purpose = "unknown"
)

type purposeKey struct{}

// WithPurpose tags ctx so the logging and metrics decorators can label
// the call.
func WithPurpose(ctx context.Context, p Purpose) context.Context {
	return context.WithValue(ctx, purposeKey{}, p)
}

// PurposeFrom returns the tag set by WithPurpose, or PurposeUnknown.
func PurposeFrom(ctx context.Context) Purpose {
	p, ok := ctx.Value(purposeKey{}).(Purpose)
	if !ok || p == "" {
		return PurposeUnknown
	}
	return p
}
