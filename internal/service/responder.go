package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"comprendre/internal/domain"
	"comprendre/internal/profile"
)

// Responder answers one question at a time against a built knowledge base:
// embed the question, retrieve top-k chunks, assemble the grounded prompt,
// invoke the generation model.
type Responder struct {
	embedder   domain.Embedder
	generator  domain.Generator
	collection domain.Collection
	profile    profile.Profile
	log        *zap.Logger
}

// NewResponder creates a responder. collection may be nil when the knowledge
// base build returned NotAvailable; every question then short-circuits to the
// profile's fallback answer without touching the embedder.
func NewResponder(embedder domain.Embedder, generator domain.Generator, collection domain.Collection, p profile.Profile, log *zap.Logger) *Responder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Responder{
		embedder:   embedder,
		generator:  generator,
		collection: collection,
		profile:    p,
		log:        log,
	}
}

// Ready reports whether a knowledge base is available for retrieval.
func (r *Responder) Ready() bool { return r.collection != nil }

// Answer returns the full answer text for the question. Empty retrieval
// yields the fixed fallback answer; the generation model is never called with
// an empty context.
func (r *Responder) Answer(ctx context.Context, question string) (string, error) {
	prompt, ok, err := r.assemble(ctx, question)
	if err != nil {
		return "", err
	}
	if !ok {
		return r.profile.Fallback, nil
	}
	answer, err := r.generator.Generate(ctx, prompt)
	if err != nil {
		return "", err
	}
	return answer, nil
}

// AnswerStream returns the answer as a lazy sequence of fragments. When
// retrieval is empty the fallback answer is delivered as a single fragment,
// again without a generation call.
func (r *Responder) AnswerStream(ctx context.Context, question string) (<-chan domain.Fragment, error) {
	prompt, ok, err := r.assemble(ctx, question)
	if err != nil {
		return nil, err
	}
	if !ok {
		out := make(chan domain.Fragment, 1)
		out <- domain.Fragment{Text: r.profile.Fallback}
		close(out)
		return out, nil
	}
	return r.generator.Stream(ctx, prompt)
}

// assemble embeds the question, retrieves context and builds the prompt.
// ok is false when there is no context to ground an answer on.
func (r *Responder) assemble(ctx context.Context, question string) (prompt string, ok bool, err error) {
	if r.collection == nil {
		return "", false, nil
	}
	vec, err := r.embedder.Embed(ctx, question, domain.IntentQuery)
	if err != nil {
		return "", false, err
	}
	results, err := r.collection.Query(vec, r.profile.TopK)
	if err != nil {
		return "", false, err
	}
	if len(results) == 0 {
		r.log.Info("retrieval empty", zap.String("domain", r.profile.Name))
		return "", false, nil
	}
	texts := make([]string, len(results))
	for i, res := range results {
		texts[i] = res.Text
	}
	return r.profile.BuildPrompt(strings.Join(texts, "\n\n"), question), true, nil
}
