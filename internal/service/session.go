package service

import (
	"context"
	"strings"

	"comprendre/internal/domain"
)

// Session processes one question at a time for a single conversation. The
// user message is appended before generation starts; the assistant message is
// appended only once a final answer (or the fallback) exists, so a failed
// turn leaves the question honestly unanswered in the log.
type Session struct {
	conv      *domain.Conversation
	responder *Responder
}

func NewSession(conv *domain.Conversation, responder *Responder) *Session {
	return &Session{conv: conv, responder: responder}
}

func (s *Session) Conversation() *domain.Conversation { return s.conv }

// Ask runs one full turn and returns the answer text.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	s.conv.Append(domain.RoleUser, question)
	answer, err := s.responder.Answer(ctx, question)
	if err != nil {
		return "", err
	}
	s.conv.Append(domain.RoleAssistant, answer)
	return answer, nil
}

// AskStream runs one turn with a streamed answer. The returned channel
// mirrors the responder's fragments; once the stream ends cleanly the
// accumulated answer is committed to the conversation. An errored or
// abandoned stream never appends an assistant message.
func (s *Session) AskStream(ctx context.Context, question string) (<-chan domain.Fragment, error) {
	s.conv.Append(domain.RoleUser, question)
	in, err := s.responder.AnswerStream(ctx, question)
	if err != nil {
		return nil, err
	}
	out := make(chan domain.Fragment)
	go func() {
		defer close(out)
		var full strings.Builder
		failed := false
		for frag := range in {
			if frag.Err != nil {
				failed = true
			} else {
				full.WriteString(frag.Text)
			}
			select {
			case out <- frag:
			case <-ctx.Done():
				return
			}
		}
		if !failed && full.Len() > 0 {
			s.conv.Append(domain.RoleAssistant, full.String())
		}
	}()
	return out, nil
}
