// Package mailtest provides a mail.Sender that records messages.
package mailtest

import (
	"context"
	"sync"

	"github.com/campuscare/backend/internal/mail"
)

type Recorder struct {
	mu   sync.Mutex
	sent []mail.Message
	// Err, when set, is returned from every Send after recording.
	Err error
}

func (r *Recorder) Send(ctx context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return r.Err
}

func (r *Recorder) Sent() []mail.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]mail.Message, len(r.sent))
	copy(out, r.sent)
	return out
}

// SentTo returns the messages addressed to the recipient.
func (r *Recorder) SentTo(to string) []mail.Message {
	var out []mail.Message
	for _, m := range r.Sent() {
		if m.To == to {
			out = append(out, m)
		}
	}
	return out
}
