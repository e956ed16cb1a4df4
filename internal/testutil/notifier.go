package testutil

import (
	"sync"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

// Kind is the severity of a recorded toast.
type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
	KindInfo    Kind = "info"
)

// Toast is one recorded notification.
type Toast struct {
	Kind    Kind
	Message string
}

var _ model.Notifier = (*RecordingNotifier)(nil)

// RecordingNotifier keeps every notification for assertions.
type RecordingNotifier struct {
	mu     sync.Mutex
	toasts []Toast
}

func (n *RecordingNotifier) Success(msg string) { n.add(KindSuccess, msg) }
func (n *RecordingNotifier) Error(msg string)   { n.add(KindError, msg) }
func (n *RecordingNotifier) Info(msg string)    { n.add(KindInfo, msg) }

func (n *RecordingNotifier) add(k Kind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toasts = append(n.toasts, Toast{Kind: k, Message: msg})
}

// Toasts returns a copy of everything recorded so far.
func (n *RecordingNotifier) Toasts() []Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]Toast(nil), n.toasts...)
}

// Last returns the most recent toast, or the zero Toast.
func (n *RecordingNotifier) Last() Toast {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.toasts) == 0 {
		return Toast{}
	}
	return n.toasts[len(n.toasts)-1]
}

// Messages returns the messages of the given kind in order.
func (n *RecordingNotifier) Messages(k Kind) []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, t := range n.toasts {
		if t.Kind == k {
			out = append(out, t.Message)
		}
	}
	return out
}
