// Package notify renders transient user-facing messages in the terminal.
package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/lipgloss"

	"github.com/dtroode/ayurveda-storefront/internal/model"
)

var _ model.Notifier = (*Toaster)(nil)

// Toaster writes one styled line per notification. Safe for concurrent use.
type Toaster struct {
	mu      sync.Mutex
	w       io.Writer
	success lipgloss.Style
	failure lipgloss.Style
	info    lipgloss.Style
}

// NewToaster renders for w; colours are dropped when w is not a terminal.
func NewToaster(w io.Writer) *Toaster {
	r := lipgloss.NewRenderer(w)
	return &Toaster{
		w:       w,
		success: r.NewStyle().Foreground(lipgloss.Color("35")).Bold(true),
		failure: r.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
		info:    r.NewStyle().Foreground(lipgloss.Color("33")),
	}
}

func (t *Toaster) Success(msg string) { t.write(t.success, "✓", msg) }
func (t *Toaster) Error(msg string)   { t.write(t.failure, "✗", msg) }
func (t *Toaster) Info(msg string)    { t.write(t.info, "i", msg) }

func (t *Toaster) write(style lipgloss.Style, icon, msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintln(t.w, style.Render(icon+" "+msg))
}
