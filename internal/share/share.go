// Package share hands text to whatever the host uses as a share target.
package share

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
)

var ErrUnavailable = errors.New("share: target unavailable")

const (
	KindClipboard = "clipboard"
	KindStdout    = "stdout"
)

type Message struct {
	Message string
}

type Sharer interface {
	Share(msg Message) error
}

type SharerFunc func(msg Message) error

func (f SharerFunc) Share(msg Message) error {
	return f(msg)
}

// ResultMsg reports the outcome of a share command back to the update loop.
type ResultMsg struct {
	Size int
	Err  error
}

// Cmd shares msg off the update loop. Failures are reported, never handled.
func Cmd(s Sharer, msg Message) tea.Cmd {
	if s == nil {
		return nil
	}
	return func() tea.Msg {
		return ResultMsg{Size: len(msg.Message), Err: s.Share(msg)}
	}
}

type Clipboard struct{}

func (Clipboard) Share(msg Message) error {
	if clipboard.Unsupported {
		return ErrUnavailable
	}
	if err := clipboard.WriteAll(msg.Message); err != nil {
		return fmt.Errorf("clipboard: %w", err)
	}
	return nil
}

type Writer struct {
	W io.Writer
}

func (w Writer) Share(msg Message) error {
	if w.W == nil {
		return ErrUnavailable
	}
	_, err := io.WriteString(w.W, msg.Message+"\n")
	return err
}

// New picks a sharer by name. stdout shares go to out.
func New(kind string, out io.Writer) (Sharer, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "", KindClipboard:
		return Clipboard{}, nil
	case KindStdout:
		return Writer{W: out}, nil
	default:
		return nil, fmt.Errorf("unknown share target %q", kind)
	}
}
