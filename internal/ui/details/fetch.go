package details

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/unkn0wn-root/netlens/internal/capture"
)

const loadingPlaceholder = "Loading..."

var bodyFetchSeq uint64

func nextBodyToken() string {
	id := atomic.AddUint64(&bodyFetchSeq, 1)
	return fmt.Sprintf("body-%d", id)
}

// bodyLoadedMsg carries the token of the fetch that produced it. Only the
// fetch started for the current request may apply its result.
type bodyLoadedMsg struct {
	token string
	body  string
	err   error
}

func fetchBodyCmd(ctx context.Context, token string, rec *capture.Record) tea.Cmd {
	if rec == nil {
		return nil
	}
	return func() tea.Msg {
		body, err := rec.ResponseBody(ctx)
		return bodyLoadedMsg{token: token, body: body, err: err}
	}
}
