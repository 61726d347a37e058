package details

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/unkn0wn-root/netlens/internal/bindings"
)

type keyMap struct {
	Next      key.Binding
	Prev      key.Binding
	Activate  key.Binding
	Share     key.Binding
	ShareFull key.Binding
	ShareCurl key.Binding
	PageUp    key.Binding
	PageDown  key.Binding
	Up        key.Binding
	Down      key.Binding
	Close     key.Binding
}

func keysFrom(m *bindings.Map) keyMap {
	if m == nil {
		m = bindings.DefaultMap()
	}
	bind := func(action bindings.ActionID, desc string) key.Binding {
		keys := m.Keys(action)
		if len(keys) == 0 {
			return key.NewBinding(key.WithDisabled())
		}
		return key.NewBinding(
			key.WithKeys(keys...),
			key.WithHelp(helpLabel(keys[0]), desc),
		)
	}
	return keyMap{
		Next:      bind(bindings.ActionFocusNext, "next"),
		Prev:      bind(bindings.ActionFocusPrev, "prev"),
		Activate:  bind(bindings.ActionActivate, "toggle"),
		Share:     bind(bindings.ActionShare, "share"),
		ShareFull: bind(bindings.ActionShareFull, "share request"),
		ShareCurl: bind(bindings.ActionShareCurl, "share cURL"),
		PageUp:    bind(bindings.ActionBodyPageUp, "body up"),
		PageDown:  bind(bindings.ActionBodyPageDown, "body down"),
		Up:        bind(bindings.ActionScrollUp, "scroll"),
		Down:      bind(bindings.ActionScrollDown, "scroll"),
		Close:     bind(bindings.ActionClose, "close"),
	}
}

func helpLabel(k string) string {
	switch k {
	case " ":
		return "space"
	case "up":
		return "↑"
	case "down":
		return "↓"
	default:
		return k
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Next, k.Activate, k.Share, k.ShareFull, k.ShareCurl, k.Close}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Next, k.Prev, k.Activate},
		{k.Share, k.ShareFull, k.ShareCurl},
		{k.Up, k.Down, k.PageUp, k.PageDown},
		{k.Close},
	}
}
