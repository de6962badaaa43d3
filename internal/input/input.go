// Package input maps key identifiers to symbolic playback actions.
package input

import "strings"

// Action is a symbolic playback command.
type Action string

// Actions understood by the playback controller.
const (
	ActionNext       Action = "next"
	ActionPrev       Action = "prev"
	ActionPause      Action = "pause"
	ActionMenu       Action = "menu"
	ActionToggleMode Action = "toggle_mode"
	ActionQuit       Action = "quit"
	ActionMenuUp     Action = "menu_up"
	ActionMenuDown   Action = "menu_down"
	ActionMenuSelect Action = "menu_select"
)

// defaultKeyMap covers every action out of the box; keyboard-emulating
// remotes work without any configuration.
var defaultKeyMap = map[string]Action{
	"right":  ActionNext,
	"d":      ActionNext,
	"left":   ActionPrev,
	"a":      ActionPrev,
	"space":  ActionPause,
	"m":      ActionMenu,
	"escape": ActionMenu,
	"q":      ActionQuit,
	"v":      ActionToggleMode,
	"up":     ActionMenuUp,
	"down":   ActionMenuDown,
	"return": ActionMenuSelect,
}

// MapKey resolves a key identifier to an action. Built-in defaults are
// consulted first, then the per-action override lists from configuration
// (action name -> key identifiers). Unknown keys map to nothing.
func MapKey(key string, bindings map[string][]string) (Action, bool) {
	k := strings.ToLower(strings.TrimSpace(key))
	if k == "" {
		return "", false
	}
	if action, ok := defaultKeyMap[k]; ok {
		return action, true
	}
	for action, keys := range bindings {
		for _, bound := range keys {
			if strings.ToLower(bound) == k {
				return Action(action), true
			}
		}
	}
	return "", false
}
