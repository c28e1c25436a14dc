// Package routes maps team-relative route suffixes to named view slots,
// including slots registered by plugins at runtime.
package routes

import "strings"

// Built-in view slots.
const (
	SlotIntegrations = "integrations"
	SlotEmoji        = "emoji"
	SlotChannel      = "channel"
)

// Route pairs a team-relative path suffix with the view slot that renders
// it. Matching is first-wins in registration order.
type Route struct {
	Suffix string
	Slot   string
}

// Registry resolves route suffixes to view slots. Plugin routes are
// consulted in registration order after the built-ins; the default channel
// slot matches everything else.
type Registry struct {
	builtin []Route
	plugins []Route
}

// NewRegistry creates a registry with the built-in slots.
func NewRegistry() *Registry {
	return &Registry{
		builtin: []Route{
			{Suffix: "integrations", Slot: SlotIntegrations},
			{Suffix: "emoji", Slot: SlotEmoji},
		},
	}
}

// RegisterPlugin appends a plugin-provided route.
func (r *Registry) RegisterPlugin(suffix, slot string) {
	r.plugins = append(r.plugins, Route{Suffix: suffix, Slot: slot})
}

// Match resolves a team-relative path (e.g. "integrations/commands" or
// "channels/town-square") to a view slot. Unmatched paths fall through to
// the default channel slot.
func (r *Registry) Match(path string) string {
	path = strings.Trim(path, "/")
	for _, route := range r.builtin {
		if matchSuffix(path, route.Suffix) {
			return route.Slot
		}
	}
	for _, route := range r.plugins {
		if matchSuffix(path, route.Suffix) {
			return route.Slot
		}
	}
	return SlotChannel
}

// matchSuffix reports whether path is suffix itself or a sub-path of it.
func matchSuffix(path, suffix string) bool {
	return path == suffix || strings.HasPrefix(path, suffix+"/")
}
