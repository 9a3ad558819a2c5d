package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey-austin/raumbridge/internal/ports"
	"github.com/mikey-austin/raumbridge/pkg/brain"
)

// bridgeKind is the presence kind announced by bridge nodes.
const bridgeKind = "bridge"

// Resolver resolves the bridge node and device selectors.
type Resolver struct {
	Presence ports.Broker
	Config   Config
}

// ResolveNode returns the bridge node id. A configured node id wins;
// otherwise the single online bridge is used.
func (r Resolver) ResolveNode(ctx context.Context, selector string) (string, error) {
	if selector == "" {
		selector = r.Config.NodeID
	}
	if selector != "" && strings.Contains(selector, ":") {
		return selector, nil
	}

	presence, err := r.Presence.ListPresence(ctx)
	if err != nil {
		return "", WrapError(ExitRuntime, "list presence", err)
	}
	bridges := filterPresenceByKind(presence, bridgeKind)
	if selector == "" {
		switch len(bridges) {
		case 1:
			return bridges[0].NodeID, nil
		case 0:
			return "", &CLIError{Code: ExitNotFound, Msg: "no bridge online"}
		default:
			return "", &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("several bridges online, pick one with --node: %s", suggestionList(bridges))}
		}
	}

	var matches []brain.Presence
	for _, p := range bridges {
		if strings.EqualFold(p.Name, selector) || strings.EqualFold(p.NodeID, selector) {
			matches = append(matches, p)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0].NodeID, nil
	case 0:
		return "", &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("no bridge matches %q", selector)}
	default:
		return "", &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("ambiguous bridge %q: %s", selector, suggestionList(matches))}
	}
}

// ResolveDevice expands aliases and applies the default device.
func (r Resolver) ResolveDevice(selector string) (string, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		selector = r.Config.DefaultDevice
	}
	if selector == "" {
		return "", &CLIError{Code: ExitUsage, Msg: "device required"}
	}
	if alias, ok := r.Config.Aliases[selector]; ok {
		return alias, nil
	}
	return selector, nil
}

func filterPresenceByKind(presence []brain.Presence, kind string) []brain.Presence {
	out := make([]brain.Presence, 0, len(presence))
	for _, p := range presence {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func suggestionList(matches []brain.Presence) string {
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.NodeID))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
