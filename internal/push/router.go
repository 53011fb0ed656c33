package push

import "strings"

type Router struct{}

func (r Router) MatchTargets(targets []Target, n Notice) []Target {
	if len(targets) == 0 {
		return nil
	}
	out := make([]Target, 0, len(targets))
	for _, target := range targets {
		if !target.Enabled {
			continue
		}
		if !scopeMatches(target, n) {
			continue
		}
		if !eventAllowed(target.EventAllowlist, n.EventType) {
			continue
		}
		out = append(out, target)
	}
	return out
}

func scopeMatches(target Target, n Notice) bool {
	switch target.ScopeType {
	case "all":
		return true
	case "game":
		return target.ScopeValue != "" && target.ScopeValue == n.GameID
	default:
		return false
	}
}

func eventAllowed(allowlist []string, evType string) bool {
	if len(allowlist) == 0 {
		return true
	}
	evType = strings.ToLower(strings.TrimSpace(evType))
	for _, v := range allowlist {
		if v == "" {
			continue
		}
		if strings.ToLower(strings.TrimSpace(v)) == evType {
			return true
		}
	}
	return false
}
