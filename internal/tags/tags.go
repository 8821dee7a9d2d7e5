// Package tags implements the tag rules shared by the client and the server:
// a tag is compared case-insensitively, never empty and never carries its
// leading '#'.
package tags

import (
	"sort"
	"strings"
)

// Normalize trims tag and strips one leading '#'. The result may be "".
func Normalize(tag string) string {
	v := strings.TrimSpace(tag)
	if v == "" {
		return ""
	}
	if strings.HasPrefix(v, "#") {
		return strings.TrimSpace(v[1:])
	}
	return v
}

// Key is the case-insensitive identity of a tag.
func Key(tag string) string {
	return strings.ToLower(Normalize(tag))
}

// NormalizeAll normalizes every tag, drops empty ones and removes
// case-insensitive duplicates keeping the first spelling. The result is never
// nil.
func NormalizeAll(list []string) []string {
	out := make([]string, 0, len(list))
	seen := make(map[string]struct{}, len(list))
	for _, raw := range list {
		cleaned := Normalize(raw)
		if cleaned == "" {
			continue
		}
		k := strings.ToLower(cleaned)
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, cleaned)
	}
	return out
}

// Fingerprint returns a string that is equal for two lists exactly when their
// normalized, lower-cased forms are equal in order.
func Fingerprint(list []string) string {
	return strings.ToLower(strings.Join(NormalizeAll(list), "\n"))
}

// Contains reports whether list holds tag, ignoring case.
func Contains(list []string, tag string) bool {
	k := Key(tag)
	if k == "" {
		return false
	}
	for _, t := range list {
		if Key(t) == k {
			return true
		}
	}
	return false
}

// Add appends tag unless an equal tag is already present.
func Add(list []string, tag string) []string {
	return NormalizeAll(append(append([]string(nil), list...), tag))
}

// Remove drops every tag equal to tag.
func Remove(list []string, tag string) []string {
	k := Key(tag)
	out := make([]string, 0, len(list))
	for _, t := range NormalizeAll(list) {
		if strings.ToLower(t) != k {
			out = append(out, t)
		}
	}
	return out
}

// Intersects reports whether any tag of list matches any tag of active.
func Intersects(list, active []string) bool {
	if len(list) == 0 || len(active) == 0 {
		return false
	}
	keys := make(map[string]struct{}, len(list))
	for _, t := range NormalizeAll(list) {
		keys[strings.ToLower(t)] = struct{}{}
	}
	for _, a := range active {
		if _, ok := keys[Key(a)]; ok {
			return true
		}
	}
	return false
}

// Rename replaces every tag equal to from with to and re-normalizes, so a
// rename onto an existing tag collapses the duplicate. changed is false when
// the list did not contain from.
func Rename(list []string, from, to string) (out []string, changed bool) {
	fk := Key(from)
	to = Normalize(to)

	next := make([]string, 0, len(list))
	for _, t := range list {
		if Key(t) == fk {
			next = append(next, to)
			changed = true
			continue
		}
		next = append(next, t)
	}
	if !changed {
		return list, false
	}
	return NormalizeAll(next), true
}

// Union merges lists keeping the first spelling of each tag and sorts the
// result case-insensitively.
func Union(lists ...[]string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, list := range lists {
		for _, t := range NormalizeAll(list) {
			k := strings.ToLower(t)
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.ToLower(out[i]) < strings.ToLower(out[j])
	})
	return out
}

// Toggle adds tag to the active set, or removes it (and any differently-cased
// copy) when it is already there.
func Toggle(active []string, tag string) []string {
	cleaned := Normalize(tag)
	if cleaned == "" {
		return active
	}
	if Contains(active, cleaned) {
		return Remove(active, cleaned)
	}
	return Add(active, cleaned)
}
