package config

import "reflect"

// DiffEntry is one key whose effective value differs from the default.
type DiffEntry struct {
	Key     string `json:"key" yaml:"key"`
	Path    string `json:"path" yaml:"path"`
	Default any    `json:"default" yaml:"default"`
	Current any    `json:"current" yaml:"current"`
	Source  string `json:"source" yaml:"source"`
}

// Diff lists the keys of cfg that differ from Default, in display order.
// Secrets are masked. A nil cfg yields nil.
func Diff(cfg *Config) []DiffEntry {
	if cfg == nil {
		return nil
	}
	def := Default()
	out := []DiffEntry{}
	for _, f := range fields {
		cur, dv := f.get(cfg), f.get(def)
		if equalValue(cur, dv) {
			continue
		}
		src := cfg.Source(f.key)
		if src == "default" {
			src = "config"
		}
		out = append(out, DiffEntry{
			Key:     f.key,
			Path:    f.key,
			Default: displayValue(f.key, dv),
			Current: displayValue(f.key, cur),
			Source:  src,
		})
	}
	return out
}

func equalValue(a, b any) bool {
	as, aok := a.([]string)
	bs, bok := b.([]string)
	if aok && bok {
		if len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}
