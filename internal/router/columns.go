package router

import "strings"

// columnSet resolves query tokens to dataset column names. Exact matches win
// over case-insensitive ones; when several columns differ only by case the
// first in dataset order is used.
type columnSet struct {
	ordered []string
	exact   map[string]struct{}
	folded  map[string]string
}

func newColumnSet(columns []string) columnSet {
	cs := columnSet{
		ordered: columns,
		exact:   make(map[string]struct{}, len(columns)),
		folded:  make(map[string]string, len(columns)),
	}
	for _, c := range columns {
		cs.exact[c] = struct{}{}
		k := strings.ToLower(c)
		if _, ok := cs.folded[k]; !ok {
			cs.folded[k] = c
		}
	}
	return cs
}

func (cs columnSet) resolve(name string) (string, bool) {
	if name == "" {
		return "", false
	}
	if _, ok := cs.exact[name]; ok {
		return name, true
	}
	c, ok := cs.folded[strings.ToLower(name)]
	return c, ok
}
