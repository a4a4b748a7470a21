package dataset

import (
	"iter"
	"maps"
	"slices"
)

// Clip is a segment to fetch or look for on disk.
type Clip struct {
	MediaID string
	Start   float64
	End     float64
}

// Group holds the clips carrying one label. Clips keep insertion order and
// a clip seen twice is kept once.
type Group struct {
	Label string
	Clips []Clip

	seen map[Clip]struct{}
}

func newGroup(label string) *Group {
	return &Group{Label: label, seen: make(map[Clip]struct{})}
}

func (g *Group) add(c Clip) {
	if _, dup := g.seen[c]; dup {
		return
	}
	g.seen[c] = struct{}{}
	g.Clips = append(g.Clips, c)
}

// Len returns the number of distinct clips.
func (g *Group) Len() int { return len(g.Clips) }

// MediaIDs returns the distinct media identifiers of the group.
func (g *Group) MediaIDs() []string {
	ids := make([]string, 0, len(g.Clips))
	seen := make(map[string]struct{}, len(g.Clips))
	for _, c := range g.Clips {
		if _, dup := seen[c.MediaID]; dup {
			continue
		}
		seen[c.MediaID] = struct{}{}
		ids = append(ids, c.MediaID)
	}
	return ids
}

// Groups maps a label to its non-empty group.
type Groups map[string]*Group

// Labels returns the keys in sorted order.
func (gs Groups) Labels() []string {
	return slices.Sorted(maps.Keys(gs))
}

// MediaIDs flattens the groups into label -> media identifiers.
func (gs Groups) MediaIDs() map[string][]string {
	out := make(map[string][]string, len(gs))
	for label, g := range gs {
		out[label] = g.MediaIDs()
	}
	return out
}

// Total returns the number of clips over all groups.
func (gs Groups) Total() int {
	n := 0
	for _, g := range gs {
		n += g.Len()
	}
	return n
}

// Relabel re-keys the groups through name. Groups that end up with the same
// key are merged.
func (gs Groups) Relabel(name func(label string) string) Groups {
	out := make(Groups, len(gs))
	for _, label := range gs.Labels() {
		key := name(label)
		dst, ok := out[key]
		if !ok {
			dst = newGroup(key)
			out[key] = dst
		}
		for _, c := range gs[label].Clips {
			dst.add(c)
		}
	}
	return out
}

// Grouper collects rows into per-label groups.
type Grouper struct {
	labels  []string
	matcher Matcher
	groups  map[string]*Group
}

// NewGrouper prepares a group for each label in labels.
func NewGrouper(labels []string, m Matcher) *Grouper {
	if m == nil {
		m = Containment{}
	}
	g := &Grouper{
		labels:  slices.Clone(labels),
		matcher: m,
		groups:  make(map[string]*Group, len(labels)),
	}
	for _, l := range labels {
		if _, ok := g.groups[l]; !ok {
			g.groups[l] = newGroup(l)
		}
	}
	return g
}

// Add files the row under every label it carries.
func (g *Grouper) Add(r Row) {
	for label, grp := range g.groups {
		if g.matcher.Match(r.Labels, label) {
			grp.add(r.Clip())
		}
	}
}

// Groups returns the labels that collected at least one clip.
func (g *Grouper) Groups() Groups {
	out := make(Groups, len(g.groups))
	for label, grp := range g.groups {
		if grp.Len() > 0 {
			out[label] = grp
		}
	}
	return out
}

// Missing returns the requested labels that collected nothing, in request
// order.
func (g *Grouper) Missing() []string {
	var out []string
	seen := make(map[string]struct{})
	for _, l := range g.labels {
		if _, dup := seen[l]; dup {
			continue
		}
		seen[l] = struct{}{}
		if g.groups[l].Len() == 0 {
			out = append(out, l)
		}
	}
	return out
}

// GroupRows drains rows into a Grouper.
func GroupRows(rows iter.Seq2[Row, error], labels []string, m Matcher) (Groups, error) {
	g := NewGrouper(labels, m)
	for row, err := range rows {
		if err != nil {
			return nil, err
		}
		g.Add(row)
	}
	return g.Groups(), nil
}
