package merge

import (
	"sort"
	"strings"
)

// Record is a worksheet row addressed by column header.
type Record map[string]string

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Kind describes how a field reacts to incoming data.
type Kind int

const (
	// Fill writes the incoming value only when the existing value is empty.
	Fill Kind = iota
	// Override fields are set manually and never written by a merge.
	Override
	// AlwaysRefresh fields take any non-empty incoming value.
	AlwaysRefresh
	// Union fields hold a separated list that only grows.
	Union
)

func (k Kind) String() string {
	switch k {
	case Override:
		return "override"
	case AlwaysRefresh:
		return "always-refresh"
	case Union:
		return "union"
	default:
		return "fill"
	}
}

// DefaultPlaceholders are values earlier tooling wrote in place of unknown data.
var DefaultPlaceholders = []string{"unknown **", " **"}

// Change records a single field written by Merge.
type Change struct {
	Field string
	Old   string
	New   string
}

// Policy is an immutable set of field rules for one worksheet.
type Policy struct {
	kinds        map[string]Kind
	guards       map[string]string
	separators   map[string]string
	placeholders map[string]struct{}
}

// Option configures a Policy.
type Option func(*Policy)

// WithOverride marks fields as manually owned.
func WithOverride(fields ...string) Option {
	return func(p *Policy) { p.setKind(Override, fields) }
}

// WithAlwaysRefresh marks fields that follow the latest fetched value.
func WithAlwaysRefresh(fields ...string) Option {
	return func(p *Policy) { p.setKind(AlwaysRefresh, fields) }
}

// WithUnion marks list fields merged as a set union.
func WithUnion(fields ...string) Option {
	return func(p *Policy) { p.setKind(Union, fields) }
}

// WithNameUnion marks title list fields merged as a set union. Items are
// joined with NameSeparator so titles containing commas stay whole.
func WithNameUnion(fields ...string) Option {
	return func(p *Policy) {
		p.setKind(Union, fields)
		for _, field := range fields {
			p.separators[field] = NameSeparator
		}
	}
}

// WithGuard freezes fields whenever the guard column holds a value. The guard
// column itself becomes an override field.
func WithGuard(guard string, fields ...string) Option {
	return func(p *Policy) {
		p.setKind(Override, []string{guard})
		for _, field := range fields {
			p.guards[field] = guard
		}
	}
}

// WithPlaceholders adds values that count as empty.
func WithPlaceholders(values ...string) Option {
	return func(p *Policy) {
		for _, v := range values {
			p.placeholders[normalizePlaceholder(v)] = struct{}{}
		}
	}
}

// NewPolicy builds a policy. Fields without a rule use Fill.
func NewPolicy(opts ...Option) Policy {
	p := Policy{
		kinds:        make(map[string]Kind),
		guards:       make(map[string]string),
		separators:   make(map[string]string),
		placeholders: make(map[string]struct{}),
	}
	WithPlaceholders(DefaultPlaceholders...)(&p)
	for _, opt := range opts {
		opt(&p)
	}
	return p
}

func (p *Policy) setKind(kind Kind, fields []string) {
	for _, field := range fields {
		p.kinds[field] = kind
	}
}

// Kind reports the rule applied to field.
func (p Policy) Kind(field string) Kind {
	if kind, ok := p.kinds[field]; ok {
		return kind
	}
	return Fill
}

// Guard returns the guard column protecting field, if any.
func (p Policy) Guard(field string) (string, bool) {
	guard, ok := p.guards[field]
	return guard, ok
}

// IsEmpty reports whether value is blank or a known placeholder.
func (p Policy) IsEmpty(value string) bool {
	if strings.TrimSpace(value) == "" {
		return true
	}
	_, ok := p.placeholders[normalizePlaceholder(value)]
	return ok
}

// Frozen reports whether field may not be written for the existing record.
func (p Policy) Frozen(existing Record, field string) bool {
	if p.Kind(field) == Override {
		return true
	}
	if guard, ok := p.guards[field]; ok && !p.IsEmpty(existing[guard]) {
		return true
	}
	return false
}

// Merge applies incoming onto existing and returns the merged record together
// with the fields that changed. Neither input is modified. Fields absent from
// incoming are left as they are, and no rule ever blanks a value.
func (p Policy) Merge(existing, incoming Record) (Record, []Change) {
	merged := existing.Clone()
	fields := make([]string, 0, len(incoming))
	for field := range incoming {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	var changes []Change
	for _, field := range fields {
		if p.Frozen(existing, field) {
			continue
		}
		current := existing[field]
		next, ok := p.resolve(field, current, incoming[field])
		if !ok || next == current {
			continue
		}
		merged[field] = next
		changes = append(changes, Change{Field: field, Old: current, New: next})
	}
	return merged, changes
}

// Separator returns the list separator of a union field.
func (p Policy) Separator(field string) string {
	if sep, ok := p.separators[field]; ok {
		return sep
	}
	return ListSeparator
}

func (p Policy) resolve(field, current, incoming string) (string, bool) {
	incoming = strings.TrimSpace(incoming)
	switch p.Kind(field) {
	case AlwaysRefresh:
		if p.IsEmpty(incoming) {
			return "", false
		}
		return incoming, true
	case Union:
		sep := p.Separator(field)
		var items []string
		for _, item := range append(SplitListBy(current, sep), SplitListBy(incoming, sep)...) {
			if !p.IsEmpty(item) {
				items = append(items, item)
			}
		}
		joined := JoinListBy(items, sep)
		if joined == "" {
			return "", false
		}
		return joined, true
	default:
		if !p.IsEmpty(current) || p.IsEmpty(incoming) {
			return "", false
		}
		return incoming, true
	}
}

func normalizePlaceholder(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
