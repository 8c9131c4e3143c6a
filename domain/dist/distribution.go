// Package dist models group-labeled measurement tables: the tidy
// (group, subject, measure) input consumed by the hypothesis tests.
package dist

import (
	"fmt"
	"math"
	"sort"
	"strconv"

	"pairstat/domain/core"
)

// Observation is a single measurement row. Subject is only required for
// paired designs; a missing measure is NaN.
type Observation struct {
	Group   string  `json:"group"`
	Subject string  `json:"subject,omitempty"`
	Measure float64 `json:"measure"`
}

// Distribution is a tidy table of observations. It is treated as an
// immutable snapshot for the duration of a call: nothing in this module
// mutates it after construction.
type Distribution struct {
	Name string        `json:"name,omitempty"`
	Rows []Observation `json:"rows"`
}

// New builds a Distribution from rows. The name is used for provenance only.
func New(name string, rows ...Observation) *Distribution {
	return &Distribution{Name: name, Rows: rows}
}

// Len returns the number of observation rows.
func (d *Distribution) Len() int {
	return len(d.Rows)
}

// Groups returns the unique group labels in canonical order: numeric order
// when every label parses as a number, lexicographic order otherwise.
func (d *Distribution) Groups() []string {
	seen := make(map[string]struct{}, len(d.Rows))
	groups := make([]string, 0, 8)
	for _, row := range d.Rows {
		if _, ok := seen[row.Group]; ok {
			continue
		}
		seen[row.Group] = struct{}{}
		groups = append(groups, row.Group)
	}
	sortGroups(groups)
	return groups
}

// Measures returns the measure values for one group, in row order.
func (d *Distribution) Measures(group string) []float64 {
	values := make([]float64, 0, len(d.Rows))
	for _, row := range d.Rows {
		if row.Group == group {
			values = append(values, row.Measure)
		}
	}
	return values
}

// HasMissingSubjects reports whether any row lacks a subject identifier.
func (d *Distribution) HasMissingSubjects() bool {
	for _, row := range d.Rows {
		if row.Subject == "" {
			return true
		}
	}
	return false
}

// Fingerprint hashes the distribution's name and rows so result tables can
// record exactly which input they were computed from. Measures are encoded
// by their bit pattern, which keeps NaN rows and -0 distinguishable.
func (d *Distribution) Fingerprint() core.Hash {
	buf := make([]byte, 0, 64+32*len(d.Rows))
	buf = append(buf, d.Name...)
	for _, row := range d.Rows {
		buf = append(buf, '\x1e')
		buf = append(buf, row.Group...)
		buf = append(buf, '\x1f')
		buf = append(buf, row.Subject...)
		buf = append(buf, '\x1f')
		buf = strconv.AppendUint(buf, math.Float64bits(row.Measure), 16)
	}
	return core.NewHash(buf)
}

// PairedSample is one group's measures keyed by subject. Subjects preserves
// row order of the full sample, including subjects whose measure is NaN.
type PairedSample struct {
	Group    string
	Subjects []string
	Values   map[string]float64
}

// PairedSample extracts a group's sample indexed by subject. A subject
// appearing twice within the group is invalid sample data.
func (d *Distribution) PairedSample(group string) (*PairedSample, error) {
	sample := &PairedSample{
		Group:  group,
		Values: make(map[string]float64),
	}
	for _, row := range d.Rows {
		if row.Group != group {
			continue
		}
		if _, dup := sample.Values[row.Subject]; dup {
			return nil, fmt.Errorf("%w: subject %q appears more than once in group %s",
				core.ErrDuplicateSubject, row.Subject, group)
		}
		sample.Subjects = append(sample.Subjects, row.Subject)
		sample.Values[row.Subject] = row.Measure
	}
	return sample, nil
}

// Len returns the full sample size, NaN measures included.
func (s *PairedSample) Len() int {
	return len(s.Subjects)
}

// ResolveGroup matches value against the group column: exact match first,
// then numeric coercion (both sides parsed as floats) as a retry. The
// returned label is always the stored representation. Fails with a
// not-found error naming the unmatched value.
func (d *Distribution) ResolveGroup(value string) (string, error) {
	groups := d.Groups()
	for _, g := range groups {
		if g == value {
			return g, nil
		}
	}
	if want, err := strconv.ParseFloat(value, 64); err == nil {
		for _, g := range groups {
			if have, err := strconv.ParseFloat(g, 64); err == nil && have == want {
				return g, nil
			}
		}
	}
	return "", core.NewGroupNotFoundError(value)
}

// sortGroups orders labels numerically when the whole set is numeric,
// mirroring how a numeric group column sorts, and lexicographically
// otherwise. NaN labels sort first to keep the order total.
func sortGroups(groups []string) {
	numeric := make(map[string]float64, len(groups))
	allNumeric := true
	for _, g := range groups {
		v, err := strconv.ParseFloat(g, 64)
		if err != nil {
			allNumeric = false
			break
		}
		numeric[g] = v
	}
	if !allNumeric {
		sort.Strings(groups)
		return
	}
	sort.Slice(groups, func(i, j int) bool {
		a, b := numeric[groups[i]], numeric[groups[j]]
		if math.IsNaN(a) {
			return !math.IsNaN(b)
		}
		return a < b
	})
}
