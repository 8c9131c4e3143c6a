package hypotheses

import (
	"pairstat/domain/core"
	"pairstat/domain/dist"
)

// Comparison strategy tokens accepted by the string-keyed constructors.
const (
	CompareReference   = "reference"
	CompareAllPairwise = "all-pairwise"
	CompareBaseline    = "baseline"
	CompareConsecutive = "consecutive"
)

// IndependentComparison plans group pairs for independent-sample tests.
// Exactly two strategies implement it: Reference and AllPairwise. The
// typed constructors cannot express a strategy with a parameter it does
// not take; ParseIndependent enforces the same at the string boundary.
type IndependentComparison interface {
	plan(d, againstEach *dist.Distribution) (pairSeq, error)
}

// PairedComparison plans group pairs for paired-sample tests. Exactly two
// strategies implement it: Baseline and Consecutive.
type PairedComparison interface {
	planPaired(d *dist.Distribution) (pairSeq, error)
}

// Reference pairs a designated group against every other group of the
// primary dataset, or against every group of the secondary dataset when
// one is supplied.
type Reference struct {
	Group string
}

// AllPairwise pairs every 2-combination of primary groups, or the full
// primary x secondary product when a secondary dataset is supplied.
type AllPairwise struct{}

// Baseline pairs a designated group against every other group, subjects
// aligned.
type Baseline struct {
	Group string
}

// Consecutive pairs each group with the next one in sorted order.
type Consecutive struct{}

// ParseIndependent builds an independent-samples comparison from its
// string token. A reference group accompanies the reference strategy only.
func ParseIndependent(token, referenceGroup string) (IndependentComparison, error) {
	switch token {
	case CompareReference:
		return Reference{Group: referenceGroup}, nil
	case CompareAllPairwise:
		if referenceGroup != "" {
			return nil, core.NewConflictError(CompareAllPairwise, "reference group")
		}
		return AllPairwise{}, nil
	}
	return nil, core.NewComparisonError(token, CompareReference, CompareAllPairwise)
}

// ParsePaired builds a paired-samples comparison from its string token. A
// baseline group accompanies the baseline strategy only.
func ParsePaired(token, baselineGroup string) (PairedComparison, error) {
	switch token {
	case CompareBaseline:
		return Baseline{Group: baselineGroup}, nil
	case CompareConsecutive:
		if baselineGroup != "" {
			return nil, core.NewConflictError(CompareConsecutive, "baseline group")
		}
		return Consecutive{}, nil
	}
	return nil, core.NewComparisonError(token, CompareBaseline, CompareConsecutive)
}

// GroupRef points at one group of one source dataset: source 0 is the
// primary dataset, 1 the secondary.
type GroupRef struct {
	Source int
	Group  string
}

// ComparisonSpec is one planned pair. It is transient: produced by the
// planner, consumed immediately by the runner, never persisted.
type ComparisonSpec struct {
	A GroupRef
	B GroupRef
}

// pairSeq lazily yields planned pairs, returning false once exhausted.
// Sequences are single-pass and consumed exactly once per call; they are
// never handed out for reuse.
type pairSeq func() (ComparisonSpec, bool)

func (r Reference) plan(d, againstEach *dist.Distribution) (pairSeq, error) {
	ref, err := resolveDesignated(d, r.Group, "reference group")
	if err != nil {
		return nil, err
	}
	if againstEach == nil {
		return pairsAgainst(ref, exclude(d.Groups(), ref), 0), nil
	}
	return pairsAgainst(ref, againstEach.Groups(), 1), nil
}

func (AllPairwise) plan(d, againstEach *dist.Distribution) (pairSeq, error) {
	if againstEach == nil {
		return combinations(d.Groups()), nil
	}
	return product(d.Groups(), againstEach.Groups()), nil
}

func (b Baseline) planPaired(d *dist.Distribution) (pairSeq, error) {
	base, err := resolveDesignated(d, b.Group, "baseline group")
	if err != nil {
		return nil, err
	}
	return pairsAgainst(base, exclude(d.Groups(), base), 0), nil
}

func (Consecutive) planPaired(d *dist.Distribution) (pairSeq, error) {
	return adjacent(d.Groups()), nil
}

// resolveDesignated resolves a caller-supplied reference or baseline value
// against the primary group column before any pair is processed.
func resolveDesignated(d *dist.Distribution, value, param string) (string, error) {
	if value == "" {
		return "", core.NewGroupRequiredError(param)
	}
	return d.ResolveGroup(value)
}

// pairsAgainst yields (anchor, other) for each other group in order.
func pairsAgainst(anchor string, others []string, source int) pairSeq {
	k := 0
	return func() (ComparisonSpec, bool) {
		if k >= len(others) {
			return ComparisonSpec{}, false
		}
		spec := ComparisonSpec{
			A: GroupRef{Source: 0, Group: anchor},
			B: GroupRef{Source: source, Group: others[k]},
		}
		k++
		return spec, true
	}
}

// combinations yields every 2-combination of groups, earlier group first.
func combinations(groups []string) pairSeq {
	i, j := 0, 1
	return func() (ComparisonSpec, bool) {
		if i >= len(groups) || j >= len(groups) {
			return ComparisonSpec{}, false
		}
		spec := ComparisonSpec{
			A: GroupRef{Source: 0, Group: groups[i]},
			B: GroupRef{Source: 0, Group: groups[j]},
		}
		j++
		if j == len(groups) {
			i++
			j = i + 1
		}
		return spec, true
	}
}

// product yields the Cartesian product of primary x secondary groups.
func product(primary, secondary []string) pairSeq {
	i, j := 0, 0
	return func() (ComparisonSpec, bool) {
		if len(secondary) == 0 || i >= len(primary) {
			return ComparisonSpec{}, false
		}
		spec := ComparisonSpec{
			A: GroupRef{Source: 0, Group: primary[i]},
			B: GroupRef{Source: 1, Group: secondary[j]},
		}
		j++
		if j == len(secondary) {
			i++
			j = 0
		}
		return spec, true
	}
}

// adjacent yields each group paired with its successor in sorted order,
// never skipping ahead.
func adjacent(groups []string) pairSeq {
	k := 0
	return func() (ComparisonSpec, bool) {
		if k+1 >= len(groups) {
			return ComparisonSpec{}, false
		}
		spec := ComparisonSpec{
			A: GroupRef{Source: 0, Group: groups[k]},
			B: GroupRef{Source: 0, Group: groups[k+1]},
		}
		k++
		return spec, true
	}
}

// exclude returns groups without the given label, preserving order.
func exclude(groups []string, label string) []string {
	kept := make([]string, 0, len(groups))
	for _, g := range groups {
		if g != label {
			kept = append(kept, g)
		}
	}
	return kept
}
