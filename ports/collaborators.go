// Package ports defines the interfaces between the comparison core and its
// collaborators.
package ports

import (
	"pairstat/domain/dist"
	"pairstat/domain/stats"
)

// Corrector adds a corrected q-value column to a result table. The
// correction runs over the table's full set of raw p-values in one shared
// context, never per group.
type Corrector interface {
	Correct(table *stats.ResultTable) error
}

// AnnotationRequest carries the descriptive parameters handed to the
// metadata collaborator along with the sources of the table they describe.
// All wording is chosen by the caller; the annotator only attaches it.
type AnnotationRequest struct {
	Test             stats.TestType
	GroupMeasure     string // central tendency label, e.g. "Median"
	TestStatistic    string
	TestDescription  string
	PValueMethod     string // "{alternative}, {approximation}"
	NullDistribution string
	Sources          []*dist.Distribution
}

// Annotator attaches descriptive and provenance attributes to a finished
// table. The attributes are not consumed by the core afterwards.
type Annotator interface {
	Annotate(table *stats.ResultTable, req AnnotationRequest) error
}
