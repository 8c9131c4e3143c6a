package meta

import (
	"pairstat/domain/core"
	"pairstat/domain/stats"
	"pairstat/ports"
)

// PairwiseAnnotator attaches the shared descriptive attributes and
// provenance to a pairwise result table.
type PairwiseAnnotator struct{}

// NewPairwiseAnnotator creates the default metadata collaborator.
func NewPairwiseAnnotator() *PairwiseAnnotator {
	return &PairwiseAnnotator{}
}

// Annotate fills the table's attrs from the request, leaving fields owned
// by the correction collaborator untouched.
func (a *PairwiseAnnotator) Annotate(table *stats.ResultTable, req ports.AnnotationRequest) error {
	attrs := &table.Attrs
	attrs.Kind = stats.KindPairwise
	attrs.Test = req.Test
	attrs.GroupMeasure = req.GroupMeasure
	attrs.TestStatistic = req.TestStatistic
	attrs.TestDescription = req.TestDescription
	attrs.PValueMethod = req.PValueMethod
	attrs.NullDistribution = req.NullDistribution

	attrs.Sources = attrs.Sources[:0]
	for _, d := range req.Sources {
		attrs.Sources = append(attrs.Sources, stats.SourceRef{
			Name:        d.Name,
			Rows:        d.Len(),
			Groups:      len(d.Groups()),
			Fingerprint: d.Fingerprint(),
		})
	}

	attrs.TableID = core.TableID(core.NewID())
	attrs.CreatedAt = core.Now()
	return nil
}
