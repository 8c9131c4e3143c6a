// Package testkit provides fixtures and fake collaborators shared by the
// test suites.
package testkit

import (
	"fmt"
	"math"

	"pairstat/domain/dist"
	"pairstat/domain/stats"
	"pairstat/ports"
)

// NaN is a missing measure.
func NaN() float64 { return math.NaN() }

// Sample builds one unpaired observation per measure, all in one group.
func Sample(group string, measures ...float64) []dist.Observation {
	rows := make([]dist.Observation, 0, len(measures))
	for _, m := range measures {
		rows = append(rows, dist.Observation{Group: group, Measure: m})
	}
	return rows
}

// Paired builds subject-keyed observations for one group; subjects and
// measures pair positionally.
func Paired(group string, subjects []string, measures []float64) []dist.Observation {
	if len(subjects) != len(measures) {
		panic(fmt.Sprintf("testkit: %d subjects for %d measures", len(subjects), len(measures)))
	}
	rows := make([]dist.Observation, 0, len(measures))
	for i := range measures {
		rows = append(rows, dist.Observation{Group: group, Subject: subjects[i], Measure: measures[i]})
	}
	return rows
}

// Dist assembles a named distribution from row chunks.
func Dist(name string, chunks ...[]dist.Observation) *dist.Distribution {
	var rows []dist.Observation
	for _, chunk := range chunks {
		rows = append(rows, chunk...)
	}
	return dist.New(name, rows...)
}

// AEQ reports whether expect and got agree to 8 significant figures
// (1 part in 100 million).
func AEQ(expect, got float64) bool {
	if expect < 0 && got < 0 {
		expect, got = -expect, -got
	}
	return expect*0.99999999 <= got && got*0.99999999 <= expect
}

// RecordingCorrector is a Corrector fake that counts invocations and stamps
// every row with a recognizable q-value.
type RecordingCorrector struct {
	Calls int
	Q     float64
}

func (c *RecordingCorrector) Correct(table *stats.ResultTable) error {
	c.Calls++
	for i := range table.Rows {
		table.Rows[i].Q = c.Q
	}
	return nil
}

// RecordingAnnotator is an Annotator fake that captures the request it was
// handed.
type RecordingAnnotator struct {
	Calls int
	Last  ports.AnnotationRequest
}

func (a *RecordingAnnotator) Annotate(table *stats.ResultTable, req ports.AnnotationRequest) error {
	a.Calls++
	a.Last = req
	return nil
}
