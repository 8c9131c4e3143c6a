package dist

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pairstat/domain/core"
)

func sample(group string, measures ...float64) []Observation {
	rows := make([]Observation, len(measures))
	for i, m := range measures {
		rows[i] = Observation{Group: group, Measure: m}
	}
	return rows
}

func distOf(chunks ...[]Observation) *Distribution {
	d := New("faith-pd")
	for _, c := range chunks {
		d.Rows = append(d.Rows, c...)
	}
	return d
}

func TestGroups(t *testing.T) {
	t.Run("lexicographic for string labels", func(t *testing.T) {
		d := distOf(sample("tongue", 1), sample("gut", 2), sample("palm", 3))

		assert.Equal(t, []string{"gut", "palm", "tongue"}, d.Groups())
	})

	t.Run("numeric when every label parses", func(t *testing.T) {
		d := distOf(sample("10", 1), sample("2", 2), sample("1", 3))

		assert.Equal(t, []string{"1", "2", "10"}, d.Groups())
	})

	t.Run("one non-numeric label falls back to lexicographic", func(t *testing.T) {
		d := distOf(sample("10", 1), sample("2", 2), sample("ctrl", 3))

		assert.Equal(t, []string{"10", "2", "ctrl"}, d.Groups())
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		d := distOf(sample("gut", 1, 2), sample("tongue", 3), sample("gut", 4))

		assert.Equal(t, []string{"gut", "tongue"}, d.Groups())
	})
}

func TestMeasures(t *testing.T) {
	d := distOf(sample("gut", 1, 2), sample("tongue", 9), sample("gut", 3))

	assert.Equal(t, []float64{1, 2, 3}, d.Measures("gut"))
	assert.Equal(t, []float64{9}, d.Measures("tongue"))
	assert.Empty(t, d.Measures("palm"))
}

func TestResolveGroup(t *testing.T) {
	t.Run("exact match wins", func(t *testing.T) {
		d := distOf(sample("gut", 1), sample("tongue", 2))

		g, err := d.ResolveGroup("gut")
		require.NoError(t, err)
		assert.Equal(t, "gut", g)
	})

	t.Run("numeric coercion returns the stored label", func(t *testing.T) {
		d := distOf(sample("1", 1), sample("2", 2))

		g, err := d.ResolveGroup("1.0")
		require.NoError(t, err)
		assert.Equal(t, "1", g)
	})

	t.Run("unknown label", func(t *testing.T) {
		d := distOf(sample("gut", 1))

		_, err := d.ResolveGroup("armpit")
		assert.ErrorIs(t, err, core.ErrGroupNotFound)
		assert.Contains(t, err.Error(), `"armpit"`)
	})

	t.Run("no coercion between non-numeric labels", func(t *testing.T) {
		d := distOf(sample("gut", 1))

		_, err := d.ResolveGroup("GUT")
		assert.ErrorIs(t, err, core.ErrGroupNotFound)
	})
}

func TestPairedSample(t *testing.T) {
	t.Run("keyed by subject in row order", func(t *testing.T) {
		d := New("faith-pd",
			Observation{Group: "pre", Subject: "s2", Measure: 4},
			Observation{Group: "post", Subject: "s1", Measure: 7},
			Observation{Group: "pre", Subject: "s1", Measure: 3},
		)

		s, err := d.PairedSample("pre")
		require.NoError(t, err)

		assert.Equal(t, []string{"s2", "s1"}, s.Subjects)
		assert.Equal(t, 4.0, s.Values["s2"])
		assert.Equal(t, 3.0, s.Values["s1"])
		assert.Equal(t, 2, s.Len())
	})

	t.Run("duplicate subject within a group", func(t *testing.T) {
		d := New("faith-pd",
			Observation{Group: "pre", Subject: "s1", Measure: 3},
			Observation{Group: "pre", Subject: "s1", Measure: 4},
		)

		_, err := d.PairedSample("pre")
		assert.ErrorIs(t, err, core.ErrDuplicateSubject)
	})

	t.Run("missing measures stay in the sample", func(t *testing.T) {
		d := New("faith-pd",
			Observation{Group: "pre", Subject: "s1", Measure: math.NaN()},
		)

		s, err := d.PairedSample("pre")
		require.NoError(t, err)

		assert.Equal(t, 1, s.Len())
		assert.True(t, math.IsNaN(s.Values["s1"]))
	})
}

func TestHasMissingSubjects(t *testing.T) {
	with := New("x", Observation{Group: "a", Subject: "s1", Measure: 1})
	without := New("x", Observation{Group: "a", Measure: 1})

	assert.False(t, with.HasMissingSubjects())
	assert.True(t, without.HasMissingSubjects())
}

func TestFingerprint(t *testing.T) {
	t.Run("stable across calls", func(t *testing.T) {
		d := distOf(sample("gut", 1, 2), sample("tongue", 3))

		assert.False(t, d.Fingerprint().IsEmpty())
		assert.Equal(t, d.Fingerprint(), d.Fingerprint())
	})

	t.Run("sensitive to every column", func(t *testing.T) {
		base := New("faith-pd", Observation{Group: "pre", Subject: "s1", Measure: 3})
		measure := New("faith-pd", Observation{Group: "pre", Subject: "s1", Measure: 4})
		subject := New("faith-pd", Observation{Group: "pre", Subject: "s2", Measure: 3})
		group := New("faith-pd", Observation{Group: "post", Subject: "s1", Measure: 3})
		name := New("shannon", Observation{Group: "pre", Subject: "s1", Measure: 3})

		for _, other := range []*Distribution{measure, subject, group, name} {
			assert.False(t, base.Fingerprint().Equals(other.Fingerprint()))
		}
	})

	t.Run("NaN measures hash deterministically", func(t *testing.T) {
		a := New("x", Observation{Group: "a", Measure: math.NaN()})
		b := New("x", Observation{Group: "a", Measure: math.NaN()})

		assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	})
}
