package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"pairstat/adapters/tabular"
	"pairstat/app"
	"pairstat/domain/dist"
	"pairstat/domain/stats"
	"pairstat/hypotheses"
)

func main() {
	// Load environment variables from .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	rootCmd := &cobra.Command{
		Use:   "pairstat",
		Short: "Pairwise nonparametric comparisons between groups of measurements",
	}

	rootCmd.AddCommand(
		newMannWhitneyUCmd(),
		newWilcoxonSRTCmd(),
		newBatchCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newMannWhitneyUCmd() *cobra.Command {
	var (
		compare        string
		referenceGroup string
		againstEach    string
		alternative    string
		pvalApprox     string
		cols           tabular.Columns
		output         string
		asJSON         bool
	)

	cmd := &cobra.Command{
		Use:   "mann-whitney-u [data-file]",
		Short: "Compare independent groups with the Mann-Whitney U test",
		Long: `Compare independent groups of measurements with the Mann-Whitney U
rank-sum test. The data file (CSV, TSV or XLSX) needs a group column and a
measure column; p-values are corrected per table with Benjamini-Hochberg.

Example: pairstat mann-whitney-u faith-pd.tsv --compare reference --reference-group gut`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMannWhitneyU(args[0], mwuOptions{
				compare:        compare,
				referenceGroup: referenceGroup,
				againstEach:    againstEach,
				alternative:    alternative,
				pvalApprox:     pvalApprox,
				cols:           cols,
				output:         output,
				asJSON:         asJSON,
			})
		},
	}

	cmd.Flags().StringVar(&compare, "compare", "all-pairwise", "Comparison strategy: reference|all-pairwise")
	cmd.Flags().StringVar(&referenceGroup, "reference-group", "", "Group every other group is compared against")
	cmd.Flags().StringVar(&againstEach, "against-each", "", "Second data file to compare the groups against")
	cmd.Flags().StringVar(&alternative, "alternative", "two-sided", "Alternative hypothesis: two-sided|greater|less")
	cmd.Flags().StringVar(&pvalApprox, "p-val-approx", "auto", "Null distribution: auto|exact|asymptotic")
	cmd.Flags().StringVar(&output, "output", "", "Write the result table to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of TSV")
	registerColumnFlags(cmd, &cols)

	return cmd
}

func newWilcoxonSRTCmd() *cobra.Command {
	var (
		compare       string
		baselineGroup string
		alternative   string
		pvalApprox    string
		ignoreEmpty   bool
		cols          tabular.Columns
		output        string
		asJSON        bool
	)

	cmd := &cobra.Command{
		Use:   "wilcoxon-srt [data-file]",
		Short: "Compare subject-paired groups with the Wilcoxon signed-rank test",
		Long: `Compare subject-paired groups of measurements with the Wilcoxon
signed-rank test. Every observation needs a subject identifier; each pair of
groups is tested on the subjects present in both.

Example: pairstat wilcoxon-srt shannon.tsv --compare baseline --baseline-group pre`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWilcoxonSRT(args[0], srtOptions{
				compare:       compare,
				baselineGroup: baselineGroup,
				alternative:   alternative,
				pvalApprox:    pvalApprox,
				ignoreEmpty:   ignoreEmpty,
				cols:          cols,
				output:        output,
				asJSON:        asJSON,
			})
		},
	}

	cmd.Flags().StringVar(&compare, "compare", "consecutive", "Comparison strategy: baseline|consecutive")
	cmd.Flags().StringVar(&baselineGroup, "baseline-group", "", "Group every other group is compared against")
	cmd.Flags().StringVar(&alternative, "alternative", "two-sided", "Alternative hypothesis: two-sided|greater|less")
	cmd.Flags().StringVar(&pvalApprox, "p-val-approx", "auto", "Null distribution: auto|exact|asymptotic")
	cmd.Flags().BoolVar(&ignoreEmpty, "ignore-empty-comparator", false, "Tolerate pairs with no subject overlap (NaN row)")
	cmd.Flags().StringVar(&output, "output", "", "Write the result table to this file instead of stdout")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of TSV")
	registerColumnFlags(cmd, &cols)

	return cmd
}

func newBatchCmd() *cobra.Command {
	var jobs int64

	cmd := &cobra.Command{
		Use:   "batch [manifest-file]",
		Short: "Run a manifest of comparisons concurrently",
		Long: `Run every comparison listed in a JSON manifest, bounded by --jobs
concurrent computations. Each entry names a test, a data file and the
strategy flags of the corresponding subcommand.

Example: pairstat batch comparisons.json --jobs 8`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBatch(cmd.Context(), args[0], jobs)
		},
	}

	cmd.Flags().Int64Var(&jobs, "jobs", getEnvInt64OrDefault("PAIRSTAT_MAX_JOBS", 4),
		"Maximum concurrent table computations")

	return cmd
}

// registerColumnFlags binds the shared column-name flags. Defaults fall back
// to PAIRSTAT_* environment values, so a site can fix its column convention
// in .env instead of repeating flags.
func registerColumnFlags(cmd *cobra.Command, cols *tabular.Columns) {
	cmd.Flags().StringVar(&cols.Group, "group-column",
		getEnvOrDefault("PAIRSTAT_GROUP_COLUMN", ""), "Name of the group column (default \"group\")")
	cmd.Flags().StringVar(&cols.Subject, "subject-column",
		getEnvOrDefault("PAIRSTAT_SUBJECT_COLUMN", ""), "Name of the subject column (default \"subject\")")
	cmd.Flags().StringVar(&cols.Measure, "measure-column",
		getEnvOrDefault("PAIRSTAT_MEASURE_COLUMN", ""), "Name of the measure column (default \"measure\")")
}

type mwuOptions struct {
	compare        string
	referenceGroup string
	againstEach    string
	alternative    string
	pvalApprox     string
	cols           tabular.Columns
	output         string
	asJSON         bool
}

func runMannWhitneyU(dataFile string, opt mwuOptions) error {
	mode := stats.PValApprox(opt.pvalApprox).OrDefault()
	if err := mode.Validate(); err != nil {
		return err
	}
	comp, err := hypotheses.ParseIndependent(opt.compare, opt.referenceGroup)
	if err != nil {
		return err
	}

	d, err := tabular.NewReader(dataFile, opt.cols).ReadDistribution()
	if err != nil {
		return err
	}
	var other *dist.Distribution
	if opt.againstEach != "" {
		other, err = tabular.NewReader(opt.againstEach, opt.cols).ReadDistribution()
		if err != nil {
			return err
		}
	}

	table, err := hypotheses.MannWhitneyU(d, comp, hypotheses.UTestConfig{
		AgainstEach: other,
		Alternative: stats.Alternative(opt.alternative),
		PValApprox:  mode,
	})
	if err != nil {
		return err
	}
	return writeTable(table, opt.output, opt.asJSON)
}

type srtOptions struct {
	compare       string
	baselineGroup string
	alternative   string
	pvalApprox    string
	ignoreEmpty   bool
	cols          tabular.Columns
	output        string
	asJSON        bool
}

func runWilcoxonSRT(dataFile string, opt srtOptions) error {
	mode := stats.PValApprox(opt.pvalApprox).OrDefault()
	if err := mode.Validate(); err != nil {
		return err
	}
	comp, err := hypotheses.ParsePaired(opt.compare, opt.baselineGroup)
	if err != nil {
		return err
	}

	d, err := tabular.NewReader(dataFile, opt.cols).ReadDistribution()
	if err != nil {
		return err
	}

	table, err := hypotheses.WilcoxonSRT(d, comp, hypotheses.SRTConfig{
		Alternative:           stats.Alternative(opt.alternative),
		PValApprox:            mode,
		IgnoreEmptyComparator: opt.ignoreEmpty,
	})
	if err != nil {
		return err
	}
	return writeTable(table, opt.output, opt.asJSON)
}

// batchEntry is one manifest line: the flags of a subcommand in JSON form.
type batchEntry struct {
	Name                  string `json:"name"`
	Test                  string `json:"test"` // mann_whitney_u or wilcoxon_srt
	File                  string `json:"file"`
	AgainstEachFile       string `json:"against_each_file,omitempty"`
	Comparison            string `json:"comparison"`
	Group                 string `json:"group,omitempty"`
	Alternative           string `json:"alternative,omitempty"`
	PValApprox            string `json:"p_val_approx,omitempty"`
	IgnoreEmptyComparator bool   `json:"ignore_empty_comparator,omitempty"`
	GroupColumn           string `json:"group_column,omitempty"`
	SubjectColumn         string `json:"subject_column,omitempty"`
	MeasureColumn         string `json:"measure_column,omitempty"`
	Output                string `json:"output,omitempty"`
}

func runBatch(ctx context.Context, manifestFile string, maxJobs int64) error {
	data, err := os.ReadFile(manifestFile)
	if err != nil {
		return fmt.Errorf("failed to read manifest: %w", err)
	}
	var entries []batchEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse manifest: %w", err)
	}
	if len(entries) == 0 {
		return fmt.Errorf("manifest lists no comparisons")
	}

	jobs := make([]app.Job, 0, len(entries))
	for i, entry := range entries {
		if entry.Name == "" {
			entry.Name = fmt.Sprintf("job-%d", i+1)
		}
		cols := tabular.Columns{
			Group:   entry.GroupColumn,
			Subject: entry.SubjectColumn,
			Measure: entry.MeasureColumn,
		}
		d, err := tabular.NewReader(entry.File, cols).ReadDistribution()
		if err != nil {
			return fmt.Errorf("job %s: %w", entry.Name, err)
		}
		var other *dist.Distribution
		if entry.AgainstEachFile != "" {
			other, err = tabular.NewReader(entry.AgainstEachFile, cols).ReadDistribution()
			if err != nil {
				return fmt.Errorf("job %s: %w", entry.Name, err)
			}
		}
		jobs = append(jobs, app.Job{
			Name:                  entry.Name,
			Test:                  stats.TestType(entry.Test),
			Comparison:            entry.Comparison,
			Group:                 entry.Group,
			Alternative:           stats.Alternative(entry.Alternative),
			PValApprox:            stats.PValApprox(entry.PValApprox),
			IgnoreEmptyComparator: entry.IgnoreEmptyComparator,
			Distribution:          d,
			AgainstEach:           other,
		})
	}

	results, err := app.NewBatchService(maxJobs).Run(ctx, jobs)
	if err != nil {
		return err
	}

	fmt.Printf("📊 BATCH RESULTS\n")
	for i, res := range results {
		output := entries[i].Output
		if output == "" {
			output = res.Name + ".tsv"
		}
		if err := writeTable(res.Table, output, false); err != nil {
			return fmt.Errorf("job %s: %w", res.Name, err)
		}
		fmt.Printf("• %s: %d comparisons in %dms -> %s\n",
			res.Name, res.Table.Len(), res.RuntimeMs, output)
	}
	fmt.Printf("✅ %d jobs completed\n", len(results))
	return nil
}

// writeTable emits the result table as TSV (or JSON) to a file or stdout.
// NaN cells from tolerated empty comparisons stay empty in TSV and null in
// JSON.
func writeTable(table *stats.ResultTable, output string, asJSON bool) error {
	out := os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	if asJSON {
		data, err := json.MarshalIndent(jsonTable(table), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode table: %w", err)
		}
		data = append(data, '\n')
		_, err = out.Write(data)
		return err
	}

	w := csv.NewWriter(out)
	w.Comma = '\t'
	header := []string{"A:group", "B:group", "A:n", "B:n", "A:measure", "B:measure",
		"n", "test-statistic", "p-value", "q-value"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range table.Rows {
		record := []string{
			row.GroupA,
			row.GroupB,
			strconv.Itoa(row.NA),
			strconv.Itoa(row.NB),
			formatCell(row.MeasureA),
			formatCell(row.MeasureB),
			strconv.Itoa(row.N),
			formatCell(row.Stat),
			formatCell(row.P),
			formatCell(row.Q),
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// jsonTable rebuilds the table with null-safe cells: encoding/json refuses
// NaN, so missing values become nulls.
func jsonTable(table *stats.ResultTable) map[string]interface{} {
	rows := make([]map[string]interface{}, len(table.Rows))
	for i, row := range table.Rows {
		rows[i] = map[string]interface{}{
			"A:group":        row.GroupA,
			"B:group":        row.GroupB,
			"A:n":            row.NA,
			"B:n":            row.NB,
			"A:measure":      jsonCell(row.MeasureA),
			"B:measure":      jsonCell(row.MeasureB),
			"n":              row.N,
			"test-statistic": jsonCell(row.Stat),
			"p-value":        jsonCell(row.P),
			"q-value":        jsonCell(row.Q),
		}
	}
	return map[string]interface{}{
		"rows":  rows,
		"attrs": table.Attrs,
	}
}

func jsonCell(v float64) interface{} {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func formatCell(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64OrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
