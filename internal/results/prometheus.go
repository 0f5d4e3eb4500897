package results

import (
	"fmt"
	"sort"
	"strings"
)

// ExportPrometheus renders the report in Prometheus text exposition format,
// suitable for the node_exporter textfile collector. Every metric uses the
// "parabank_qa_" prefix and carries the run id.
func ExportPrometheus(r *Report) string {
	var b strings.Builder

	run := ""
	if r.Config != nil {
		run = sanitizeLabel(r.Config.RunID)
	}

	b.WriteString("# HELP parabank_qa_tests Tests by outcome.\n")
	b.WriteString("# TYPE parabank_qa_tests gauge\n")
	for _, o := range []struct {
		outcome Outcome
		n       int
	}{
		{OutcomeExpected, r.Stats.Expected},
		{OutcomeUnexpected, r.Stats.Unexpected},
		{OutcomeFlaky, r.Stats.Flaky},
		{OutcomeSkipped, r.Stats.Skipped},
	} {
		b.WriteString(fmt.Sprintf("parabank_qa_tests{run=%q,outcome=%q} %d\n", run, o.outcome, o.n))
	}
	b.WriteByte('\n')

	b.WriteString("# HELP parabank_qa_run_duration_ms Wall time of the run in milliseconds.\n")
	b.WriteString("# TYPE parabank_qa_run_duration_ms gauge\n")
	b.WriteString(fmt.Sprintf("parabank_qa_run_duration_ms{run=%q} %.0f\n", run, r.Stats.Duration))

	tests := Collect(r.Suites)
	sort.SliceStable(tests, func(i, j int) bool { return tests[i].Title < tests[j].Title })

	if len(tests) > 0 {
		b.WriteByte('\n')
		b.WriteString("# HELP parabank_qa_test_attempts Attempts made per test.\n")
		b.WriteString("# TYPE parabank_qa_test_attempts gauge\n")
		for _, t := range tests {
			b.WriteString(fmt.Sprintf("parabank_qa_test_attempts{run=%q,test=%q,outcome=%q} %d\n",
				run, sanitizeLabel(t.Title), t.Status, len(t.Results)))
		}
	}

	// Step durations of each test's final attempt.
	var steps []string
	for _, t := range tests {
		if len(t.Results) == 0 {
			continue
		}
		last := t.Results[len(t.Results)-1]
		for _, s := range last.Steps {
			status := "passed"
			if s.Error != nil {
				status = "failed"
			}
			steps = append(steps, fmt.Sprintf("parabank_qa_step_duration_ms{run=%q,test=%q,step=%q,status=%q} %.2f\n",
				run, sanitizeLabel(t.Title), sanitizeLabel(s.Title), status, s.Duration))
		}
	}
	if len(steps) > 0 {
		b.WriteByte('\n')
		b.WriteString("# HELP parabank_qa_step_duration_ms Step latency of the final attempt in milliseconds.\n")
		b.WriteString("# TYPE parabank_qa_step_duration_ms gauge\n")
		for _, line := range steps {
			b.WriteString(line)
		}
	}

	return b.String()
}

// sanitizeLabel replaces characters invalid in Prometheus labels.
func sanitizeLabel(s string) string {
	return strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.' || r == '/' || r == ':' || r == ' ' {
			return r
		}
		return '_'
	}, s)
}
