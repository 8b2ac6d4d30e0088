package testutil

import (
	"sort"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/vk/wellformed/internal/batch"
)

// Verdicts parses the "index:bool" lines of a run's output.
func Verdicts(t *testing.T, output string) []batch.Verdict {
	t.Helper()

	var verdicts []batch.Verdict
	for _, line := range strings.Split(strings.TrimSpace(output), "\n") {
		if line == "" {
			continue
		}
		idx, flag, ok := strings.Cut(line, ":")
		require.True(t, ok, "malformed verdict line %q", line)
		index, err := strconv.Atoi(idx)
		require.NoError(t, err, "malformed verdict index in %q", line)
		wellFormed, err := strconv.ParseBool(flag)
		require.NoError(t, err, "malformed verdict flag in %q", line)
		verdicts = append(verdicts, batch.Verdict{Index: index, WellFormed: wellFormed})
	}
	return verdicts
}

// AssertVerdicts checks that result emitted exactly want, in any order.
func AssertVerdicts(t *testing.T, result *HarnessResult, want map[int]bool) {
	t.Helper()

	got := Verdicts(t, result.Output)
	sort.Slice(got, func(i, j int) bool { return got[i].Index < got[j].Index })

	require.Len(t, got, len(want), "unexpected number of verdicts in output:\n%s", result.Output)
	for _, v := range got {
		expected, ok := want[v.Index]
		require.True(t, ok, "unexpected verdict for index %d", v.Index)
		require.Equal(t, expected, v.WellFormed, "verdict for index %d", v.Index)
	}
}

// AssertLogContains checks that the run logged every given fragment.
func AssertLogContains(t *testing.T, result *HarnessResult, fragments ...string) {
	t.Helper()

	for _, f := range fragments {
		require.Contains(t, result.LogOutput, f, "expected log fragment was not found")
	}
}
