package testutil

import (
	"fmt"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// AssertStageRan checks captured log output to confirm that a stage finished
// executing at least once.
func AssertStageRan(t *testing.T, logOutput, stage string) {
	t.Helper()

	require.True(t,
		strings.Contains(logOutput, fmt.Sprintf("stage=%s", stage)) &&
			strings.Contains(logOutput, "Stage execution finished."),
		"expected log output for stage '%s' was not found in logs", stage,
	)
}

// AssertRanBefore checks that the first completion of before precedes the
// first completion of after.
func AssertRanBefore(t *testing.T, r *Recorder, before, after string) {
	t.Helper()

	order := r.Order()
	i, j := slices.Index(order, before), slices.Index(order, after)
	require.NotEqual(t, -1, i, "stage '%s' never ran; order: %v", before, order)
	require.NotEqual(t, -1, j, "stage '%s' never ran; order: %v", after, order)
	require.Less(t, i, j, "expected '%s' to finish before '%s'; order: %v", before, after, order)
}
