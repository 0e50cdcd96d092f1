// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package obs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// Report/Close's nil-receiver no-op paths are pure and worth pinning down
// directly; actually writing a point requires a live InfluxDB endpoint,
// which this suite doesn't stand up, mirroring the untested-without-a-
// live-backend boundary already noted for internal/store's Neo4jAdapter
// and internal/indexsource's GCSSource.
func TestRunStatsReporterNilReceiverIsNoOp(t *testing.T) {
	var r *RunStatsReporter
	require.NoError(t, r.Report(context.Background(), RunStats{Mode: "full"}))
	require.NotPanics(t, r.Close)
}
