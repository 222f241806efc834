// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/seg2mseed/internal/stream"
	"github.com/pdiddy/seg2mseed/internal/survey"
	"github.com/pdiddy/seg2mseed/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog", "seg2mseed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func dhSummary() survey.Summary {
	return survey.Summary{
		Survey:  types.SurveyDH,
		Format:  types.FormatSEG2,
		Written: 0, Converted: 1, Skipped: 2, Failed: 1,
		Outputs: []stream.Result{
			{Name: "DH_Channel_V_1.seg2.mseed", Path: "/out/DH_Channel_V_1.seg2.seg2", Traces: 3, SamplingRate: 1000, Status: stream.StatusConverted},
			{Name: "DH_Channel_X_2.seg2.mseed", Intermediate: "/out/DH_Channel_X_2.seg2.mseed", IntermediateKept: true, Traces: 2, SamplingRate: 500, Status: stream.StatusConvertFailed},
		},
	}
}

func TestRecordAndQuery(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	req := survey.Request{InputDir: "/in", OutputDir: "/out", Format: types.FormatSEG2}

	id, err := s.Record(ctx, "", req, dhSummary(), started)
	require.NoError(t, err)
	_, err = uuid.Parse(id)
	assert.NoError(t, err, "run IDs are UUIDs")

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	r := runs[0]
	assert.Equal(t, id, r.ID)
	assert.Equal(t, "DH", r.Survey)
	assert.Equal(t, "seg2", r.Format)
	assert.Equal(t, "/in", r.InputDir)
	assert.Equal(t, 1, r.Converted)
	assert.Equal(t, 2, r.Skipped)
	assert.Equal(t, 1, r.Failed)
	assert.True(t, started.Equal(r.StartedAt))

	outs, err := s.Outputs(ctx, id)
	require.NoError(t, err)
	require.Len(t, outs, 2)
	assert.Equal(t, "DH_Channel_V_1.seg2.mseed", outs[0].Name)
	assert.Equal(t, "converted", outs[0].Status)
	assert.False(t, outs[0].IntermediateKept)
	assert.Equal(t, "convert_failed", outs[1].Status)
	assert.True(t, outs[1].IntermediateKept)
	assert.InDelta(t, 500, outs[1].SamplingRate, 1e-9)
}

func TestRunsOrderedByStart(t *testing.T) {
	s := testStore(t)
	n := 0
	s.newID = func() string { n++; return fmt.Sprintf("run-%d", n) }
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	for _, offset := range []time.Duration{2 * time.Hour, time.Hour} {
		_, err := s.Record(ctx, "", survey.Request{}, survey.Summary{Survey: types.SurveyCH, Format: types.FormatMSEED}, base.Add(offset))
		require.NoError(t, err)
	}

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "run-2", runs[0].ID)
	assert.Equal(t, "run-1", runs[1].ID)
}

func TestRecordKeepsGivenID(t *testing.T) {
	s := testStore(t)
	id, err := s.Record(context.Background(), "fixed-id", survey.Request{}, dhSummary(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, "fixed-id", id)

	outs, err := s.Outputs(context.Background(), "fixed-id")
	require.NoError(t, err)
	assert.Len(t, outs, 2)
}

func TestRunsRejectsCorruptStartTime(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	id, err := s.Record(ctx, "", survey.Request{}, dhSummary(), time.Now())
	require.NoError(t, err)

	_, err = s.db.ExecContext(ctx, `UPDATE runs SET started_at = 'yesterday' WHERE id = ?`, id)
	require.NoError(t, err)

	_, err = s.Runs(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scanning run")
}

func TestReopenKeepsRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seg2mseed.db")
	s, err := Open(path)
	require.NoError(t, err)
	_, err = s.Record(context.Background(), "", survey.Request{}, dhSummary(), time.Now())
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestExport(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	_, err := s.Record(ctx, "", survey.Request{InputDir: "/in", OutputDir: "/out"}, dhSummary(), time.Now())
	require.NoError(t, err)

	t.Run("yaml", func(t *testing.T) {
		path, err := s.ExportYAML(ctx)
		require.NoError(t, err)
		assert.Equal(t, "export.yaml", filepath.Base(path))

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var runs []Run
		require.NoError(t, yaml.Unmarshal(data, &runs))
		require.Len(t, runs, 1)
		assert.Len(t, runs[0].Outputs, 2)
	})

	t.Run("json", func(t *testing.T) {
		path, err := s.ExportJSON(ctx)
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var runs []Run
		require.NoError(t, json.Unmarshal(data, &runs))
		require.Len(t, runs, 1)
		assert.Equal(t, "DH_Channel_X_2.seg2.mseed", runs[0].Outputs[1].Name)
	})
}
