package main

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := rootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", "testdata/station.yaml")
	require.NoError(t, err)

	var report inspectReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, "Minmus Station", report.Name)
	assert.Equal(t, 3, report.Parts)
	require.Len(t, report.Hatches, 2)
	states := map[string]int{}
	for _, h := range report.Hatches {
		states[h.State]++
	}
	assert.Equal(t, map[string]int{"Open": 1, "Closed": 1}, states)
	require.Len(t, report.Crew, 3)
	seats := map[string]string{}
	for _, c := range report.Crew {
		seats[c.Name] = c.Part
	}
	assert.Equal(t, map[string]string{
		"Jebediah Kerman": "pod",
		"Bill Kerman":     "pod",
		"Bob Kerman":      "hab",
	}, seats)
}

func TestConnected_JSON(t *testing.T) {
	out, err := run(t, "connected", "testdata/station.yaml", "--from", "pod", "-o", "json")
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.ElementsMatch(t, []string{"pod", "hab"}, ids)
}

func TestConnected_ClosedHatch(t *testing.T) {
	out, err := run(t, "connected", "testdata/station.yaml", "--from", "lab", "-o", "json")
	require.NoError(t, err)

	var ids []string
	require.NoError(t, json.Unmarshal([]byte(out), &ids))
	assert.Equal(t, []string{"lab"}, ids)
}

func TestConnected_RequiresFrom(t *testing.T) {
	_, err := run(t, "connected", "testdata/station.yaml")
	require.Error(t, err)
}

func TestAggregate_Resource(t *testing.T) {
	out, err := run(t, "aggregate", "testdata/station.yaml", "--from", "pod", "--resource", "LiquidFuel", "-o", "json")
	require.NoError(t, err)

	var r totalsReport
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.Equal(t, 30.0, r.Current)
	require.NotNil(t, r.Total)
	assert.Equal(t, 100.0, *r.Total)
}

func TestAggregate_CrewWithDeepFreeze(t *testing.T) {
	out, err := run(t, "aggregate", "testdata/station.yaml", "--from", "pod", "--resource", "Crew", "-o", "json")
	require.NoError(t, err)
	var without totalsReport
	require.NoError(t, json.Unmarshal([]byte(out), &without))
	assert.Equal(t, 2.0, without.Current)

	out, err = run(t, "aggregate", "testdata/station.yaml", "--from", "pod", "--resource", "Crew", "--deepfreeze", "-o", "json")
	require.NoError(t, err)
	var with totalsReport
	require.NoError(t, json.Unmarshal([]byte(out), &with))
	assert.Equal(t, 4.0, with.Current)
}

func TestAggregate_All(t *testing.T) {
	out, err := run(t, "aggregate", "testdata/station.yaml", "--from", "pod")
	require.NoError(t, err)

	var list []totalsReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &list))
	byName := map[string]totalsReport{}
	for _, r := range list {
		byName[r.Resource] = r
	}
	assert.Equal(t, 8.0, byName["Science"].Current)
	assert.Nil(t, byName["Science"].Total)
	assert.Equal(t, 30.0, byName["LiquidFuel"].Current)
}

func TestAggregate_UnknownPart(t *testing.T) {
	_, err := run(t, "aggregate", "testdata/station.yaml", "--from", "ghost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ghost")
}

func TestValidate(t *testing.T) {
	out, err := run(t, "validate", "testdata/station.yaml", "testdata/broken.yaml", "-o", "json")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 snapshots invalid")

	var results []validateResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)
	assert.True(t, results[0].OK)
	assert.False(t, results[1].OK)
	assert.Contains(t, results[1].Error, "testdata/broken.yaml")
}

func TestValidate_MissingFile(t *testing.T) {
	_, err := run(t, "validate", "testdata/missing.json")
	require.Error(t, err)
}

func TestUnknownOutput(t *testing.T) {
	_, err := run(t, "connected", "testdata/station.yaml", "--from", "pod", "-o", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown output format")
}
