/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package api

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

type nopPlugin struct {
	name string
}

func (p *nopPlugin) Name() string              { return p.name }
func (p *nopPlugin) MetricNames() []string     { return []string{"a", "b"} }
func (p *nopPlugin) OnStart() error            { return nil }
func (p *nopPlugin) Run(stop *util.StopSignal) { <-stop.C }
func (p *nopPlugin) OnEnd() PhaseResult        { return EmptyPhaseResult(p) }

func TestSchemaCheck(t *testing.T) {
	schema := Schema{Required: []string{"metrics"}, Optional: []string{"timeout"}}

	assert.NoError(t, schema.Check("p", map[string]interface{}{"metrics": 1}))
	assert.NoError(t, schema.Check("p", map[string]interface{}{"metrics": 1, "timeout": 2}))

	err := schema.Check("p", map[string]interface{}{"metrics": 1, "bogus": 2})
	assert.Error(t, err)
	assert.True(t, IsConfigError(err))
	assert.Contains(t, err.Error(), "bogus")

	err = schema.Check("p", map[string]interface{}{"timeout": 2})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "metrics")
}

func TestMetricResultMarshal(t *testing.T) {
	raw, err := json.Marshal(MetricResult{})
	assert.NoError(t, err)
	assert.Equal(t, "{}", string(raw))

	full := MetricResult{
		TStart:     "2023-04-18T09:00:00.000000Z",
		TEnd:       "2023-04-18T09:01:00.000000Z",
		Values:     []float64{1269082},
		Statistics: Statistics{Min: 1269082, Mean: 1269082, Max: 1269082},
	}
	raw, err = json.Marshal(full)
	assert.NoError(t, err)
	assert.Contains(t, string(raw), `"values":[1269082]`)
	assert.Contains(t, string(raw), `"statistics"`)
}

func TestRegisterAndBuild(t *testing.T) {
	Register("MyTestPlugin", func(params map[string]interface{}) (Plugin, error) {
		return &nopPlugin{name: "MyTestPlugin"}, nil
	})

	// Lookup is case-insensitive.
	p, err := Build("mytestplugin", nil)
	assert.NoError(t, err)
	assert.Equal(t, "MyTestPlugin", p.Name())

	_, err = Build("NoSuchPlugin", nil)
	assert.Error(t, err)
	assert.True(t, IsConfigError(err))
}

func TestBuildRecoversFactoryPanic(t *testing.T) {
	Register("PanicPlugin", func(params map[string]interface{}) (Plugin, error) {
		panic("boom")
	})

	_, err := Build("PanicPlugin", nil)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestEmptyPhaseResult(t *testing.T) {
	r := EmptyPhaseResult(&nopPlugin{name: "p"})
	assert.Len(t, r, 2)
	assert.True(t, r["a"].Empty())
	assert.True(t, r["b"].Empty())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "created", StateCreated.String())
	assert.Equal(t, "ended", StateEnded.String())
	assert.Equal(t, "unknown", State(99).String())
}
