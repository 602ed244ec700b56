/*
 * Copyright 2022 Holoinsight Project Authors. Licensed under Apache-2.0.
 */

package suite

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/NikitaP2001/hep-benchmark-suite/pkg/config"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/hwmeta"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/plugin/runner"
	"github.com/NikitaP2001/hep-benchmark-suite/pkg/util"
)

const (
	// Version is the suite release carried in every report.
	Version = "3.0.0"

	// jsonVersion tracks the report document schema.
	jsonVersion = "2.0"

	reportFile = "bmkrun_report.json"
)

type hostSection struct {
	Hostname string                 `json:"hostname"`
	IP       string                 `json:"ip"`
	Tags     map[string]interface{} `json:"tags,omitempty"`
	SW       hwmeta.Software        `json:"SW"`
	HW       hwmeta.Hardware        `json:"HW"`
}

type suiteSection struct {
	Version string       `json:"version"`
	Flags   suiteFlags   `json:"flags"`
	Errors  []string     `json:"errors,omitempty"`
	Plugins pluginConfig `json:"plugins_config,omitempty"`
}

type suiteFlags struct {
	Mode   string `json:"mode"`
	NCores int    `json:"ncores"`
}

type pluginConfig map[string]map[string]interface{}

type document struct {
	ID           string                 `json:"_id"`
	Timestamp    string                 `json:"_timestamp"`
	TimestampEnd string                 `json:"_timestamp_end"`
	JSONVersion  string                 `json:"json_version"`
	Suite        suiteSection           `json:"suite"`
	Host         hostSection            `json:"host"`
	Profiles     map[string]interface{} `json:"profiles"`
	Plugins      runner.Report          `json:"plugins"`
}

func buildDocument(cfg *config.Config, md *hwmeta.Metadata, profiles map[string]interface{},
	plugins runner.Report, failures []string, start, end time.Time) *document {

	return &document{
		ID:           uuid.New().String(),
		Timestamp:    util.FormatTimestamp(start),
		TimestampEnd: util.FormatTimestamp(end),
		JSONVersion:  jsonVersion,
		Suite: suiteSection{
			Version: Version,
			Flags: suiteFlags{
				Mode:   cfg.Global.Mode,
				NCores: cfg.Global.NCores,
			},
			Errors:  failures,
			Plugins: cfg.Plugins,
		},
		Host: hostSection{
			Hostname: md.Hostname,
			IP:       md.IP,
			Tags:     cfg.Global.Tags,
			SW:       md.SW,
			HW:       md.HW,
		},
		Profiles: profiles,
		Plugins:  plugins,
	}
}

func writeDocument(rundir string, doc *document) (string, error) {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", errors.Wrap(err, "marshal report")
	}

	path := filepath.Join(rundir, reportFile)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", errors.Wrap(err, "write report")
	}
	return path, nil
}
