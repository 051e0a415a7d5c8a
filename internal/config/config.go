// Package config resolves the CLI flag surface (SPEC_FULL.md §6) plus an
// optional JSON config file layered underneath it, validated against an
// embedded JSON Schema. Grounded on the teacher's pkg/archive.Validate
// (jsonschema.Compile against a schema document) generalized from a
// fixed set of job/meta/cluster schema kinds to this repository's single
// config document, and decoded with json.Decoder.DisallowUnknownFields()
// the way the teacher's own config loader does.
package config

import (
	"bytes"
	"embed"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schema.json
var schemaFS embed.FS

// Config is the fully resolved set of options driving one pipeline run:
// CLI flags win over a JSON config file's values on conflict (§DOMAIN-6).
type Config struct {
	Input               string
	Output              string
	Force               bool
	Parser              string
	Compression         string
	CompressionLevel    int
	Clean               bool
	PartitionData       bool
	PartitionKeyPrefix  string
	PartitionOrphanKey  string
	DwellOutput         bool
	LogLevel            string
	Version             bool

	ConfigPath       string
	LogDate          bool
	S3Bucket         string
	S3Endpoint       string
	S3Region         string
	S3AccessKey      string
	S3SecretKey      string
	DwellIndexDB     string
	ContextKeyExpr   string
	FatalOn          string
	Gops             bool
	MetricsAddr      string
}

// fileOverlay is the subset of Config fields an optional JSON config
// file may supply. Flags are parsed first; a field the file sets is
// applied only where the flag value still equals the flag's default, so
// a flag passed explicitly with its default value is overridden by the
// file too.
type fileOverlay struct {
	Parser             *string `json:"parser"`
	Compression        *string `json:"compression"`
	CompressionLevel   *int    `json:"compression_level"`
	Clean              *bool   `json:"clean"`
	PartitionData      *bool   `json:"partition_data"`
	PartitionKeyPrefix *string `json:"partition_key_prefix"`
	PartitionOrphanKey *string `json:"partition_orphan_key"`
	DwellOutput        *bool   `json:"dwell_output"`
	LogLevel           *string `json:"log_level"`
	LogDate            *bool   `json:"logdate"`
	S3Bucket           *string `json:"s3_bucket"`
	S3Endpoint         *string `json:"s3_endpoint"`
	S3Region           *string `json:"s3_region"`
	S3AccessKey        *string `json:"s3_access_key"`
	S3SecretKey        *string `json:"s3_secret_key"`
	DwellIndexDB       *string `json:"dwell_index_db"`
	ContextKeyExpr     *string `json:"context_key_expr"`
	FatalOn            *string `json:"fatal_on"`
	Gops               *bool   `json:"gops"`
	MetricsAddr        *string `json:"metrics_addr"`
}

// Parse parses args against the §6 flag surface (plus the §DOMAIN
// additions), then layers a JSON config file under it when -config is
// given. Returns a FlagSet error or validation error on malformed input.
func Parse(args []string) (Config, error) {
	fs := flag.NewFlagSet("bipconv", flag.ContinueOnError)

	cfg := Config{}
	fs.StringVar(&cfg.Input, "input", "", "path to the binary capture file")
	fs.StringVar(&cfg.Output, "output", "", "output directory")
	fs.BoolVar(&cfg.Force, "force", false, "create the output directory if missing")
	fs.StringVar(&cfg.Parser, "parser", "juliet", "profile name")
	fs.StringVar(&cfg.Compression, "compression", "", "sink codec: snappy|gzip|brotli|lz4|zstd")
	fs.IntVar(&cfg.CompressionLevel, "compression_level", 0, "integer compression level")
	fs.BoolVar(&cfg.Clean, "clean", false, "enable DEADBEEF removal in Tango")
	fs.BoolVar(&cfg.PartitionData, "partition_data", false, "select the partitioned sink (Tango only)")
	fs.StringVar(&cfg.PartitionKeyPrefix, "partition_key_prefix", "", "prefix applied to generated context keys")
	fs.StringVar(&cfg.PartitionOrphanKey, "partition_orphan_key", "ORPHAN_DATA", "key used before any context is seen")
	fs.BoolVar(&cfg.DwellOutput, "dwell_output", false, "select the dwell sink")
	fs.StringVar(&cfg.LogLevel, "log_level", "info", "log severity level")
	fs.BoolVar(&cfg.Version, "version", false, "print version and exit")

	fs.StringVar(&cfg.ConfigPath, "config", "", "path to a JSON config file layered under these flags")
	fs.BoolVar(&cfg.LogDate, "logdate", false, "include date/time in log output")
	fs.StringVar(&cfg.S3Bucket, "s3_bucket", "", "S3 bucket for sink output")
	fs.StringVar(&cfg.S3Endpoint, "s3_endpoint", "", "S3-compatible endpoint URL")
	fs.StringVar(&cfg.S3Region, "s3_region", "", "S3 region")
	fs.StringVar(&cfg.S3AccessKey, "s3_access_key", "", "S3 access key")
	fs.StringVar(&cfg.S3SecretKey, "s3_secret_key", "", "S3 secret key")
	fs.StringVar(&cfg.DwellIndexDB, "dwell_index_db", "", "path to a sqlite dwell-index database")
	fs.StringVar(&cfg.ContextKeyExpr, "context_key_expr", "", "expr-lang expression replacing the default context-key function")
	fs.StringVar(&cfg.FatalOn, "fatal_on", "", "expr-lang boolean promoting named schema-assertion failures to hard errors")
	fs.BoolVar(&cfg.Gops, "gops", false, "start a gops diagnostics agent")
	fs.StringVar(&cfg.MetricsAddr, "metrics_addr", "", "serve Prometheus counters at this address while running")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	if cfg.ConfigPath != "" {
		if err := applyFileOverlay(&cfg); err != nil {
			return Config{}, err
		}
	}

	if !cfg.Version {
		if cfg.Input == "" {
			return Config{}, fmt.Errorf("config: -input is required")
		}
		if cfg.Output == "" {
			return Config{}, fmt.Errorf("config: -output is required")
		}
	}

	return cfg, nil
}

func applyFileOverlay(cfg *Config) error {
	data, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("config: read %q: %w", cfg.ConfigPath, err)
	}

	schemaData, err := schemaFS.ReadFile("schema.json")
	if err != nil {
		return fmt.Errorf("config: read embedded schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("config.schema.json", bytes.NewReader(schemaData)); err != nil {
		return fmt.Errorf("config: load embedded schema: %w", err)
	}
	schema, err := compiler.Compile("config.schema.json")
	if err != nil {
		return fmt.Errorf("config: compile embedded schema: %w", err)
	}

	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("config: parse %q: %w", cfg.ConfigPath, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("config: %q failed schema validation: %w", cfg.ConfigPath, err)
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var overlay fileOverlay
	if err := dec.Decode(&overlay); err != nil {
		return fmt.Errorf("config: decode %q: %w", cfg.ConfigPath, err)
	}

	overlayInto(cfg, overlay)
	return nil
}

func overlayInto(cfg *Config, o fileOverlay) {
	if cfg.Parser == "juliet" && o.Parser != nil {
		cfg.Parser = *o.Parser
	}
	if cfg.Compression == "" && o.Compression != nil {
		cfg.Compression = *o.Compression
	}
	if cfg.CompressionLevel == 0 && o.CompressionLevel != nil {
		cfg.CompressionLevel = *o.CompressionLevel
	}
	if !cfg.Clean && o.Clean != nil {
		cfg.Clean = *o.Clean
	}
	if !cfg.PartitionData && o.PartitionData != nil {
		cfg.PartitionData = *o.PartitionData
	}
	if cfg.PartitionKeyPrefix == "" && o.PartitionKeyPrefix != nil {
		cfg.PartitionKeyPrefix = *o.PartitionKeyPrefix
	}
	if cfg.PartitionOrphanKey == "ORPHAN_DATA" && o.PartitionOrphanKey != nil {
		cfg.PartitionOrphanKey = *o.PartitionOrphanKey
	}
	if !cfg.DwellOutput && o.DwellOutput != nil {
		cfg.DwellOutput = *o.DwellOutput
	}
	if cfg.LogLevel == "info" && o.LogLevel != nil {
		cfg.LogLevel = *o.LogLevel
	}
	if !cfg.LogDate && o.LogDate != nil {
		cfg.LogDate = *o.LogDate
	}
	if cfg.S3Bucket == "" && o.S3Bucket != nil {
		cfg.S3Bucket = *o.S3Bucket
	}
	if cfg.S3Endpoint == "" && o.S3Endpoint != nil {
		cfg.S3Endpoint = *o.S3Endpoint
	}
	if cfg.S3Region == "" && o.S3Region != nil {
		cfg.S3Region = *o.S3Region
	}
	if cfg.S3AccessKey == "" && o.S3AccessKey != nil {
		cfg.S3AccessKey = *o.S3AccessKey
	}
	if cfg.S3SecretKey == "" && o.S3SecretKey != nil {
		cfg.S3SecretKey = *o.S3SecretKey
	}
	if cfg.DwellIndexDB == "" && o.DwellIndexDB != nil {
		cfg.DwellIndexDB = *o.DwellIndexDB
	}
	if cfg.ContextKeyExpr == "" && o.ContextKeyExpr != nil {
		cfg.ContextKeyExpr = *o.ContextKeyExpr
	}
	if cfg.FatalOn == "" && o.FatalOn != nil {
		cfg.FatalOn = *o.FatalOn
	}
	if !cfg.Gops && o.Gops != nil {
		cfg.Gops = *o.Gops
	}
	if cfg.MetricsAddr == "" && o.MetricsAddr != nil {
		cfg.MetricsAddr = *o.MetricsAddr
	}
}
