// Command bipconv converts RF/radar binary capture files into a
// structured columnar dataset (SPEC_FULL.md §1). It wires the CLI flag
// surface (§6) to a profile's frame reader/classifier/sink-router and
// drives the pipeline to completion, grounded on the teacher's
// tools/archive-manager and tools/archive-migration command shape (open
// input, build collaborators, run, report) and cmd/cc-backend's gops
// diagnostics wiring.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/gops/agent"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AFMC-MAJCOM/bipconv/internal/config"
	"github.com/AFMC-MAJCOM/bipconv/internal/contextkey"
	"github.com/AFMC-MAJCOM/bipconv/internal/dwellindex"
	_ "github.com/AFMC-MAJCOM/bipconv/internal/juliet"
	_ "github.com/AFMC-MAJCOM/bipconv/internal/mikelima"
	"github.com/AFMC-MAJCOM/bipconv/internal/pipeline"
	"github.com/AFMC-MAJCOM/bipconv/internal/profile"
	"github.com/AFMC-MAJCOM/bipconv/internal/record"
	"github.com/AFMC-MAJCOM/bipconv/internal/runtimeEnv"
	"github.com/AFMC-MAJCOM/bipconv/internal/sink"
	_ "github.com/AFMC-MAJCOM/bipconv/internal/tango"
	"github.com/AFMC-MAJCOM/bipconv/pkg/log"
)

const version = "0.1.0"

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if err := runtimeEnv.LoadEnv("./.env"); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("bipconv: load .env: %w", err)
	}

	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}
	if cfg.Version {
		fmt.Println("bipconv " + version)
		return nil
	}

	log.SetLogDateTime(cfg.LogDate)
	log.SetLogLevel(cfg.LogLevel)

	if cfg.Gops {
		if err := agent.Listen(agent.Options{}); err != nil {
			return fmt.Errorf("bipconv: start gops agent: %w", err)
		}
	}

	descriptor, err := profile.Lookup(cfg.Parser)
	if err != nil {
		return fmt.Errorf("bipconv: %w", err)
	}

	in, err := os.Open(cfg.Input)
	if err != nil {
		return fmt.Errorf("bipconv: open input: %w", err)
	}
	defer in.Close()

	if cfg.Force {
		if err := os.MkdirAll(cfg.Output, 0o750); err != nil {
			return fmt.Errorf("bipconv: create output directory: %w", err)
		}
	}

	target, err := buildTarget(cfg)
	if err != nil {
		return err
	}
	codec, err := sink.Codec(cfg.Compression)
	if err != nil {
		return fmt.Errorf("bipconv: %w", err)
	}

	var indexBackend sink.DwellIndexBackend
	if cfg.DwellIndexDB != "" {
		store, err := dwellindex.Open(cfg.DwellIndexDB)
		if err != nil {
			return fmt.Errorf("bipconv: %w", err)
		}
		defer store.Close()
		indexBackend = store
	}

	sinkCfg := sink.Config{Target: target, Codec: codec, MaxSizeMB: 256}
	sinks := buildSinks(descriptor, cfg, sinkCfg, indexBackend)

	ctxTable, err := contextkey.NewTable(cfg.PartitionOrphanKey, cfg.PartitionKeyPrefix, cfg.ContextKeyExpr)
	if err != nil {
		return fmt.Errorf("bipconv: %w", err)
	}
	fatalRule, err := contextkey.NewFatalRule(cfg.FatalOn)
	if err != nil {
		return fmt.Errorf("bipconv: %w", err)
	}

	driver := &pipeline.Driver{
		Profile:    descriptor,
		Options:    profile.Options{Clean: cfg.Clean, PartitionKeyPrefix: cfg.PartitionKeyPrefix, PartitionOrphanKey: cfg.PartitionOrphanKey},
		Sinks:      sinks,
		ContextKey: ctxTable,
		FatalRule:  fatalRule,
	}

	var metricsServer *http.Server
	if cfg.MetricsAddr != "" {
		metricsServer = startMetricsServer(cfg.MetricsAddr, &driver.Counters)
		defer metricsServer.Close()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("bipconv: received termination signal, shutting down")
		cancel()
	}()

	if err := driver.Run(ctx, in); err != nil {
		return fmt.Errorf("bipconv: %w", err)
	}

	if err := pipeline.WriteMetadataSidecar(cfg.Output, "bipconv", version, driver.Options, &driver.Counters, descriptor.Schemas, sinks); err != nil {
		return fmt.Errorf("bipconv: %w", err)
	}

	log.Infof("bipconv: done. bytes_read=%d packets_read=%d bad_packets=%d unknown_packets=%d",
		driver.Counters.BytesRead.Load(), driver.Counters.PacketsRead.Load(),
		driver.Counters.BadPackets.Load(), driver.Counters.UnknownPackets.Load())
	return nil
}

func buildTarget(cfg config.Config) (sink.Target, error) {
	if cfg.S3Bucket != "" {
		return sink.NewS3Target(context.Background(), sink.S3TargetConfig{
			Endpoint:  cfg.S3Endpoint,
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
	}
	return sink.NewFileTarget(cfg.Output)
}

// buildSinks constructs one sink per schema key the profile declares,
// choosing Flat, Partitioned, or Dwell per the §6 flags (partition_data,
// dwell_output); only the "data" kind routes through whichever variant
// is selected (the partitioned one for Tango only), everything else is
// always Flat.
func buildSinks(d profile.Descriptor, cfg config.Config, sinkCfg sink.Config, indexBackend sink.DwellIndexBackend) map[string]sink.Sink {
	sinks := make(map[string]sink.Sink, len(d.Schemas)+3)
	for key, schema := range d.Schemas {
		switch {
		case key == "data" && cfg.DwellOutput:
			sinks[key] = sink.NewDwellSink(schema, "samples_i", sinkCfg, indexBackend)
		case key == "data" && cfg.PartitionData && d.Name == "tango":
			sinks[key] = sink.NewPartitionedSink(schema, sinkCfg)
		default:
			sinks[key] = sink.NewFlatSink(schema, sinkCfg)
		}
	}
	sinks["framing_packets"] = sink.NewFlatSink(record.Schema{Kind: "framing_packets", Fields: []record.Field{{Name: "frame_index", Type: record.KindUint32}}}, sinkCfg)
	sinks["bad_packets"] = sink.NewFlatSink(record.Schema{Kind: "bad_packets", Fields: []record.Field{{Name: "reason", Type: record.KindString}}}, sinkCfg)
	sinks["unknown_packets"] = sink.NewFlatSink(record.Schema{Kind: "unknown_packets", Fields: []record.Field{{Name: "packet_type", Type: record.KindUint8}}}, sinkCfg)
	return sinks
}

// startMetricsServer exposes bytes_read/packets_read/bad_packets/
// unknown_packets as Prometheus gauges, polling the driver's
// atomically-stored counters (§DOMAIN-8); never touches driver state
// directly.
func startMetricsServer(addr string, counters *pipeline.Counters) *http.Server {
	reg := prometheus.NewRegistry()
	bytesRead := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "bipconv_bytes_read"}, func() float64 { return float64(counters.BytesRead.Load()) })
	packetsRead := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "bipconv_packets_read"}, func() float64 { return float64(counters.PacketsRead.Load()) })
	badPackets := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "bipconv_bad_packets"}, func() float64 { return float64(counters.BadPackets.Load()) })
	unknownPackets := prometheus.NewGaugeFunc(prometheus.GaugeOpts{Name: "bipconv_unknown_packets"}, func() float64 { return float64(counters.UnknownPackets.Load()) })
	reg.MustRegister(bytesRead, packetsRead, badPackets, unknownPackets)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("bipconv: metrics server: %v", err)
		}
	}()
	return srv
}
