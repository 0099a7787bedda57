package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"modcalc/config"
	"modcalc/fec"
	"modcalc/host"
	"modcalc/modulation"
	"modcalc/server"
	"modcalc/utils"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	listen := flag.String("listen", "", "Listen address (overrides config)")
	variant := flag.String("variant", "", "Initial modulation type: BPSK, QPSK or FSK")
	useFEC := flag.Bool("fec", false, "Show the information rate after the RS outer code")
	printOnce := flag.Bool("print", false, "Compute once from -rate/-deviation, print and exit")
	rate := flag.String("rate", "0", "Modulation rate in symbols/s (with -print)")
	deviation := flag.String("deviation", "0", "FSK frequency deviation in Hz (with -print)")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *variant != "" {
		cfg.Session.DefaultVariant = *variant
	}
	if *useFEC {
		cfg.FEC.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	var outer *fec.OuterCode
	if cfg.FEC.Enabled {
		outer, err = fec.New(cfg.FEC.DataBytes, cfg.FEC.ParityBytes)
		if err != nil {
			log.Fatalf("Failed to build outer code: %v", err)
		}
		if err := outer.SelfCheck(); err != nil {
			log.Fatalf("Outer code %s failed self-check: %v", outer, err)
		}
		log.Printf("Outer code %s ready (rate %.4f)", outer, outer.Rate())
	}

	if *printOnce {
		if err := printResult(os.Stdout, cfg.Session.DefaultVariant, *rate, *deviation, outer); err != nil {
			log.Fatalf("%v", err)
		}
		return
	}

	log.Println("--- Starting signal parameter calculator ---")
	ctx, cancel := utils.SignalContext(context.Background())
	defer cancel()

	srv := server.New(server.Options{
		DefaultVariant: cfg.Session.DefaultVariant,
		OuterCode:      outer,
		Metrics:        cfg.MetricsEnabled(),
	})
	if err := srv.Run(ctx, cfg.Server.Listen); err != nil {
		log.Fatalf("Form server failed: %v", err)
	}
	log.Println("Form server stopped.")
}

// printResult runs one session with the given inputs and writes its outputs.
func printResult(w io.Writer, variant, rate, deviation string, outer *fec.OuterCode) error {
	var opts []host.Option
	if outer != nil {
		opts = append(opts, host.WithOuterCode(outer))
	}
	sess := host.NewSession(variant, opts...)
	if err := sess.Set(modulation.FieldRate, rate); err != nil {
		return err
	}
	if sess.Variant().Declares(modulation.FieldDeviation) {
		if err := sess.Set(modulation.FieldDeviation, deviation); err != nil {
			return err
		}
	}

	snap := sess.Snapshot()
	fmt.Fprintf(w, "Modulation Type: %s\n", snap.Variant)
	for _, f := range snap.Fields {
		fmt.Fprintf(w, "%s %s\n", f.Label, f.Value)
	}
	fmt.Fprintf(w, "Data Rate: %s\n", snap.DataRate)
	if outer != nil {
		fmt.Fprintf(w, "Information Rate (%s): %s\n", outer, snap.InformationRate)
	}
	fmt.Fprintf(w, "%s\n", snap.Diagram)
	return nil
}
