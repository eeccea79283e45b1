// lidoreport: Lido consensus-layer validator report prover
// Copyright 2024 ssz Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command lidoreport assembles, verifies and executes Lido report proving
// inputs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/clproof/lidoreport"
	"github.com/clproof/lidoreport/beaconapi"
	"github.com/clproof/lidoreport/config"
	"github.com/clproof/lidoreport/consensus"
	"github.com/clproof/lidoreport/execution"
	"github.com/clproof/lidoreport/lido"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var log = logrus.WithField("prefix", "main")

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the YAML configuration file",
		EnvVars: []string{config.EnvPrefix + "_CONFIG"},
	}
	verbosityFlag = &cli.StringFlag{
		Name:  "verbosity",
		Usage: "Logging verbosity (trace, debug, info, warn, error), overrides the config",
	}
	inputFlag = &cli.StringFlag{
		Name:     "input",
		Usage:    "Path of the snappy compressed program input",
		Required: true,
	}
	relaxedFlag = &cli.BoolFlag{
		Name:  "relaxed",
		Usage: "Defer delta ordering and transition checks to the Merkle proofs (testing only)",
	}
)

func main() {
	app := &cli.App{
		Name:  "lidoreport",
		Usage: "Prove Lido consensus-layer oracle reports",
		Flags: []cli.Flag{configFlag, verbosityFlag},
		Commands: []*cli.Command{
			{
				Name:  "prove-input",
				Usage: "Assemble the program input for a report from live nodes",
				Flags: []cli.Flag{
					&cli.Uint64Flag{Name: "ref-slot", Usage: "Reference slot of the report", Required: true},
					&cli.Uint64Flag{Name: "prev-slot", Usage: "Reference slot of the previous report", Required: true},
					&cli.StringFlag{Name: "out", Usage: "Path to write the program input to", Value: "input.ssz_snappy"},
					relaxedFlag,
				},
				Action: proveInput,
			},
			{
				Name:   "verify",
				Usage:  "Verify a program input without producing a report",
				Flags:  []cli.Flag{inputFlag, relaxedFlag},
				Action: verify,
			},
			{
				Name:  "report",
				Usage: "Execute the report program and print the ABI encoded public values",
				Flags: []cli.Flag{
					inputFlag,
					relaxedFlag,
					&cli.StringFlag{Name: "out", Usage: "Path to write the public values to"},
				},
				Action: report,
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("Command failed")
		os.Exit(1)
	}
}

// setup loads the configuration and configures logging from it.
func setup(ctx *cli.Context) (*config.Config, error) {
	cfg, err := config.Read(ctx.String(configFlag.Name))
	if err != nil {
		return nil, err
	}
	level := cfg.Log.Level
	if v := ctx.String(verbosityFlag.Name); v != "" {
		level = v
	}
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid verbosity %q", level)
	}
	logrus.SetLevel(lvl)
	if cfg.Log.Format == "json" {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, TimestampFormat: "2006-01-02 15:04:05"})
	}
	return cfg, nil
}

func mode(ctx *cli.Context) lido.Mode {
	if ctx.Bool(relaxedFlag.Name) {
		return lido.Relaxed
	}
	return lido.Strict
}

func proveInput(ctx *cli.Context) error {
	cfg, err := setup(ctx)
	if err != nil {
		return err
	}
	client, err := beaconapi.NewClient(cfg.Beacon.Endpoint, cfg.Beacon.HeaderCacheSize, cfg.Beacon.Timeout)
	if err != nil {
		return err
	}
	cache, err := beaconapi.NewFileCache(cfg.Beacon.StateCacheDir)
	if err != nil {
		return err
	}
	src := beaconapi.NewCachedSource(client, cache)

	var (
		refSlot  = consensus.Slot(ctx.Uint64("ref-slot"))
		prevSlot = consensus.Slot(ctx.Uint64("prev-slot"))
	)
	if prevSlot >= refSlot {
		return fmt.Errorf("previous report slot %d not before reference slot %d", prevSlot, refSlot)
	}
	header, state, err := snapshot(ctx.Context, src, refSlot, cfg.Beacon.MaxLookback)
	if err != nil {
		return err
	}
	_, oldState, err := snapshot(ctx.Context, src, prevSlot, cfg.Beacon.MaxLookback)
	if err != nil {
		return err
	}
	payload := state.ExecutionPayloadHeader()
	if payload == nil {
		return fmt.Errorf("state at slot %d has no execution payload", state.CurrentSlot())
	}
	ec, err := execution.Dial(ctx.Context, cfg.Execution.Endpoint)
	if err != nil {
		return err
	}
	defer ec.Close()

	vault, err := ec.WithdrawalVaultData(ctx.Context, cfg.WithdrawalVault(), payload.BlockHash)
	if err != nil {
		return err
	}
	in, err := lidoreport.BuildProgramInput(&lidoreport.BuildParams{
		ReferenceSlot: refSlot,
		Credentials:   cfg.WithdrawalCredentials(),
		Header:        header,
		State:         state,
		OldState:      oldState,
		VaultData:     vault,
		Mode:          mode(ctx),
	})
	if err != nil {
		return err
	}
	out := ctx.String("out")
	if err := lidoreport.WriteInputFile(out, in); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"refslot": refSlot,
		"slot":    in.BcSlot,
		"path":    out,
	}).Info("Wrote program input")
	return nil
}

// snapshot finds the last block at or before slot and downloads its state.
func snapshot(ctx context.Context, src beaconapi.Source, slot consensus.Slot, maxLookback uint64) (*consensus.BeaconBlockHeader, consensus.BeaconState, error) {
	header, err := beaconapi.FindBlockAtOrBefore(ctx, src, slot, maxLookback)
	if err != nil {
		return nil, nil, err
	}
	state, err := src.BeaconState(ctx, beaconapi.SlotID(header.Slot))
	if err != nil {
		return nil, nil, err
	}
	return header, state, nil
}

func verify(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}
	in, err := lidoreport.ReadInputFile(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}
	if err := lidoreport.NewInputVerifier(lidoreport.WithMode(mode(ctx))).Verify(in); err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"refslot": in.ReferenceSlot,
		"slot":    in.BcSlot,
		"block":   in.BeaconBlockHash,
	}).Info("Program input verified")
	return nil
}

func report(ctx *cli.Context) error {
	if _, err := setup(ctx); err != nil {
		return err
	}
	in, err := lidoreport.ReadInputFile(ctx.String(inputFlag.Name))
	if err != nil {
		return err
	}
	pv, err := lidoreport.Execute(in, mode(ctx))
	if err != nil {
		return err
	}
	blob, err := pv.Pack()
	if err != nil {
		return err
	}
	if out := ctx.String("out"); out != "" {
		if err := os.WriteFile(out, blob, 0o644); err != nil {
			return errors.Wrapf(err, "could not write public values %s", out)
		}
	}
	fmt.Println(hexutil.Encode(blob))
	return nil
}
