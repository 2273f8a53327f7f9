// The MIT License (MIT)

// Copyright (c) 2017-2020 Uber Technologies Inc.

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Command restrictionctl is a small demo/ops CLI over an in-memory
// restriction engine: it inserts restrictions and exercises the
// check/acquire/release operations against the in-memory reference
// stores of package persistence/memory. CRUD management and hosting-application
// CLI/config are deliberately out of scope for the engine itself, so
// this command exists only so the engine has a runnable entry point.
package main

import (
	"context"
	"encoding/json"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/digitalbazaar/bedrock-resource-restriction/common/clock"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/log"
	"github.com/digitalbazaar/bedrock-resource-restriction/common/types"
	"github.com/digitalbazaar/bedrock-resource-restriction/keys"
	"github.com/digitalbazaar/bedrock-resource-restriction/persistence/memory"
	"github.com/digitalbazaar/bedrock-resource-restriction/restriction"
	"github.com/digitalbazaar/bedrock-resource-restriction/tools/common/commoncli"
)

func main() {
	out := commoncli.WriteTo(os.Stdout)
	if err := run(out, os.Args[1:]); err != nil {
		commoncli.WriteTo(os.Stderr).Println("error:", err)
		os.Exit(1)
	}
	if err := out.Error(); err != nil {
		os.Exit(1)
	}
}

// deployment bundles the collaborators an Engine needs. A real hosting
// application wires these to durable stores and a live key oracle; this
// CLI wires them to the in-memory reference implementations for
// demonstration purposes only.
type deployment struct {
	restrictions *memory.RestrictionStore
	acquisitions *memory.AcquisitionStore
	oracle       *keys.StaticOracle
	registry     *restriction.Registry
	engine       *restriction.Engine
}

func newDeployment() *deployment {
	restrictions := memory.NewRestrictionStore()
	acquisitions := memory.NewAcquisitionStore()
	oracle := keys.NewStaticOracle(uuid.NewString(), randomSecret())
	registry := restriction.NewRegistry()
	matcher := restriction.NewMatcher(restrictions, registry)
	engine := restriction.New(acquisitions, matcher, oracle, restriction.Config{AcquisitionTTL: 0}, clock.NewRealTimeSource(), log.NewDevelopment())
	return &deployment{
		restrictions: restrictions,
		acquisitions: acquisitions,
		oracle:       oracle,
		registry:     registry,
		engine:       engine,
	}
}

func randomSecret() []byte {
	return []byte(uuid.NewString() + uuid.NewString())
}

func run(out commoncli.Output, args []string) error {
	return runWithDeployment(newDeployment(), out, args)
}

// runWithDeployment is split out from run so tests can drive multiple
// commands against one shared deployment, the way a real caller would
// issue successive check/acquire/release calls against one engine.
func runWithDeployment(d *deployment, out commoncli.Output, args []string) error {
	if len(args) == 0 {
		printUsage(out)
		return nil
	}

	ctx := context.Background()

	switch args[0] {
	case "insert-restriction":
		return cmdInsertRestriction(ctx, d, out, args[1:])
	case "check":
		return cmdDecision(ctx, d, out, args[1:], decisionCheck)
	case "acquire":
		return cmdDecision(ctx, d, out, args[1:], decisionAcquire)
	case "release":
		return cmdRelease(ctx, d, out, args[1:])
	default:
		printUsage(out)
		return nil
	}
}

func printUsage(out commoncli.Output) {
	out.Println("usage: restrictionctl <command> [args]")
	out.Println("commands:")
	out.Println("  insert-restriction <zone> <resource> <limit> <duration>")
	out.Println("  check   <acquirerId> <zone> <resource> <count>")
	out.Println("  acquire <acquirerId> <zone> <resource> <count>")
	out.Println("  release <acquirerId> <resource> <count>")
}

func cmdInsertRestriction(ctx context.Context, d *deployment, out commoncli.Output, args []string) error {
	if len(args) != 4 {
		out.Println("usage: insert-restriction <zone> <resource> <limit> <duration>")
		return nil
	}
	limit, err := strconv.Atoi(args[2])
	if err != nil {
		return err
	}

	r, err := d.restrictions.Insert(ctx, types.Restriction{
		Zone:     args[0],
		Resource: args[1],
		Method:   restriction.MethodLimitOverDuration,
		MethodOptions: map[string]any{
			"limit":    limit,
			"duration": args[3],
		},
	})
	if err != nil {
		return err
	}
	return printJSON(out, r)
}

type decisionKind int

const (
	decisionCheck decisionKind = iota
	decisionAcquire
)

func cmdDecision(ctx context.Context, d *deployment, out commoncli.Output, args []string, kind decisionKind) error {
	if len(args) != 4 {
		out.Println("usage: (check|acquire) <acquirerId> <zone> <resource> <count>")
		return nil
	}
	count, err := strconv.Atoi(args[3])
	if err != nil {
		return err
	}

	request := []types.RequestItem{{Resource: args[2], Count: count, Requested: time.Now().UnixMilli()}}
	zones := []string{args[1]}

	var result types.DecisionResult
	if kind == decisionCheck {
		result, err = d.engine.Check(ctx, args[0], request, zones)
	} else {
		result, err = d.engine.Acquire(ctx, args[0], request, zones, false)
	}
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func cmdRelease(ctx context.Context, d *deployment, out commoncli.Output, args []string) error {
	if len(args) != 3 {
		out.Println("usage: release <acquirerId> <resource> <count>")
		return nil
	}
	count, err := strconv.Atoi(args[2])
	if err != nil {
		return err
	}

	result, err := d.engine.Release(ctx, args[0], []types.RequestItem{{Resource: args[1], Count: count}})
	if err != nil {
		return err
	}
	return printJSON(out, result)
}

func printJSON(out commoncli.Output, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	out.Println(strings.TrimSpace(string(b)))
	return out.Error()
}
