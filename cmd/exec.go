// SPDX-License-Identifier: Apache-2.0
//
// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"os"

	"github.com/binaek/cling"
	"github.com/corintai/corint-core/bytecode"
	"github.com/corintai/corint-core/engine"
	"github.com/corintai/corint-core/repository"
)

func addExecCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("exec", execCmd).
			WithFlag(cling.
				NewStringCmdInput("pack-location").
				WithDefault(".").
				WithDescription("Repository directory to load").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("output").
				WithDefault("table").
				WithValidator(cling.NewEnumValidator("table", "json")).
				WithDescription("Output format to use. One of: table, json").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("event-file").
				WithDefault("").
				WithDescription("File to load the event from").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("event").
				WithDefault("{}").
				WithDescription("Event to run a decision against").
				AsFlag(),
			),
	)
}

type execCmdArgs struct {
	PackLocation string `cling-name:"pack-location"`
	Event        string `cling-name:"event"`
	EventFile    string `cling-name:"event-file"`
	Output       string `cling-name:"output"`
}

func execCmd(ctx context.Context, args []string) error {
	input := execCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	eventFileMap := make(map[string]any)
	if input.EventFile != "" {
		content, err := os.ReadFile(input.EventFile)
		if err != nil {
			return err
		}
		decoder := json.NewDecoder(bytes.NewReader(content))
		if err := decoder.Decode(&eventFileMap); err != nil {
			return err
		}
	}

	var eventFlagMap map[string]any
	decoder := json.NewDecoder(bytes.NewReader([]byte(input.Event)))
	if err := decoder.Decode(&eventFlagMap); err != nil {
		return err
	}

	event := make(map[string]bytecode.Value)
	maps.Copy(event, eventFileMap)
	maps.Copy(event, eventFlagMap)

	repo, err := repository.NewFile(ctx, input.PackLocation)
	if err != nil {
		return err
	}

	e, err := engine.New(engine.Config{Repo: repo, TraceEnabled: input.Output == "json"})
	if err != nil {
		return err
	}

	result, err := e.Decide(ctx, engine.DecisionRequest{Event: event})
	if err != nil {
		return err
	}

	if input.Output == "json" {
		formatResultJSON(result)
	} else {
		formatResultTable(result)
	}

	return nil
}

func formatResultJSON(result *engine.DecisionResult) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
}

// formatResultTable formats a DecisionResult for a terminal.
//
// Examples:
//
//	Request:   req-20260101T000000.000000000Z
//	Action:    deny
//	Score:     90
//	Reason:    large amount
//	Time:      3ms
//
//	Rules:
//	  ✓ large_amount
func formatResultTable(result *engine.DecisionResult) {
	fmt.Printf("Request:   %s\n", result.RequestID)
	fmt.Printf("Action:    %s\n", result.Action)
	fmt.Printf("Score:     %d\n", result.Score)
	if result.Reason != "" {
		fmt.Printf("Reason:    %s\n", result.Reason)
	}
	fmt.Printf("Time:      %dms\n", result.ExecutionTimeMS)

	if len(result.TriggeredRules) > 0 {
		fmt.Println()
		fmt.Printf("Rules:\n")
		for _, rule := range result.TriggeredRules {
			fmt.Printf("  ✓ %s\n", rule)
		}
	}

	if len(result.Actions) > 0 {
		fmt.Println()
		fmt.Printf("Actions:\n")
		for _, action := range result.Actions {
			fmt.Printf("  - %s\n", action)
		}
	}
}
