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
	"context"
	"fmt"

	"github.com/binaek/cling"
	"github.com/corintai/corint-core/repository"
)

func addValidateCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("validate", validateCmd).
			WithFlag(cling.
				NewStringCmdInput("pack-location").
				WithDefault(".").
				WithDescription("Repository directory to load").
				AsFlag(),
			),
	)
}

type validateCmdArgs struct {
	PackLocation string `cling-name:"pack-location"`
}

// validateCmd loads every artifact under pack-location through
// repository.LoadWorkingSet, which runs compiler.Compile (import
// resolution through type checking), and prints a count per artifact kind.
// It does not generate bytecode, match a Registry or run a pipeline.
func validateCmd(ctx context.Context, args []string) error {
	input := validateCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	repo, err := repository.NewFile(ctx, input.PackLocation)
	if err != nil {
		return err
	}

	ws, err := repository.LoadWorkingSet(ctx, repo)
	if err != nil {
		return err
	}

	fmt.Printf("ok: %d rules, %d rulesets, %d pipelines, %d registries, %d features, %d lists, %d apis, %d datasources\n",
		len(ws.Set.Rules), len(ws.Set.Rulesets), len(ws.Set.Pipelines), len(ws.Set.Registries),
		len(ws.Set.Features), len(ws.Set.Lists), len(ws.Set.APIs), len(ws.Set.Datasources))
	return nil
}
