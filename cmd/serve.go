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

	"github.com/binaek/cling"
	"github.com/corintai/corint-core/api"
	"github.com/corintai/corint-core/constants"
	"github.com/corintai/corint-core/engine"
	"github.com/corintai/corint-core/otel"
	"github.com/corintai/corint-core/repository"
)

func addServeCmd(cli *cling.CLI) {
	cli.WithCommand(
		cling.NewCommand("serve", serveCmd).
			WithFlag(cling.
				NewIntCmdInput("port").
				WithDefault(7529 /* CORI - keypad */).
				WithDescription("Port to listen on").
				AsFlag(),
			).
			WithFlag(cling.
				NewStringCmdInput("pack-location").
				WithDefault("./").
				WithDescription("Repository directory to serve").
				AsFlag(),
			).
			WithFlag(cling.
				NewCmdSliceInput[string]("listen").
				WithDefault([]string{"local"}).
				WithDescription("Address(es) to listen on").
				AsFlag(),
			).
			WithFlag(cling.
				NewIntCmdInput("max-in-flight").
				WithDefault(0).
				WithDescription("Maximum decisions in flight before rejecting with Busy. 0 means unbounded.").
				AsFlag(),
			).
			WithFlag(
				cling.NewBoolCmdInput("otel-enabled").
					WithDefault(false).
					WithDescription("Enable OpenTelemetry tracing").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEnabled}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-endpoint").
					WithDefault("http://localhost:4317").
					WithDescription("OpenTelemetry endpoint to send traces to").
					AsFlag().
					FromEnv([]string{constants.EnvOtelEndpoint}),
			).
			WithFlag(
				cling.NewStringCmdInput("otel-protocol").
					WithDefault("grpc").
					WithValidator(cling.NewEnumValidator("http", "grpc")).
					WithDescription("OpenTelemetry protocol. Allowed values: http, grpc.").
					AsFlag().
					FromEnv([]string{constants.EnvOtelProtocol}),
			).
			WithFlag(
				cling.NewBoolCmdInput("otel-trace-execution").
					WithDefault(false).
					WithDescription("Enable OpenTelemetry tracing of per-decision pipeline execution.").
					AsFlag().
					FromEnv([]string{constants.EnvOtelTraceExecution}),
			),
	)
}

type serveCmdArgs struct {
	Port               int      `cling-name:"port"`
	PackLocation       string   `cling-name:"pack-location"`
	Listen             []string `cling-name:"listen"`
	MaxInFlight        int      `cling-name:"max-in-flight"`
	OtelEnabled        bool     `cling-name:"otel-enabled"`
	OtelEndpoint       string   `cling-name:"otel-endpoint"`
	OtelProtocol       string   `cling-name:"otel-protocol"`
	OtelTraceExecution bool     `cling-name:"otel-trace-execution"`
}

func serveCmd(ctx context.Context, args []string) error {
	input := serveCmdArgs{}
	if err := cling.Hydrate(ctx, args, &input); err != nil {
		return err
	}

	repo, err := repository.NewFile(ctx, input.PackLocation)
	if err != nil {
		return err
	}

	otelConfig := otel.OTelConfig{
		Enabled:        input.OtelEnabled,
		Endpoint:       input.OtelEndpoint,
		Protocol:       input.OtelProtocol,
		ServiceName:    constants.APPNAME,
		ServiceVersion: constants.APPVERSION,
		PackName:       input.PackLocation,
		TraceExecution: input.OtelEnabled && input.OtelTraceExecution,
	}

	var otelCleanup otel.ShutdownFn
	if otelConfig.Enabled {
		otelCleanup, err = otel.InitProvider(ctx, otelConfig)
		if err != nil {
			return err
		}
		defer func() {
			if otelCleanup != nil {
				_ = otelCleanup(context.WithoutCancel(ctx))
			}
		}()
	}

	e, err := engine.New(engine.Config{
		Repo:         repo,
		MaxInFlight:  input.MaxInFlight,
		TraceEnabled: otelConfig.TraceExecution,
	})
	if err != nil {
		return err
	}

	server := api.NewHTTPAPI(e, &otelConfig)
	if err := server.Setup(ctx, input.Port, input.Listen); err != nil {
		return err
	}

	go func() {
		server.StartServer(ctx, input.Port, input.Listen)
	}()

	<-ctx.Done()

	return server.StopServer(ctx)
}
