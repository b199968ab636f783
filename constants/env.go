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

package constants

const (
	EnvLogLevel           = "CORINT_LOG_LEVEL"
	EnvDebug              = "CORINT_DEBUG"
	EnvOtelEnabled        = "CORINT_OTEL_ENABLED"
	EnvOtelEndpoint       = "CORINT_OTEL_ENDPOINT"
	EnvOtelProtocol       = "CORINT_OTEL_PROTOCOL"
	EnvOtelTraceExecution = "CORINT_OTEL_TRACE_EXECUTION"
)

const (
	// APPNAME names the CLI binary and the "@corint/..." JS builtin module
	// namespace scripts import from (spec.md SPEC_FULL.md §C.1).
	APPNAME = "corint"

	// APPVERSION is the default reported in OTel resource attributes when
	// the CLI's own version string (cmd.Setup's version argument) isn't
	// threaded through to a given call site.
	APPVERSION = "0.1.0"

	// PackFileExtension is the repository manifest's extension, parsed with
	// pelletier/go-toml (loader.LoadPack).
	PackFileExtension = "toml"

	// PolicyFileExtension is the file-tree Repository backend's recognized
	// RDL artifact suffix (spec.md §4.1 "File tree ... recursive scan").
	PolicyFileExtension = ".rdl.yaml"
)
