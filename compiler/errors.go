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

package compiler

import "fmt"

func errUndeclaredParam(templateID, name string) error {
	return fmt.Errorf("template %q has no declared param %q", templateID, name)
}

func errMissingParam(templateID, name string) error {
	return fmt.Errorf("template %q: required param %q not supplied and has no default", templateID, name)
}
