// Copyright 2018-2023 CERN
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
//
// In applying this license, CERN does not waive the privileges and immunities
// granted to it by virtue of its status as an Intergovernmental Organization
// or submit itself to any jurisdiction.

package transfer

import (
	"encoding/json"
	"testing"
)

func TestJobStateTerminal(t *testing.T) {
	tests := map[JobState]bool{
		StateSubmitted:          false,
		StateActive:             false,
		StateUnknown:            false,
		StateCanceled:           true,
		StateFailed:             true,
		StateFinished:           true,
		StateFinishedWithErrors: true,
	}
	for state, expected := range tests {
		if state.Terminal() != expected {
			t.Fatalf("state %q: Terminal() = %v, expected %v", state, state.Terminal(), expected)
		}
	}
}

func TestJobStateFailed(t *testing.T) {
	tests := map[JobState]bool{
		StateSubmitted:          false,
		StateActive:             false,
		StateCanceled:           false,
		StateFinished:           false,
		StateFailed:             true,
		StateFinishedWithErrors: true,
	}
	for state, expected := range tests {
		if state.Failed() != expected {
			t.Fatalf("state %q: Failed() = %v, expected %v", state, state.Failed(), expected)
		}
	}
}

func TestFieldValueMarshalsBareValue(t *testing.T) {
	tests := map[string]struct {
		value    interface{}
		expected string
	}{
		"string": {value: "active", expected: `"active"`},
		"state":  {value: StateActive, expected: `"active"`},
		"number": {value: 42, expected: `42`},
		"null":   {value: nil, expected: `null`},
	}
	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := json.Marshal(FieldValue{Value: test.value})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(data) != test.expected {
				t.Fatalf("got %s instead of %s", data, test.expected)
			}
		})
	}
}
