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

package pool

import (
	"errors"
	"testing"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/destination"

	_ "github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/service/mock"
)

func TestGetUnknownKindFailsFast(t *testing.T) {
	p := New()
	_, err := p.Get(&destination.ServiceDescriptor{
		Service:  "svc",
		Kind:     "no-such-kind",
		Endpoint: "http://localhost:1",
	})
	if err == nil {
		t.Fatal("expected construction to fail")
	}
	var br errtypes.IsBadRequest
	if !errors.As(err, &br) {
		t.Fatalf("expected a bad request error, got %v", err)
	}
}

func TestGetCachesByDescriptorIdentity(t *testing.T) {
	p := New()
	sd := &destination.ServiceDescriptor{
		Service:  "devmock",
		Kind:     "mock",
		Endpoint: "http://localhost:0",
	}

	first, err := p.Get(sd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := p.Get(sd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("expected the cached driver instance to be reused")
	}

	other := &destination.ServiceDescriptor{
		Service:  "othermock",
		Kind:     "mock",
		Endpoint: "http://localhost:0",
	}
	third, err := p.Get(other)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if third == first {
		t.Fatal("expected a distinct instance for a distinct descriptor")
	}
}
