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

// Package registry maps a service kind to the constructor of the driver
// implementing it. Drivers register themselves at init time, which keeps
// backend selection a closed, static dispatch.
package registry

import "github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"

// NewFunc is the function that transfer service driver implementations
// should register at init time.
type NewFunc func(m map[string]interface{}) (transfer.Service, error)

// NewFuncs is a map containing all the registered transfer drivers.
var NewFuncs = map[string]NewFunc{}

// Register registers a new transfer driver new function.
// Not safe for concurrent use. Safe for use from package init.
func Register(kind string, f NewFunc) {
	NewFuncs[kind] = f
}
