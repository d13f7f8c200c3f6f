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

// Package global registers the HTTP services served by the gateway.
package global

import (
	"net/http"

	"github.com/rs/zerolog"
)

// NewService is the function each HTTP service registers at init time.
type NewService func(conf map[string]interface{}, log *zerolog.Logger) (Service, error)

// Services is a map containing all the registered HTTP services.
var Services = map[string]NewService{}

// Register registers a new HTTP service new function.
// Not safe for concurrent use. Safe for use from package init.
func Register(name string, f NewService) {
	Services[name] = f
}

// Service is the interface any HTTP service must implement.
type Service interface {
	Handler() http.Handler
	Prefix() string
	Close() error
}

// Middleware is a middleware http handler.
type Middleware func(h http.Handler) http.Handler
