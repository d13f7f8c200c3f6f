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

// Package pool constructs and caches driver instances for backend
// transfer services. Drivers are stateless besides their connection
// configuration, so one instance is shared by all in-flight requests
// bound to the same descriptor.
package pool

import (
	"fmt"
	"time"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/destination"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/registry"
	"github.com/jellydator/ttlcache/v2"
)

const cacheTTL = 30 * time.Minute

// Pool hands out driver instances keyed by descriptor identity.
type Pool struct {
	cache *ttlcache.Cache
}

// New returns an empty driver pool.
func New() *Pool {
	c := ttlcache.NewCache()
	_ = c.SetTTL(cacheTTL)
	c.SkipTTLExtensionOnHit(false)
	return &Pool{cache: c}
}

// Get returns a driver bound to the given service descriptor, building
// it on first use. Construction fails fast, before any network call,
// when the descriptor's kind is not registered.
func (p *Pool) Get(sd *destination.ServiceDescriptor) (transfer.Service, error) {
	key := fmt.Sprintf("%s:%s:%s:%d", sd.Service, sd.Kind, sd.Endpoint, sd.TimeoutMS)

	if v, err := p.cache.Get(key); err == nil {
		return v.(transfer.Service), nil
	}

	f, ok := registry.NewFuncs[sd.Kind]
	if !ok {
		return nil, errtypes.BadRequest("pool: unknown transfer service kind: " + sd.Kind)
	}

	m := map[string]interface{}{
		"name":       sd.Name,
		"endpoint":   sd.Endpoint,
		"timeout_ms": sd.TimeoutMS,
	}
	for k, v := range sd.Config {
		m[k] = v
	}

	svc, err := f(m)
	if err != nil {
		return nil, err
	}

	_ = p.cache.Set(key, svc)
	return svc, nil
}
