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

// Package httpclient builds the HTTP clients used to talk to backend
// transfer services. The per-service timeout configured in the service
// descriptor is applied here and is the only bound on how long an
// outbound call may block.
package httpclient

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Option defines a single option function.
type Option func(o *Options)

// Options defines the available options for this package.
type Options struct {
	Timeout      time.Duration
	Insecure     bool
	RoundTripper http.RoundTripper
}

// Timeout provides a function to set the timeout option.
func Timeout(t time.Duration) Option {
	return func(o *Options) {
		o.Timeout = t
	}
}

// Insecure provides a function to skip TLS certificate verification.
func Insecure(insecure bool) Option {
	return func(o *Options) {
		o.Insecure = insecure
	}
}

// RoundTripper provides a function to set a custom RoundTripper.
func RoundTripper(rt http.RoundTripper) Option {
	return func(o *Options) {
		o.RoundTripper = rt
	}
}

// New returns an HTTP client honoring the given options.
func New(opts ...Option) *http.Client {
	options := Options{}
	for _, o := range opts {
		o(&options)
	}

	tr := options.RoundTripper
	if tr == nil {
		tr = &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: options.Insecure,
			},
		}
	}

	return &http.Client{
		Timeout:   options.Timeout,
		Transport: tr,
	}
}
