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

// Package ctx holds request-scoped values shared across dispatch stages.
package ctx

import "context"

type key int

const tokenKey key = iota

// ContextGetToken returns the bearer token if set in the given context.
func ContextGetToken(ctx context.Context) (string, bool) {
	t, ok := ctx.Value(tokenKey).(string)
	return t, ok
}

// ContextMustGetToken returns the bearer token if set in the given context. Otherwise it panics.
func ContextMustGetToken(ctx context.Context) string {
	t, ok := ctx.Value(tokenKey).(string)
	if !ok {
		panic("token not set in context")
	}
	return t
}

// ContextSetToken returns a new context with the given bearer token.
func ContextSetToken(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}
