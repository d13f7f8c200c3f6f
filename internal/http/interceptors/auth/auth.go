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

// Package auth extracts the caller's bearer credential and stores it in
// the request context. The credential is passed through to the backend
// transfer service, it is never validated cryptographically here. The
// only pre-screening done locally is on JWT expiry, so a caller with a
// stale delegation learns to re-delegate without a round trip to the
// broker.
package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/appctx"
	ctxpkg "github.com/EGI-Federation/eosc-future-data-transfer/pkg/ctx"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/golang-jwt/jwt/v5"
)

// New returns a middleware enforcing a bearer credential on every
// request. Missing or malformed credentials are a 401, an expired JWT a
// 419; both are produced before any dispatch stage runs.
func New() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := appctx.GetLogger(r.Context())

			token, ok := parseBearer(r.Header.Get("Authorization"))
			if !ok {
				log.Debug().Msg("request without bearer credential")
				ae := transfer.NewActionError(errtypes.InvalidCredentials("missing or malformed bearer credential"))
				ae.WriteJSON(w, r)
				return
			}

			if expired(token) {
				log.Debug().Msg("request with expired credential")
				ae := transfer.NewActionError(errtypes.CredentialsExpired("bearer credential is expired, re-delegate and retry"))
				ae.WriteJSON(w, r)
				return
			}

			ctx := ctxpkg.ContextSetToken(r.Context(), token)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func parseBearer(header string) (string, bool) {
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// expired reports whether the token is a JWT whose exp claim lies in the
// past. Opaque tokens pass through untouched; verifying signatures is
// the broker's job, not the gateway's.
func expired(token string) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return exp.Before(time.Now())
}
