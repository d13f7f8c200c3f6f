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

package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	ctxpkg "github.com/EGI-Federation/eosc-future-data-transfer/pkg/ctx"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"BEARER abc", "abc", true},
		{"", "", false},
		{"Bearer", "", false},
		{"Bearer ", "", false},
		{"Basic dXNlcjpwYXNz", "", false},
		{"abc", "", false},
	}
	for _, tt := range tests {
		token, ok := parseBearer(tt.header)
		assert.Equal(t, tt.ok, ok, "header %q", tt.header)
		assert.Equal(t, tt.token, token, "header %q", tt.header)
	}
}

func signJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone",
		"exp": exp.Unix(),
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	return token
}

func TestExpired(t *testing.T) {
	assert.True(t, expired(signJWT(t, time.Now().Add(-time.Hour))))
	assert.False(t, expired(signJWT(t, time.Now().Add(time.Hour))))

	// opaque tokens and JWTs without exp pass the local pre-screening
	assert.False(t, expired("some-opaque-token"))
	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "someone",
	}).SignedString([]byte("irrelevant"))
	require.NoError(t, err)
	assert.False(t, expired(noExp))
}

func TestMiddleware(t *testing.T) {
	var seenToken string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenToken, _ = ctxpkg.ContextGetToken(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	handler := New()(next)

	t.Run("valid credential reaches the handler", func(t *testing.T) {
		seenToken = ""
		req := httptest.NewRequest(http.MethodGet, "/transfers", nil)
		req.Header.Set("Authorization", "Bearer opaque-dev-token")
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "opaque-dev-token", seenToken)
	})

	t.Run("missing credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/transfers", nil)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "notAuthorized", decodeID(t, rr))
	})

	t.Run("expired credential", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/transfers", nil)
		req.Header.Set("Authorization", "Bearer "+signJWT(t, time.Now().Add(-time.Hour)))
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		assert.Equal(t, 419, rr.Code)
		assert.Equal(t, "credentialsExpired", decodeID(t, rr))
	})
}

func decodeID(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.ID
}
