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
	"errors"
	"net/http"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/appctx"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
)

// Detail is one ordered (key, value) context pair attached to an
// ActionError, e.g. which destination or job id was involved.
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// ActionError is the uniform error envelope returned to callers. It is
// built exactly once per failed request, from the caught fault plus the
// context supplied by the calling operation.
type ActionError struct {
	Status  int      `json:"-"`
	ID      string   `json:"id"`
	Message string   `json:"description,omitempty"`
	Details []Detail `json:"details,omitempty"`
}

// NewActionError maps a caught fault to an ActionError. The HTTP status
// is selected from the fault's declared kind; details with an empty
// value are dropped, the rest keep the order the caller supplied.
func NewActionError(err error, details ...Detail) *ActionError {
	ae := &ActionError{
		Status:  http.StatusInternalServerError,
		ID:      "internalError",
		Message: err.Error(),
	}

	var (
		badRequest   errtypes.IsBadRequest
		invalidCreds errtypes.IsInvalidCredentials
		expiredCreds errtypes.IsCredentialsExpired
		denied       errtypes.IsPermissionDenied
		notFound     errtypes.IsNotFound
		partial      errtypes.IsPartiallyFailed
		badGateway   errtypes.IsBadGateway
	)
	switch {
	case errors.As(err, &badRequest):
		ae.Status = http.StatusBadRequest
		ae.ID = "invalidServiceConfig"
	case errors.As(err, &invalidCreds):
		ae.Status = http.StatusUnauthorized
		ae.ID = "notAuthorized"
	case errors.As(err, &denied):
		ae.Status = http.StatusForbidden
		ae.ID = "permissionDenied"
	case errors.As(err, &notFound):
		ae.Status = http.StatusNotFound
		ae.ID = "notFound"
	case errors.As(err, &partial):
		ae.Status = http.StatusMultiStatus
		ae.ID = "transferError"
	case errors.As(err, &expiredCreds):
		// non-standard code signalling the caller to re-delegate credentials
		ae.Status = 419
		ae.ID = "credentialsExpired"
	case errors.As(err, &badGateway):
		ae.Status = http.StatusBadGateway
		ae.ID = "badGateway"
	}

	for _, d := range details {
		if d.Value != "" {
			ae.Details = append(ae.Details, d)
		}
	}

	return ae
}

// Detail returns the value of the detail with the given key, or "".
func (ae *ActionError) Detail(key string) string {
	for _, d := range ae.Details {
		if d.Key == key {
			return d.Value
		}
	}
	return ""
}

// WriteJSON writes the error with its HTTP status to the response.
func (ae *ActionError) WriteJSON(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ae.Status)
	if err := json.NewEncoder(w).Encode(ae); err != nil {
		appctx.GetLogger(r.Context()).Error().Err(err).Msg("error writing error response")
	}
}
