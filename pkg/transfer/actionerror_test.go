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
	"net/http"
	"testing"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/pkg/errors"
)

func TestNewActionErrorStatusMapping(t *testing.T) {
	tests := map[string]struct {
		err      error
		status   int
		id       string
	}{
		"bad_request": {
			err:    errtypes.BadRequest("no transfer service configured"),
			status: http.StatusBadRequest,
			id:     "invalidServiceConfig",
		},
		"invalid_credentials": {
			err:    errtypes.InvalidCredentials("missing bearer"),
			status: http.StatusUnauthorized,
			id:     "notAuthorized",
		},
		"permission_denied": {
			err:    errtypes.PermissionDenied("not your job"),
			status: http.StatusForbidden,
			id:     "permissionDenied",
		},
		"not_found": {
			err:    errtypes.NotFound("no such job"),
			status: http.StatusNotFound,
			id:     "notFound",
		},
		"partially_failed": {
			err:    errtypes.PartiallyFailed("two files failed"),
			status: http.StatusMultiStatus,
			id:     "transferError",
		},
		"credentials_expired": {
			err:    errtypes.CredentialsExpired("re-delegate"),
			status: 419,
			id:     "credentialsExpired",
		},
		"bad_gateway": {
			err:    errtypes.BadGateway("broker timed out"),
			status: http.StatusBadGateway,
			id:     "badGateway",
		},
		"unclassified": {
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			id:     "internalError",
		},
		"wrapped": {
			err:    errors.Wrap(errtypes.NotFound("no such job"), "fts"),
			status: http.StatusNotFound,
			id:     "notFound",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			ae := NewActionError(test.err)
			if ae.Status != test.status {
				t.Fatalf("got status %d instead of %d", ae.Status, test.status)
			}
			if ae.ID != test.id {
				t.Fatalf("got id %q instead of %q", ae.ID, test.id)
			}
			if ae.Message == "" {
				t.Fatal("expected a non-empty message")
			}
		})
	}
}

func TestNewActionErrorDetails(t *testing.T) {
	ae := NewActionError(errtypes.BadRequest("unknown destination"),
		Detail{Key: "destination", Value: "unknownkey"},
		Detail{Key: "filter:vo_name", Value: ""},
		Detail{Key: "limit", Value: "100"},
	)

	// empty values are dropped, the rest keep their order
	if len(ae.Details) != 2 {
		t.Fatalf("got %d details instead of 2: %+v", len(ae.Details), ae.Details)
	}
	if ae.Details[0].Key != "destination" || ae.Details[1].Key != "limit" {
		t.Fatalf("details out of order: %+v", ae.Details)
	}
	if ae.Detail("destination") != "unknownkey" {
		t.Fatalf("got destination detail %q", ae.Detail("destination"))
	}
	if ae.Detail("filter:vo_name") != "" {
		t.Fatal("expected empty detail to be dropped")
	}
}
