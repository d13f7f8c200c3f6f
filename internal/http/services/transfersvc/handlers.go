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

package transfersvc

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/appctx"
	ctxpkg "github.com/EGI-Federation/eosc-future-data-transfer/pkg/ctx"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/go-chi/chi/v5"
)

const defaultFindLimit = 100

// startTransfer initiates a new transfer of multiple sets of files.
func (s *svc) startTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := appctx.GetLogger(ctx)
	dest := s.destinationKey(r)

	log.Info().Str("destination", dest).Msg("start new data transfer")

	var t transfer.Transfer
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		transfer.NewActionError(
			errtypes.BadRequest("invalid transfer payload: "+err.Error()),
			transfer.Detail{Key: "destination", Value: dest},
		).WriteJSON(w, r)
		return
	}

	ts, err := s.resolveService(dest)
	if err != nil {
		log.Error().Err(err).Str("destination", dest).Msg("failed to start new transfer")
		transfer.NewActionError(err, transfer.Detail{Key: "destination", Value: dest}).WriteJSON(w, r)
		return
	}

	info, err := ts.StartTransfer(ctx, ctxpkg.ContextMustGetToken(ctx), &t)
	if err != nil {
		log.Error().Err(err).Str("destination", dest).Msg("failed to start new transfer")
		transfer.NewActionError(err, transfer.Detail{Key: "destination", Value: dest}).WriteJSON(w, r)
		return
	}

	log.Info().Str("jobId", info.JobID).Msg("started new transfer")
	writeJSON(w, r, http.StatusAccepted, info)
}

// findTransfers finds transfers matching the search criteria.
func (s *svc) findTransfers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := appctx.GetLogger(ctx)
	dest := s.destinationKey(r)
	q := r.URL.Query()

	details := []transfer.Detail{{Key: "destination", Value: dest}}

	limit := defaultFindLimit
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			details = append(details, transfer.Detail{Key: "limit", Value: v})
			transfer.NewActionError(errtypes.BadRequest("invalid limit: "+v), details...).WriteJSON(w, r)
			return
		}
		limit = n
	}

	filter := &transfer.Filter{
		Limit:        limit,
		TimeWindow:   q.Get("time_window"),
		SourceSE:     q.Get("source_se"),
		DestSE:       q.Get("dest_se"),
		DelegationID: q.Get("dlg_id"),
		VOName:       q.Get("vo_name"),
		UserDN:       q.Get("user_dn"),
	}
	if v := q.Get("fields"); v != "" {
		filter.Fields = strings.Split(v, ",")
	}
	if v := q.Get("state_in"); v != "" {
		for _, st := range strings.Split(v, ",") {
			filter.StateIn = append(filter.StateIn, transfer.JobState(st))
		}
	}

	details = append(details,
		transfer.Detail{Key: "limit", Value: strconv.Itoa(limit)},
		transfer.Detail{Key: "filter:fields", Value: q.Get("fields")},
		transfer.Detail{Key: "filter:time_window", Value: filter.TimeWindow},
		transfer.Detail{Key: "filter:state_in", Value: q.Get("state_in")},
		transfer.Detail{Key: "filter:source_se", Value: filter.SourceSE},
		transfer.Detail{Key: "filter:dest_se", Value: filter.DestSE},
		transfer.Detail{Key: "filter:dlg_id", Value: filter.DelegationID},
		transfer.Detail{Key: "filter:vo_name", Value: filter.VOName},
		transfer.Detail{Key: "filter:user_dn", Value: filter.UserDN},
	)

	log.Info().
		Str("destination", dest).
		Int("limit", limit).
		Str("state_in", q.Get("state_in")).
		Str("time_window", filter.TimeWindow).
		Msg("find data transfers matching criteria")

	ts, err := s.resolveService(dest)
	if err != nil {
		log.Error().Err(err).Str("destination", dest).Msg("failed to find matching transfers")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	matches, err := ts.FindTransfers(ctx, ctxpkg.ContextMustGetToken(ctx), filter)
	if err != nil {
		log.Error().Err(err).Str("destination", dest).Msg("failed to find matching transfers")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	log.Info().Int("count", len(matches.Transfers)).Msg("found matching transfers")
	writeJSON(w, r, http.StatusOK, matches)
}

// getTransferInfo retrieves information about a transfer.
func (s *svc) getTransferInfo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := appctx.GetLogger(ctx)
	dest := s.destinationKey(r)
	jobID := chi.URLParam(r, "jobId")

	log.Info().Str("jobId", jobID).Msg("retrieve details of transfer")

	details := []transfer.Detail{
		{Key: "jobId", Value: jobID},
		{Key: "destination", Value: dest},
	}

	ts, err := s.resolveService(dest)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("failed to get details of transfer")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	info, err := ts.GetTransferInfo(ctx, ctxpkg.ContextMustGetToken(ctx), jobID)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("failed to get details of transfer")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	log.Info().Str("jobId", info.JobID).Str("jobState", string(info.JobState)).Msg("got transfer details")
	s.writeTransferInfoExtended(w, r, info, details)
}

// getTransferInfoField retrieves a specific field from the information
// about a transfer.
func (s *svc) getTransferInfoField(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := appctx.GetLogger(ctx)
	dest := s.destinationKey(r)
	jobID := chi.URLParam(r, "jobId")
	fieldName := chi.URLParam(r, "fieldName")

	log.Info().Str("jobId", jobID).Str("fieldName", fieldName).Msg("retrieve field from details of transfer")

	details := []transfer.Detail{
		{Key: "jobId", Value: jobID},
		{Key: "fieldName", Value: fieldName},
		{Key: "destination", Value: dest},
	}

	ts, err := s.resolveService(dest)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Str("fieldName", fieldName).Msg("failed to get field of transfer")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	value, err := ts.GetTransferInfoField(ctx, ctxpkg.ContextMustGetToken(ctx), jobID, fieldName)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Str("fieldName", fieldName).Msg("failed to get field of transfer")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	writeJSON(w, r, http.StatusOK, value)
}

// cancelTransfer cancels a transfer. The canceled transfer is returned
// with its current state, which may be any other terminal state when the
// job already ended.
func (s *svc) cancelTransfer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := appctx.GetLogger(ctx)
	dest := s.destinationKey(r)
	jobID := chi.URLParam(r, "jobId")

	log.Info().Str("jobId", jobID).Msg("cancel transfer")

	details := []transfer.Detail{
		{Key: "jobId", Value: jobID},
		{Key: "destination", Value: dest},
	}

	ts, err := s.resolveService(dest)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("failed to cancel transfer")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	info, err := ts.CancelTransfer(ctx, ctxpkg.ContextMustGetToken(ctx), jobID)
	if err != nil {
		log.Error().Err(err).Str("jobId", jobID).Msg("failed to cancel transfer")
		transfer.NewActionError(err, details...).WriteJSON(w, r)
		return
	}

	log.Info().Str("jobId", info.JobID).Str("jobState", string(info.JobState)).Msg("canceled transfer")
	s.writeTransferInfoExtended(w, r, info, details)
}

// writeTransferInfoExtended writes a detailed job view. Jobs that ended
// in an error state answer 207 carrying the job's terminal info inside
// the error envelope.
func (s *svc) writeTransferInfoExtended(w http.ResponseWriter, r *http.Request, info *transfer.TransferInfoExtended, details []transfer.Detail) {
	if info.JobState.Failed() {
		reason := info.Reason
		if reason == "" {
			reason = "transfer ended in state " + string(info.JobState)
		}
		details = append(details,
			transfer.Detail{Key: "jobState", Value: string(info.JobState)},
			transfer.Detail{Key: "filesFailed", Value: strconv.Itoa(info.FilesFailed)},
		)
		transfer.NewActionError(errtypes.PartiallyFailed(reason), details...).WriteJSON(w, r)
		return
	}
	writeJSON(w, r, http.StatusOK, info)
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		appctx.GetLogger(r.Context()).Error().Err(err).Msg("error writing response")
	}
}
