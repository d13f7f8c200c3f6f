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

// Package fts implements the transfer service contract against an FTS
// REST transfer broker. The driver owns the translation between the FTS
// job state vocabulary and the uniform one.
package fts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/httpclient"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/registry"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

func init() {
	registry.Register("fts", New)
}

type config struct {
	Name      string `mapstructure:"name"`
	Endpoint  string `mapstructure:"endpoint"`
	TimeoutMS int    `mapstructure:"timeout_ms"`
	Insecure  bool   `mapstructure:"insecure"`
}

func (c *config) init() {
	if c.TimeoutMS == 0 {
		c.TimeoutMS = 30000
	}
}

type svc struct {
	conf     *config
	client   *http.Client
	endpoint *url.URL
}

// ftsToState maps FTS job and file states onto the uniform vocabulary.
var ftsToState = map[string]transfer.JobState{
	"SUBMITTED":     transfer.StateSubmitted,
	"STAGING":       transfer.StateSubmitted,
	"DELETE":        transfer.StateSubmitted,
	"READY":         transfer.StateActive,
	"ACTIVE":        transfer.StateActive,
	"STARTED":       transfer.StateActive,
	"ARCHIVING":     transfer.StateActive,
	"CANCELED":      transfer.StateCanceled,
	"FAILED":        transfer.StateFailed,
	"FINISHED":      transfer.StateFinished,
	"FINISHEDDIRTY": transfer.StateFinishedWithErrors,
}

// stateToFTS is the reverse table used to build state_in query filters.
var stateToFTS = map[transfer.JobState][]string{
	transfer.StateSubmitted:          {"SUBMITTED", "STAGING", "DELETE"},
	transfer.StateActive:             {"READY", "ACTIVE", "STARTED"},
	transfer.StateCanceled:           {"CANCELED"},
	transfer.StateFailed:             {"FAILED"},
	transfer.StateFinished:           {"FINISHED"},
	transfer.StateFinishedWithErrors: {"FINISHEDDIRTY"},
}

// submit_time as reported by FTS has no zone designator.
const ftsTimeLayout = "2006-01-02T15:04:05"

func parseConfig(m map[string]interface{}) (*config, error) {
	c := &config{}
	if err := mapstructure.Decode(m, c); err != nil {
		return nil, errors.Wrap(err, "fts: error decoding conf")
	}
	return c, nil
}

// New returns a new FTS transfer service driver. It fails fast when the
// configured endpoint URL is malformed, before any network call.
func New(m map[string]interface{}) (transfer.Service, error) {
	c, err := parseConfig(m)
	if err != nil {
		return nil, err
	}
	c.init()

	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errtypes.BadRequest("fts: malformed endpoint URL: " + c.Endpoint)
	}

	client := httpclient.New(
		httpclient.Timeout(time.Duration(c.TimeoutMS)*time.Millisecond),
		httpclient.Insecure(c.Insecure),
	)

	return &svc{
		conf:     c,
		client:   client,
		endpoint: u,
	}, nil
}

type ftsJob struct {
	JobID      string `json:"job_id"`
	JobState   string `json:"job_state"`
	SubmitTime string `json:"submit_time"`
	Reason     string `json:"reason"`
}

type ftsFile struct {
	FileState  string `json:"file_state"`
	SourceSurl string `json:"source_surl"`
	DestSurl   string `json:"dest_surl"`
	Filesize   int64  `json:"filesize"`
	Reason     string `json:"reason"`
}

// StartTransfer submits a new job with POST /jobs.
func (s *svc) StartTransfer(ctx context.Context, cred string, t *transfer.Transfer) (*transfer.TransferInfo, error) {
	if t == nil || len(t.Files) == 0 {
		return nil, errtypes.BadRequest("fts: transfer without files")
	}

	type ftsParams struct {
		Priority       int  `json:"priority,omitempty"`
		Overwrite      bool `json:"overwrite"`
		VerifyChecksum bool `json:"verify_checksum"`
	}
	type ftsFileReq struct {
		Sources      []string `json:"sources"`
		Destinations []string `json:"destinations"`
		Checksum     string   `json:"checksum,omitempty"`
		Filesize     int64    `json:"filesize,omitempty"`
	}
	type ftsSubmitReq struct {
		Files  []ftsFileReq `json:"files"`
		Params ftsParams    `json:"params"`
	}

	req := ftsSubmitReq{Params: ftsParams{
		Priority:       t.Params.Priority,
		Overwrite:      t.Params.Overwrite,
		VerifyChecksum: t.Params.VerifyChecksum,
	}}
	for _, f := range t.Files {
		req.Files = append(req.Files, ftsFileReq{
			Sources:      f.Sources,
			Destinations: f.Destinations,
			Checksum:     f.Checksum,
			Filesize:     f.Filesize,
		})
	}

	type ftsSubmitRes struct {
		JobID string `json:"job_id"`
	}
	var res ftsSubmitRes
	if err := s.do(ctx, cred, http.MethodPost, "jobs", nil, req, &res); err != nil {
		return nil, err
	}
	if res.JobID == "" {
		return nil, errtypes.BadGateway("fts: job submission returned no job id")
	}

	return &transfer.TransferInfo{
		Kind:        "TransferInfo",
		JobID:       res.JobID,
		JobState:    transfer.StateSubmitted,
		SubmittedAt: time.Now().UTC().Truncate(time.Second),
	}, nil
}

// FindTransfers queries GET /jobs. Without a state filter only active
// jobs are requested, so the result stays bounded.
func (s *svc) FindTransfers(ctx context.Context, cred string, filter *transfer.Filter) (*transfer.TransferList, error) {
	if filter == nil {
		filter = &transfer.Filter{}
	}

	q := url.Values{}
	states := filter.StateIn
	if len(states) == 0 {
		states = []transfer.JobState{transfer.StateActive}
	}
	var ftsStates []string
	for _, st := range states {
		mapped, ok := stateToFTS[st]
		if !ok {
			return nil, errtypes.BadRequest("fts: unknown job state in filter: " + string(st))
		}
		ftsStates = append(ftsStates, mapped...)
	}
	q.Set("state_in", strings.Join(ftsStates, ","))
	if filter.Limit > 0 {
		q.Set("limit", strconv.Itoa(filter.Limit))
	}
	if filter.TimeWindow != "" {
		q.Set("time_window", filter.TimeWindow)
	}
	if len(filter.Fields) > 0 {
		q.Set("fields", strings.Join(filter.Fields, ","))
	}
	if filter.SourceSE != "" {
		q.Set("source_se", filter.SourceSE)
	}
	if filter.DestSE != "" {
		q.Set("dest_se", filter.DestSE)
	}
	if filter.DelegationID != "" {
		q.Set("dlg_id", filter.DelegationID)
	}
	if filter.VOName != "" {
		q.Set("vo_name", filter.VOName)
	}
	if filter.UserDN != "" {
		q.Set("user_dn", filter.UserDN)
	}

	var jobs []ftsJob
	if err := s.do(ctx, cred, http.MethodGet, "jobs", q, nil, &jobs); err != nil {
		return nil, err
	}

	// backend order is preserved
	list := &transfer.TransferList{Kind: "TransferList", Transfers: []transfer.TransferInfo{}}
	for _, j := range jobs {
		list.Transfers = append(list.Transfers, s.toTransferInfo(&j))
	}
	return list, nil
}

// GetTransferInfo fetches GET /jobs/{id} plus GET /jobs/{id}/files.
func (s *svc) GetTransferInfo(ctx context.Context, cred string, jobID string) (*transfer.TransferInfoExtended, error) {
	var job ftsJob
	if err := s.do(ctx, cred, http.MethodGet, path.Join("jobs", jobID), nil, nil, &job); err != nil {
		return nil, err
	}

	var files []ftsFile
	if err := s.do(ctx, cred, http.MethodGet, path.Join("jobs", jobID, "files"), nil, nil, &files); err != nil {
		return nil, err
	}

	return s.toTransferInfoExtended(&job, files), nil
}

// GetTransferInfoField fetches GET /jobs/{id}/{field}. Fields with a
// known type are returned typed, anything else as opaque text.
func (s *svc) GetTransferInfoField(ctx context.Context, cred string, jobID, field string) (*transfer.FieldValue, error) {
	raw, err := s.doRaw(ctx, cred, http.MethodGet, path.Join("jobs", jobID, field))
	if err != nil {
		return nil, err
	}

	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		// not JSON, carry the body as opaque text
		return &transfer.FieldValue{Value: string(bytes.TrimSpace(raw))}, nil
	}

	if field == "job_state" {
		if state, ok := v.(string); ok {
			return &transfer.FieldValue{Value: s.toState(state)}, nil
		}
	}
	return &transfer.FieldValue{Value: v}, nil
}

// CancelTransfer cancels the job with DELETE /jobs/{id}. A job already
// in a terminal state is not an error: its current state is reported.
func (s *svc) CancelTransfer(ctx context.Context, cred string, jobID string) (*transfer.TransferInfoExtended, error) {
	var job ftsJob
	err := s.do(ctx, cred, http.MethodDelete, path.Join("jobs", jobID), nil, nil, &job)
	if err != nil {
		// the broker refuses to cancel terminal jobs; report their state instead
		var br errtypes.IsBadRequest
		if errors.As(err, &br) {
			return s.GetTransferInfo(ctx, cred, jobID)
		}
		return nil, err
	}

	var files []ftsFile
	if err := s.do(ctx, cred, http.MethodGet, path.Join("jobs", jobID, "files"), nil, nil, &files); err != nil {
		return nil, err
	}

	return s.toTransferInfoExtended(&job, files), nil
}

func (s *svc) toState(ftsState string) transfer.JobState {
	if st, ok := ftsToState[ftsState]; ok {
		return st
	}
	return transfer.StateUnknown
}

func (s *svc) toTransferInfo(j *ftsJob) transfer.TransferInfo {
	info := transfer.TransferInfo{
		Kind:     "TransferInfo",
		JobID:    j.JobID,
		JobState: s.toState(j.JobState),
	}
	if t, err := time.Parse(ftsTimeLayout, j.SubmitTime); err == nil {
		info.SubmittedAt = t
	} else if t, err := time.Parse(time.RFC3339, j.SubmitTime); err == nil {
		info.SubmittedAt = t
	}
	return info
}

func (s *svc) toTransferInfoExtended(j *ftsJob, files []ftsFile) *transfer.TransferInfoExtended {
	ext := &transfer.TransferInfoExtended{
		TransferInfo: s.toTransferInfo(j),
		Reason:       j.Reason,
	}
	ext.Kind = "TransferInfoExtended"
	for _, f := range files {
		state := s.toState(f.FileState)
		switch state {
		case transfer.StateFinished:
			ext.FilesDone++
		case transfer.StateFailed, transfer.StateCanceled:
			ext.FilesFailed++
		}
		ext.Files = append(ext.Files, transfer.FileInfo{
			SourceURI:      f.SourceSurl,
			DestinationURI: f.DestSurl,
			State:          state,
			Filesize:       f.Filesize,
			Reason:         f.Reason,
		})
	}
	return ext
}

// do performs one call against the broker and decodes the JSON response
// into out when out is not nil.
func (s *svc) do(ctx context.Context, cred, method, endpointPath string, query url.Values, body, out interface{}) error {
	res, err := s.send(ctx, cred, method, endpointPath, query, body)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return s.protocolError(res)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errtypes.BadGateway("fts: error decoding response from " + endpointPath + ": " + err.Error())
	}
	return nil
}

// doRaw performs one call and returns the raw response body.
func (s *svc) doRaw(ctx context.Context, cred, method, endpointPath string) ([]byte, error) {
	res, err := s.send(ctx, cred, method, endpointPath, nil, nil)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	if res.StatusCode/100 != 2 {
		return nil, s.protocolError(res)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(res.Body); err != nil {
		return nil, errtypes.BadGateway("fts: error reading response from " + endpointPath + ": " + err.Error())
	}
	return buf.Bytes(), nil
}

func (s *svc) send(ctx context.Context, cred, method, endpointPath string, query url.Values, body interface{}) (*http.Response, error) {
	u := *s.endpoint
	u.Path = path.Join(u.Path, endpointPath)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var payload *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "fts: error marshalling request data")
		}
		payload = bytes.NewReader(data)
	} else {
		payload = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, errors.Wrap(err, "fts: error framing request")
	}
	req.Header.Set("Content-Type", "application/json")
	if cred != "" {
		req.Header.Set("Authorization", "Bearer "+cred)
	}

	res, err := s.client.Do(req)
	if err != nil {
		// timeouts and connection failures are not distinguished here
		return nil, errtypes.BadGateway("fts: error calling " + u.String() + ": " + err.Error())
	}
	return res, nil
}

// protocolError translates a non-2xx broker response into the matching
// uniform error kind.
func (s *svc) protocolError(res *http.Response) error {
	type ftsErrorRes struct {
		Message string `json:"message"`
		Status  string `json:"status"`
	}
	var e ftsErrorRes
	_ = json.NewDecoder(res.Body).Decode(&e)
	msg := e.Message
	if msg == "" {
		msg = res.Status
	}
	msg = "fts: " + msg

	switch res.StatusCode {
	case http.StatusBadRequest:
		return errtypes.BadRequest(msg)
	case http.StatusUnauthorized:
		return errtypes.InvalidCredentials(msg)
	case http.StatusForbidden:
		return errtypes.PermissionDenied(msg)
	case http.StatusNotFound:
		return errtypes.NotFound(msg)
	case 419:
		return errtypes.CredentialsExpired(msg)
	default:
		return errtypes.BadGateway(fmt.Sprintf("%s (status %d)", msg, res.StatusCode))
	}
}
