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

// Package mock implements the transfer service contract with an
// in-memory job table. It backs development deployments and tests where
// no real transfer broker is reachable.
package mock

import (
	"context"
	"sync"
	"time"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer/registry"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
)

func init() {
	registry.Register("mock", New)
}

type config struct {
	// StartState is the state newly submitted jobs are stored in.
	// Deterministic on purpose: the mock never advances jobs on its own.
	StartState string `mapstructure:"start_state"`
}

func (c *config) init() {
	if c.StartState == "" {
		c.StartState = string(transfer.StateSubmitted)
	}
}

type svc struct {
	conf *config

	mu    sync.RWMutex
	jobs  map[string]*transfer.TransferInfoExtended
	order []string
}

// New returns a new in-memory transfer service driver.
func New(m map[string]interface{}) (transfer.Service, error) {
	c := &config{}
	if err := mapstructure.Decode(m, c); err != nil {
		return nil, errors.Wrap(err, "mock: error decoding conf")
	}
	c.init()

	return &svc{
		conf: c,
		jobs: map[string]*transfer.TransferInfoExtended{},
	}, nil
}

func (s *svc) StartTransfer(ctx context.Context, cred string, t *transfer.Transfer) (*transfer.TransferInfo, error) {
	if cred == "" {
		return nil, errtypes.InvalidCredentials("mock: missing credential")
	}
	if t == nil || len(t.Files) == 0 {
		return nil, errtypes.BadRequest("mock: transfer without files")
	}

	job := &transfer.TransferInfoExtended{
		TransferInfo: transfer.TransferInfo{
			Kind:        "TransferInfoExtended",
			JobID:       uuid.New().String(),
			JobState:    transfer.JobState(s.conf.StartState),
			SubmittedAt: time.Now().UTC().Truncate(time.Second),
		},
	}
	for _, f := range t.Files {
		for _, src := range f.Sources {
			for _, dst := range f.Destinations {
				job.Files = append(job.Files, transfer.FileInfo{
					SourceURI:      src,
					DestinationURI: dst,
					State:          job.JobState,
					Filesize:       f.Filesize,
				})
			}
		}
	}

	s.mu.Lock()
	s.jobs[job.JobID] = job
	s.order = append(s.order, job.JobID)
	s.mu.Unlock()

	return &transfer.TransferInfo{
		Kind:        "TransferInfo",
		JobID:       job.JobID,
		JobState:    job.JobState,
		SubmittedAt: job.SubmittedAt,
	}, nil
}

// FindTransfers honors the state filter and the limit; the remaining
// criteria have no meaning for an in-memory table and are ignored.
func (s *svc) FindTransfers(ctx context.Context, cred string, filter *transfer.Filter) (*transfer.TransferList, error) {
	if filter == nil {
		filter = &transfer.Filter{}
	}
	states := filter.StateIn
	if len(states) == 0 {
		states = []transfer.JobState{transfer.StateActive}
	}
	wanted := map[transfer.JobState]bool{}
	for _, st := range states {
		wanted[st] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	list := &transfer.TransferList{Kind: "TransferList", Transfers: []transfer.TransferInfo{}}
	for _, id := range s.order {
		job := s.jobs[id]
		if !wanted[job.JobState] {
			continue
		}
		list.Transfers = append(list.Transfers, job.TransferInfo)
		if filter.Limit > 0 && len(list.Transfers) >= filter.Limit {
			break
		}
	}
	return list, nil
}

func (s *svc) GetTransferInfo(ctx context.Context, cred string, jobID string) (*transfer.TransferInfoExtended, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errtypes.NotFound("mock: no such transfer job: " + jobID)
	}
	return copyJob(job), nil
}

func (s *svc) GetTransferInfoField(ctx context.Context, cred string, jobID, field string) (*transfer.FieldValue, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errtypes.NotFound("mock: no such transfer job: " + jobID)
	}

	switch field {
	case "jobId":
		return &transfer.FieldValue{Value: job.JobID}, nil
	case "jobState":
		return &transfer.FieldValue{Value: job.JobState}, nil
	case "submittedAt":
		return &transfer.FieldValue{Value: job.SubmittedAt}, nil
	case "reason":
		return &transfer.FieldValue{Value: job.Reason}, nil
	case "filesDone":
		return &transfer.FieldValue{Value: job.FilesDone}, nil
	case "filesFailed":
		return &transfer.FieldValue{Value: job.FilesFailed}, nil
	}
	return nil, errtypes.NotFound("mock: transfer job " + jobID + " has no field " + field)
}

func (s *svc) CancelTransfer(ctx context.Context, cred string, jobID string) (*transfer.TransferInfoExtended, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return nil, errtypes.NotFound("mock: no such transfer job: " + jobID)
	}

	// a terminal job keeps its state, canceling it is not an error
	if !job.JobState.Terminal() {
		job.JobState = transfer.StateCanceled
		for i := range job.Files {
			if !job.Files[i].State.Terminal() {
				job.Files[i].State = transfer.StateCanceled
			}
		}
	}
	return copyJob(job), nil
}

// SetJobState forces a job into the given state. Meant for development
// and tests; real brokers drive their own state machines.
func (s *svc) SetJobState(jobID string, state transfer.JobState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[jobID]
	if !ok {
		return errtypes.NotFound("mock: no such transfer job: " + jobID)
	}
	job.JobState = state
	for i := range job.Files {
		job.Files[i].State = state
	}
	if state == transfer.StateFinished {
		job.FilesDone = len(job.Files)
	}
	if state.Failed() {
		job.FilesFailed = len(job.Files)
	}
	return nil
}

func copyJob(job *transfer.TransferInfoExtended) *transfer.TransferInfoExtended {
	dup := *job
	dup.Files = append([]transfer.FileInfo(nil), job.Files...)
	return &dup
}
