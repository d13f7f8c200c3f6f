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

// Package transfer defines the uniform data model and the contract every
// backend transfer service driver must implement. The gateway holds no
// transfer state of its own: all job state lives in the backend the
// driver talks to.
package transfer

import (
	"context"
	"encoding/json"
	"time"
)

// JobState is the uniform transfer job state vocabulary. Drivers own the
// translation from their backend's status codes into these values.
type JobState string

const (
	// StateSubmitted is the state of a job accepted but not yet moving data.
	StateSubmitted JobState = "submitted"
	// StateActive is the state of a job currently moving data.
	StateActive JobState = "active"
	// StateCanceled is the state of a job canceled by the caller.
	StateCanceled JobState = "canceled"
	// StateFailed is the state of a job in which no file succeeded.
	StateFailed JobState = "failed"
	// StateFinished is the state of a job in which every file succeeded.
	StateFinished JobState = "finished"
	// StateFinishedWithErrors is the state of a job in which some files failed.
	StateFinishedWithErrors JobState = "finished-with-errors"
	// StateUnknown is used for backend states without a uniform equivalent.
	StateUnknown JobState = "unknown"
)

// Terminal reports whether a job in this state cannot change anymore.
func (s JobState) Terminal() bool {
	switch s {
	case StateCanceled, StateFailed, StateFinished, StateFinishedWithErrors:
		return true
	}
	return false
}

// Failed reports whether this is a terminal state carrying file errors.
func (s JobState) Failed() bool {
	return s == StateFailed || s == StateFinishedWithErrors
}

// FileTransfer describes one set of files to transfer: alternative source
// replicas and the destinations to copy them to.
type FileTransfer struct {
	Sources      []string `json:"sources"`
	Destinations []string `json:"destinations"`
	Checksum     string   `json:"checksum,omitempty"`
	Filesize     int64    `json:"filesize,omitempty"`
}

// TransferParameters are the job-wide transfer options.
type TransferParameters struct {
	Priority       int  `json:"priority,omitempty"`
	Overwrite      bool `json:"overwrite,omitempty"`
	VerifyChecksum bool `json:"verifyChecksum,omitempty"`
}

// Transfer is the caller-supplied request payload. It is passed through
// to the driver unmodified.
type Transfer struct {
	Files  []FileTransfer     `json:"files"`
	Params TransferParameters `json:"params,omitempty"`
}

// TransferInfo identifies a transfer job tracked by a backend service.
// The job id is backend-assigned and opaque.
type TransferInfo struct {
	Kind        string    `json:"kind,omitempty"`
	JobID       string    `json:"jobId"`
	JobState    JobState  `json:"jobState"`
	SubmittedAt time.Time `json:"submittedAt,omitempty"`
}

// FileInfo is the status of one file inside a transfer job.
type FileInfo struct {
	SourceURI      string   `json:"sourceUri"`
	DestinationURI string   `json:"destinationUri"`
	State          JobState `json:"fileState"`
	Filesize       int64    `json:"filesize,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// TransferInfoExtended is the detailed view of a transfer job, including
// per-file statuses and overall completion metrics.
type TransferInfoExtended struct {
	TransferInfo
	Files       []FileInfo `json:"files,omitempty"`
	FilesDone   int        `json:"filesDone"`
	FilesFailed int        `json:"filesFailed"`
	Reason      string     `json:"reason,omitempty"`
}

// TransferList is an ordered list of transfer jobs matching a filter.
// The order is the one reported by the backend, never re-sorted here.
type TransferList struct {
	Kind      string         `json:"kind,omitempty"`
	Transfers []TransferInfo `json:"transfers"`
}

// Filter bundles the find-transfers search criteria. When StateIn is
// empty drivers restrict results to active jobs to bound the result
// size; callers wanting terminal jobs must pass a state filter together
// with a limit or a time window.
type Filter struct {
	Fields       []string
	Limit        int
	TimeWindow   string
	StateIn      []JobState
	SourceSE     string
	DestSE       string
	DelegationID string
	VOName       string
	UserDN       string
}

// FieldValue wraps a single job field. It marshals as the bare value so
// callers get the scalar, not an envelope. Fields without a known type
// are carried as opaque text.
type FieldValue struct {
	Value interface{}
}

// MarshalJSON implements json.Marshaler.
func (v FieldValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Value)
}

// Service is the uniform contract every backend transfer driver
// implements. Every operation maps onto one outbound call, or a small
// bounded sequence of calls, to the underlying transfer broker. The
// caller's bearer credential is passed through on every call. Drivers
// must be safe for concurrent use; they hold no per-request state.
//
// Retries against the broker, if any, are a driver's private concern
// and must not be assumed by callers.
type Service interface {
	// StartTransfer submits a new transfer job.
	StartTransfer(ctx context.Context, cred string, transfer *Transfer) (*TransferInfo, error)
	// FindTransfers returns the jobs matching the filter, in backend order.
	FindTransfers(ctx context.Context, cred string, filter *Filter) (*TransferList, error)
	// GetTransferInfo returns the detailed status of one job.
	GetTransferInfo(ctx context.Context, cred string, jobID string) (*TransferInfoExtended, error)
	// GetTransferInfoField returns a single field of one job.
	GetTransferInfoField(ctx context.Context, cred string, jobID, field string) (*FieldValue, error)
	// CancelTransfer cancels a job. Canceling an already terminal job is
	// not an error: the current terminal state is reported instead.
	CancelTransfer(ctx context.Context, cred string, jobID string) (*TransferInfoExtended, error)
}
