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

package mock

import (
	"context"
	"testing"

	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/errtypes"
	"github.com/EGI-Federation/eosc-future-data-transfer/pkg/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const cred = "test-token"

func newMock(t *testing.T, startState transfer.JobState) *svc {
	t.Helper()
	s, err := New(map[string]interface{}{"start_state": string(startState)})
	require.NoError(t, err)
	return s.(*svc)
}

func start(t *testing.T, s *svc) *transfer.TransferInfo {
	t.Helper()
	info, err := s.StartTransfer(context.Background(), cred, &transfer.Transfer{
		Files: []transfer.FileTransfer{{
			Sources:      []string{"https://src.example.org/file1"},
			Destinations: []string{"https://dst.example.org/file1"},
			Filesize:     1024,
		}},
	})
	require.NoError(t, err)
	return info
}

func TestStartTransfer(t *testing.T) {
	s := newMock(t, transfer.StateSubmitted)
	info := start(t, s)

	assert.NotEmpty(t, info.JobID)
	assert.Equal(t, transfer.StateSubmitted, info.JobState)
	assert.False(t, info.SubmittedAt.IsZero())
}

func TestStartTransferValidation(t *testing.T) {
	s := newMock(t, transfer.StateSubmitted)

	_, err := s.StartTransfer(context.Background(), cred, &transfer.Transfer{})
	require.Error(t, err)
	assert.ErrorAs(t, err, new(errtypes.IsBadRequest))

	_, err = s.StartTransfer(context.Background(), "", &transfer.Transfer{})
	require.Error(t, err)
	assert.ErrorAs(t, err, new(errtypes.IsInvalidCredentials))
}

func TestGetTransferInfoIsIdempotent(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	info := start(t, s)

	first, err := s.GetTransferInfo(context.Background(), cred, info.JobID)
	require.NoError(t, err)
	second, err := s.GetTransferInfo(context.Background(), cred, info.JobID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGetTransferInfoNotFound(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	_, err := s.GetTransferInfo(context.Background(), cred, "abc-123")
	require.Error(t, err)
	assert.ErrorAs(t, err, new(errtypes.IsNotFound))
}

func TestFindTransfersDefaultExcludesTerminalJobs(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	running := start(t, s)
	canceled := start(t, s)
	finished := start(t, s)

	_, err := s.CancelTransfer(context.Background(), cred, canceled.JobID)
	require.NoError(t, err)
	require.NoError(t, s.SetJobState(finished.JobID, transfer.StateFinished))

	list, err := s.FindTransfers(context.Background(), cred, nil)
	require.NoError(t, err)
	require.Len(t, list.Transfers, 1)
	assert.Equal(t, running.JobID, list.Transfers[0].JobID)
	for _, job := range list.Transfers {
		assert.False(t, job.JobState.Terminal())
	}
}

func TestFindTransfersStateFilterAndLimit(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	first := start(t, s)
	second := start(t, s)
	require.NoError(t, s.SetJobState(first.JobID, transfer.StateFinished))
	require.NoError(t, s.SetJobState(second.JobID, transfer.StateFinished))

	list, err := s.FindTransfers(context.Background(), cred, &transfer.Filter{
		StateIn: []transfer.JobState{transfer.StateFinished},
		Limit:   1,
	})
	require.NoError(t, err)
	require.Len(t, list.Transfers, 1)
	// insertion order is preserved
	assert.Equal(t, first.JobID, list.Transfers[0].JobID)
}

func TestGetTransferInfoFieldRoundTrip(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	started := start(t, s)

	info, err := s.GetTransferInfo(context.Background(), cred, started.JobID)
	require.NoError(t, err)

	value, err := s.GetTransferInfoField(context.Background(), cred, started.JobID, "jobState")
	require.NoError(t, err)
	assert.Equal(t, info.JobState, value.Value)
}

func TestGetTransferInfoFieldUnknownField(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	started := start(t, s)

	_, err := s.GetTransferInfoField(context.Background(), cred, started.JobID, "kind")
	require.Error(t, err)
	assert.ErrorAs(t, err, new(errtypes.IsNotFound))
}

func TestCancelTransfer(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	started := start(t, s)

	info, err := s.CancelTransfer(context.Background(), cred, started.JobID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StateCanceled, info.JobState)
}

func TestCancelTransferAlreadyTerminal(t *testing.T) {
	s := newMock(t, transfer.StateActive)
	started := start(t, s)
	require.NoError(t, s.SetJobState(started.JobID, transfer.StateFinished))

	// canceling a terminal job reports the terminal state, not an error
	info, err := s.CancelTransfer(context.Background(), cred, started.JobID)
	require.NoError(t, err)
	assert.Equal(t, transfer.StateFinished, info.JobState)
}
