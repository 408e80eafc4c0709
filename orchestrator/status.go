// Copyright 2024
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package orchestrator dispatches a batch of independent tasks across a
// bounded worker pool and accumulates their outcomes. It knows nothing about
// securities, vendors or SQL -- that belongs to worker -- only how to run
// Tasks and tally Status values.
package orchestrator

// Status is the outcome of one Task run, tallied by the Orchestrator into
// the end-of-run summary.
type Status string

const (
	StatusSuccess          Status = "SUCCESS"
	StatusSuccessNoData    Status = "SUCCESS_NO_DATA"
	StatusSuccessNoNewData Status = "SUCCESS_NO_NEW_DATA"
	StatusSuccessUpToDate  Status = "SUCCESS_UP_TO_DATE"
	StatusError            Status = "ERROR"
	StatusFatalError       Status = "FATAL_ERROR"
)
