// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package tasks is the host side of an export: it starts a worker, pumps its
// event stream and turns the terminal event into a Summary.
//
// # Key Types
//
//   - Controller: Owns at most one running job at a time
//   - State: Idle, Running, Completed or Canceled
//   - Summary: Final aggregates and failed-session descriptions
//
// # Usage
//
//	ctrl := tasks.NewController(deps, worker.Options{}, log)
//	ctrl.Subscribe(func(ev progress.Event) { render(ev) })
//	if err := ctrl.Start(ctx, job); err != nil {
//	    return err
//	}
//	summary, err := ctrl.Wait(ctx)
package tasks
