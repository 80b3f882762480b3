// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package client implements the headless client application runtime.
//
// It wires the remote adapter, the sqlite-backed cache, the sync engine and
// background workers into a single process lifecycle: log in from
// configuration, hydrate the cache, run the initial pass, keep syncing on an
// interval and log out on shutdown.
package client
