// Package models defines the domain types shared by the ymsync services, sync engine and storage layers.
//
// The package contains two categories of types:
//
// 1. Data Transfer Objects: values mapped from the remote music services
//   - [Track] : a liked Spotify track with its added_at timestamp
//   - [YandexTrack] : a Yandex Music search result
//
// 2. Persistent Entities: rows in the sqlite run history
//   - [SyncRun] : one invocation of the sync engine with its counters
//   - [TrackOutcome] : what happened to a single track within a run
package models
