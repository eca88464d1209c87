// Package models defines domain entities and persistence interfaces for readerprint.
//
// The package contains three categories of types:
//
// 1. Data Transfer Objects (DTOs): snapshots of remote or device data
//   - [Document] : A saved article from the Reader list API
//   - [DocumentPage] : One page of list results with its continuation cursor
//   - [Printer] : A print queue reported by the spooler
//
// 2. Sync state: the durable checkpoint owned by this program
//   - [SyncState] : Watermark plus processed and skipped identifier sets
//
// 3. Print history: append-only database rows
//   - [PrintJob] : One dispatch attempt
//
// History rows implement [Record]; [Repository] is the insert and lookup contract for them.
package models
