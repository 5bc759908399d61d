// Package service is the only write entry point into a matchengine
// process: it durably logs an order intent to the write-ahead log before
// handing it to the runtime, so a crash between "accepted" and "matched"
// is always recoverable by replay.
package service
