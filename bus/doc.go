// Package bus carries serialized envelopes between in-process
// services over a watermill go-channel pub/sub, including a
// synchronous request/response round trip paired by a per-request
// transport key.
package bus
