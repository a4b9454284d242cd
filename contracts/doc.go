// Package contracts provides the value types shared by the hivemesh
// messaging layers:
//   - Document: the flat heterogeneous key/value form envelopes are
//     built on and serialized from
//   - CacheDirective: cache-control metadata carried in responses
//   - ErrInvalidArgument: the sentinel wrapped by all input
//     validation failures
//
// Everything in this package is a pure value type with no I/O and no
// internal synchronization.
package contracts
