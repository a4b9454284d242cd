// Package messaging implements the request/response envelope
// protocol used between hivemesh services.
//
// An Envelope is a flat structured document that represents either a
// request (an operation name plus parameters) or a response (a
// status code plus an optional payload), independent of the external
// protocol the originating message arrived on. The correlation
// codec embeds a correlation identifier of varying underlying type
// (string, uint64, UUID or binary) as a discriminated sub-document
// so a response can always be paired back to its request.
package messaging
