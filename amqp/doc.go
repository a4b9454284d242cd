// Package amqp models the device-facing protocol boundary: the
// read-only view of an inbound AMQP message from which envelope
// fields are harvested, plus an adapter from amqp091-go deliveries.
package amqp
