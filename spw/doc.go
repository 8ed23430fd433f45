// Package spw holds the vocabulary shared by the link-layer packages:
// characters, link and recovery states, error flags and the flow-control
// constants.
//
// The packages built on it are layered leaf to root:
//
//   - ds:       the data-strobe line code and character shift registers
//   - xcvr:     the character receiver and transmitter
//   - datalink: the link state machine, flow control and recovery
//   - link:     the orchestrator exposing byte queues and telemetry
package spw
