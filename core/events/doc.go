// Package events defines the matching related events emitted on the event bus.
//
// Available event types:
//   - RequestCreated: a new blood request entered the system
//   - DonorsMatched: candidate retrieval produced a ranked match list
//   - RequestAccepted: a hospital performed the pending→accepted transition
//   - DonorResponded: a matched donor replied to a request
//   - RequestExpired: the sweeper retired a request past its deadline
//   - NotifyFailed: one outbound delivery failed and was dropped
package events
