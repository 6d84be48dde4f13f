// Package rendezvous picks the single endpoint every worker of a job step
// uses to initialize its communication group.
//
// The node hosting global rank 0 is looked up in the layout, its control
// daemon address is resolved, and a short-lived connection to that daemon is
// opened only to learn the address and port it egressed from. Every step
// resolves afresh; nothing is cached between steps.
package rendezvous
