// Package rate implements in-process token-bucket admission control.
//
// Buckets live in a sharded in-memory arena keyed by (policy, partition key)
// and are created lazily, full, on first use. Replenishment is computed from
// timestamps at admission time rather than by background ticking: each full
// refill interval elapsed since the bucket's last replenishment adds the
// policy's refill quantum, capped at the burst capacity. State is
// process-local and non-durable; a restart forgets all buckets.
package rate
