// Package jobs runs background work for the server: a bounded in-memory queue
// consumed by a fixed pool of workers, plus periodic schedules that enqueue
// fresh jobs on a ticker. The session sweeper is the main periodic job.
package jobs
