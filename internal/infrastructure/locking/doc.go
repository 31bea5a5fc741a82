// Package locking provides shared.Locker implementations used to serialize
// document number allocation: Postgres advisory locks, Redis locks through
// bsm/redislock, and an in-process semaphore.
package locking
