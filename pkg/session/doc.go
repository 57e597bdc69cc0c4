/*
Package session serializes access to conversant sessions.

Every read-modify-write of a conversant's session runs under a per-conversant
lock. Locks are reference counted and dropped once no caller holds them. An
optional DistributedLocker extends the guarantee across replicas sharing a
store.
*/
package session
