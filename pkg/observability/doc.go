/*
Package observability turns bot lifecycle events into logs and metrics.

Both exporters are plain domain.LifecycleHooks and compose with
LifecycleHooks.Merge.
*/
package observability
