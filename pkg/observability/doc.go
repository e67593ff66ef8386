/*
Package observability provides tools for monitoring hubs.

Metrics exports Prometheus collectors and LogHooks writes structured log lines. Both
produce domain.HubHooks, which hubs accept through signaling.WithHooks and which can
be combined with HubHooks.Merge.
*/
package observability
