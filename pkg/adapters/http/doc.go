// Package http exposes runtime topics over HTTP: publishing with POST and
// consuming as Server-Sent Events.
package http
