// Package redis bridges Redis Pub/Sub channels and streams: a channel becomes a
// Signal source and an Observer publishes to a channel.
package redis
