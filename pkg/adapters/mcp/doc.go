// Package mcp exposes runtime topics to Model Context Protocol clients as tools and
// a topic listing resource.
package mcp
