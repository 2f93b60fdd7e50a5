// relay is a reverse proxy that multiplexes Anthropic-shaped /v1/messages
// traffic across Anthropic- and OpenAI-protocol upstream providers, with
// model-based routing, per-provider health tracking, in-flight request
// deduplication with mid-stream failover, and OAuth credential management.
//
// Usage:
//
//	# Start the relay with the default configuration
//	relay run
//
//	# Start with a custom configuration file
//	relay run --config /path/to/config.yaml
//
//	# Show version information
//	relay version
//
//	# Start an OAuth authorization flow (the account is named at exchange)
//	relay oauth login
package main

func main() {
	Execute()
}
