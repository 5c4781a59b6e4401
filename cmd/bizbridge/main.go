// bizbridge serves an OpenAI-compatible chat completions API in front of
// the Gemini Business backend.
//
// It rotates requests across a pool of configured accounts, reuses upstream
// sessions for ongoing conversations, and saves generated images so they
// can be served back from /images.
//
// Usage:
//
//	# Start the gateway
//	bizbridge run --config config.yaml
//
//	# Check a configuration file without starting anything
//	bizbridge validate --config config.yaml
//
//	# Verify that every account can mint a token
//	bizbridge accounts check
//
//	# Show version information
//	bizbridge version
package main

func main() {
	Execute()
}
