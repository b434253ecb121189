// Package llm defines the provider-agnostic types shared by every lesson:
// chat requests and responses, multi-part messages, tool definitions and
// tool calls, structured-output response formats, prompt templates and the
// helpers that pull JSON out of model replies.
//
// Concrete backends live under pkg/providers and are constructed through
// pkg/factory; this package never talks to the network itself.
package llm
