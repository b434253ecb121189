// Package factory constructs llm.Client instances from configuration.
//
// Providers register themselves in a process-wide registry; importing this
// package registers every built-in backend. Typical usage:
//
//	client, err := factory.New().CreateClient(llm.GetLLMFromEnv())
package factory
