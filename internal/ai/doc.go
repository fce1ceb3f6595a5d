// Package ai provides a single, provider-agnostic interface for the LLM
// calls the orchestrator makes: planning, SQL generation, and direct answers
// to general utterances. Concrete providers are backed by langchaingo's
// llms.Model, so adding a provider is a matter of wiring a new llms.Model
// constructor rather than writing a bespoke HTTP/SSE client.
package ai
