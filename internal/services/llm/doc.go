// Package llm provides a chat completion client for OpenAI-compatible
// endpoints.
//
// It backs text generation in the metadata pipeline: filling missing
// Chinese titles, overviews and taglines, batch keyword translation, and
// synthesizing a tagline from an overview when the catalog has none.
//
// # Entry Points
//
// NewClient: construct a client from Config (convertible from
// config.LLMConfig).
// Client.Complete: system and user prompt in, plain text out.
// Client.CompleteJSON: same, with a json_object response format.
// Client.HealthCheck: verify the key and model answer.
// DecodeJSON: tolerant decoding of fenced or prose-wrapped JSON answers.
//
// # Retry Behaviour
//
// Requests are retried on HTTP 408/429/5xx, network timeouts and empty
// answers with exponential backoff (base 1s, max 10s, 3 attempts by
// default). Retry-After is honoured. Context cancellation stops retries.
package llm
