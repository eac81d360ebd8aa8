// Package llm runs the content agents directly against a hosted model
// (OpenAI or Anthropic) instead of through the agent runtime.
//
// Invariants:
// - A session must be created for an app before the app is run with it,
//   matching the runtime's behaviour.
// - The model is instructed with the agent's instruction plus its output
//   JSON Schema; the answer must decode as JSON.
package llm
