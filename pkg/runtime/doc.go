// Package runtime is a client for the agent-runtime REST API that hosts the content agents.
//
// Invariants:
// - A session is registered per agent app before that app is run with it.
// - Run input is sent as a JSON string inside a single user message part.
// - The structured result is the JSON text of the newest model event, falling back to
//   the newest non-null "output" field.
//
// Usage:
//
//	client, _ := runtime.NewClient(runtime.Options{BaseURL: "http://localhost:8000", UserID: "u_123"})
//	_ = client.CreateSession(ctx, "Parser", "s_abc", map[string]any{"stage": "data_pipeline"})
//	out, _ := client.Run(ctx, "Parser", "s_abc", raw)
package runtime
