/*
Package ouvidoria is a conversational complaint intake bot.

A citizen greets the bot on a chat platform and is guided through a fixed
sequence of questions: name, neighborhood, problem type, location, details
and optional additional details. The bot then shows a summary, lets the
citizen edit any field, and once confirmed renders a formal report document
(PDF) that is delivered back in the same conversation.

# Architecture

Each conversant has at most one session. The state machine in
internal/runtime is a pure function of (session, input); the runner wraps it
with per-conversant locking, report rendering and delivery. Replies are sent
only after the new state is committed, and a failed delivery never rolls the
conversation back.

  - pkg/domain: sessions, records, messages and sentinel errors.
  - pkg/runner: the Bot and the per-conversant Dispatcher.
  - pkg/report: the report text layout and the PDF writer.
  - pkg/adapters: session stores (memory, file, redis, sqlstore) and
    transports (console, slack, discord, http, mcp).

# Usage

	eng := ouvidoria.New()
	replies, err := eng.Reply(ctx, "citizen-1", "hello")
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range replies {
		fmt.Println(r.Text)
	}

For a full deployment use the ouvidoria command, which reads a YAML config
and OUVIDORIA_* environment variables.
*/
package ouvidoria
