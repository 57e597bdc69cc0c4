/*
Package domain contains the core models of the complaint intake bot.

It defines the complaint record, the conversation session and its states, the
actions the state machine asks its host to perform, and the messages exchanged
with transports. This package is kept pure and free of external dependencies
like I/O or persistence.

# Key Entities

  - ComplaintRecord: the structured complaint collected from the conversant.
  - Session: per-conversant progress (State, Record, PendingEdit).
  - Action: a side effect requested by the state machine (text or report).
  - GeneratedReport: the rendered document for a confirmed complaint.
*/
package domain
