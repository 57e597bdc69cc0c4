/*
Package ports defines the driven ports (interfaces) of the intake bot.

These interfaces decouple the conversation logic from external implementations,
allowing the bot to work with various storage backends and chat platforms.

# Key Interfaces

  - SessionStore: Responsible for persisting and loading conversation sessions.
  - DistributedLocker: Provides distributed locking for concurrent session access.
  - Transport: A chat platform connection (inbound channel + Sender).
  - ReportRenderer: Produces the complaint document on confirmation.
*/
package ports
