/*
Package ports defines the driven ports (interfaces) of the QuestScribe engine.

These interfaces decouple the core logic from external implementations, allowing
documents to be checkpointed to various storage backends.

# Key Interfaces

  - DocumentStore: persists and loads document checkpoints by name.
  - DistributedLocker: provides distributed locking for concurrent document access.
*/
package ports
