/*
Package domain contains the core data model of the QuestScribe engine.

It defines the entities tracked across a document, the positioned markers that change
them, and the typed change records those markers carry. The package is kept pure and
free of I/O, following Hexagonal Architecture principles: storage, transport and
rendering live in adapters that depend on it, never the other way around.

# Key Entities

  - Entity: a tracked character or object with a name, a color and a registry of known field paths.
  - Marker: a positioned event carrying one or more field changes for one entity.
  - ChangeRecord: one typed mutation (SET, ADD or REMOVE) on one dotted attribute path.
  - Value: the tagged scalar (number, text or boolean) produced by coercing a change payload.
  - Document: the persisted checkpoint of the text content, entities and markers.
*/
package domain
