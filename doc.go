/*
Package questscribe tracks how story entities change across a document.

Entities (characters, items, places) carry attribute trees. Markers anchored
at positions in the document text record typed changes to those attributes:
set a value, add a numeric delta, or remove a path. The state of an entity at
any position is rebuilt by replaying its markers in position order, so edits
anywhere in the text stay consistent with everything after them.

# Usage

	eng := questscribe.New(questscribe.WithStore(store))

	hero, _ := eng.CreateEntity(ctx, "Aria", "#FFD700")
	eng.InsertMarker(ctx, domain.MarkerInput{
		Position: 120,
		EntityID: hero.ID,
		Changes:  []domain.ChangeRecord{domain.Set("stats.HP", "10")},
	})
	eng.InsertMarker(ctx, domain.MarkerInput{
		Position: 480,
		EntityID: hero.ID,
		Changes:  []domain.ChangeRecord{domain.Add("stats.HP", "-3")},
	})

	sheet, _ := eng.RenderSheet(ctx, hero.ID, 500) // stats.HP: 7
	_ = eng.SaveDocument(ctx, "campaign")

The engine is safe for concurrent use. Persistence goes through any
ports.DocumentStore: memory, file, redis, sqlite or loam.
*/
package questscribe
