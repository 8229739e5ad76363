/*
Package pathtree implements the nested attribute tree addressed by dotted paths.

A Tree is a recursive tagged node: every Node is either a leaf holding a domain.Value
or an object holding ordered children. Objects keep first-insertion key order so that
reconstructed state renders and flattens deterministically.

	t := pathtree.New()
	t.Set("stats.HP", domain.Number(10))
	hp, _ := t.Get("stats.HP") // 10
	t.Remove("stats.HP")       // "stats" stays, now empty

Parents are never pruned: removing the last child of an object leaves the empty object.
*/
package pathtree
