package questscribe_test

import (
	"context"
	"fmt"

	"github.com/aretw0/questscribe"
	"github.com/aretw0/questscribe/pkg/domain"
)

func Example() {
	ctx := context.Background()
	eng := questscribe.New()

	hero, _ := eng.CreateEntity(ctx, "Aria", "#FFD700")
	_, _ = eng.InsertMarker(ctx, domain.MarkerInput{
		Position: 10,
		EntityID: hero.ID,
		Changes:  []domain.ChangeRecord{domain.Add("stats.HP", "10")},
	})
	_, _ = eng.InsertMarker(ctx, domain.MarkerInput{
		Position: 5,
		EntityID: hero.ID,
		Changes:  []domain.ChangeRecord{domain.Add("stats.HP", "5")},
	})

	for _, pos := range []int{0, 7, 10} {
		tree, _ := eng.Reconstruct(ctx, hero.ID, pos)
		if hp, ok := tree.Get("stats.HP"); ok {
			fmt.Println(pos, hp)
		} else {
			fmt.Println(pos, "unset")
		}
	}
	// Output:
	// 0 unset
	// 7 5
	// 10 15
}
