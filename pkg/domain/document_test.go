package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/questscribe/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleDocument() *domain.Document {
	return &domain.Document{
		Content: "Once upon a time",
		Entities: []domain.Entity{{
			ID:            "e1",
			Name:          "Hero",
			Color:         domain.DefaultEntityColor,
			Fields:        []string{"stats.HP"},
			FieldMetadata: map[string]domain.FieldMetadata{"stats.HP": {CreatedAt: 1, LastModified: 2}},
		}},
		Markers: []domain.Marker{{
			ID:       "m1",
			Position: 5,
			EntityID: "e1",
			Changes:  []domain.ChangeRecord{domain.Add("stats.HP", "10")},
			Visual:   domain.MarkerVisual{Icon: domain.DefaultMarkerIcon, Color: domain.DefaultEntityColor},
		}},
	}
}

func TestDocument_JSONShape(t *testing.T) {
	data, err := json.Marshal(sampleDocument())
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	markers := raw["markers"].([]any)
	m := markers[0].(map[string]any)
	assert.Equal(t, "e1", m["entity_id"])
	change := m["changes"].([]any)[0].(map[string]any)
	assert.Equal(t, "relative", change["change_type"])
	assert.Equal(t, "stats.HP", change["field_name"])
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc := sampleDocument()
	clone := doc.Clone()

	clone.Entities[0].Fields[0] = "changed"
	clone.Entities[0].FieldMetadata["stats.HP"] = domain.FieldMetadata{}
	clone.Markers[0].Changes[0].Value = "99"

	assert.Equal(t, "stats.HP", doc.Entities[0].Fields[0])
	assert.Equal(t, int64(1), doc.Entities[0].FieldMetadata["stats.HP"].CreatedAt)
	assert.Equal(t, "10", doc.Markers[0].Changes[0].Value)
}

func TestDocument_Validate(t *testing.T) {
	assert.NoError(t, sampleDocument().Validate())

	dangling := sampleDocument()
	dangling.Markers[0].EntityID = "ghost"
	assert.NoError(t, dangling.Validate(), "dangling references are tolerated")

	dupEntity := sampleDocument()
	dupEntity.Entities = append(dupEntity.Entities, dupEntity.Entities[0])
	assert.ErrorIs(t, dupEntity.Validate(), domain.ErrInvalidFormat)

	negative := sampleDocument()
	negative.Markers[0].Position = -1
	assert.ErrorIs(t, negative.Validate(), domain.ErrInvalidFormat)

	badChange := sampleDocument()
	badChange.Markers[0].Changes[0].ChangeType = "bogus"
	assert.ErrorIs(t, badChange.Validate(), domain.ErrInvalidFormat)
}
