package docblock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVocabulary_Renderer(t *testing.T) {
	v := DefaultVocabulary()

	assert.NotNil(t, v.renderer("id"))
	assert.NotNil(t, v.renderer("options[color]"))
	assert.Nil(t, v.renderer("options"))
	assert.Nil(t, v.renderer("name"))
	assert.Nil(t, v.renderer("[x]"))
}

func TestVocabulary_CloneIsIndependent(t *testing.T) {
	v := DefaultVocabulary()
	c := v.Clone()
	c["extra"] = BulletLabel

	_, ok := v["extra"]
	assert.False(t, ok)
	assert.Len(t, c, len(v)+1)
}

func TestFieldLabels(t *testing.T) {
	apply := FieldLabels(DefaultVocabulary())

	assert.Equal(t, "\n- `value`: the value\n\n", apply("`value`:   the value"))
	assert.Equal(t, "\n- `options[a.b]`: nested\n\n", apply("`options[a.b]`: nested"))
	assert.Equal(t, "`values`: plural", apply("`values`: plural"))
	assert.Equal(t, "`id` without colon", apply("`id` without colon"))
}

func TestFieldLabels_IndexedOnlyKey(t *testing.T) {
	apply := FieldLabels(Vocabulary{"attrs[]": func(label, desc string) string {
		return label + " => " + desc
	}})

	assert.Equal(t, "attrs[x] => y", apply("`attrs[x]`: y"))
	assert.Equal(t, "`attrs`: y", apply("`attrs`: y"))
}

func TestVocabulary_PatternEmpty(t *testing.T) {
	require.Nil(t, Vocabulary{}.pattern())
	assert.Equal(t, "`id`: x", FieldLabels(nil)("`id`: x"))
}
