package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stargo/server/internal/component"
)

const sampleArchetypes = `
archetypes:
  - name: ship
    components:
      - kind: transform
      - kind: velocity
      - kind: sphere_collider
        radius: 1.5
      - kind: health
        max_health: 100
      - kind: avatar
  - name: asteroid
    components:
      - kind: transform
      - kind: velocity
        vx: 2.0
        spin: 0.5
      - kind: box_collider
        half_x: 3.0
        half_y: 2.0
      - kind: health
        max_health: 50
`

func TestParseArchetypeTable(t *testing.T) {
	table, err := ParseArchetypeTable([]byte(sampleArchetypes))
	require.NoError(t, err)
	assert.Equal(t, 2, table.Count())

	ship := table.Get("ship")
	require.NotNil(t, ship)
	assert.Len(t, ship.Components, 5)

	assert.Nil(t, table.Get("station"))
}

func TestInstantiate(t *testing.T) {
	table, err := ParseArchetypeTable([]byte(sampleArchetypes))
	require.NoError(t, err)

	comps, err := table.Instantiate("asteroid")
	require.NoError(t, err)
	require.Len(t, comps, 4)

	v, ok := comps[1].(*component.Velocity)
	require.True(t, ok)
	assert.Equal(t, 2.0, v.VX)
	assert.Equal(t, 0.5, v.Spin)

	box, ok := comps[2].(*component.BoxCollider)
	require.True(t, ok)
	assert.Equal(t, 3.0, box.HalfX)
	assert.Equal(t, 2.0, box.HalfY)

	h, ok := comps[3].(*component.Health)
	require.True(t, ok)
	assert.Equal(t, int32(50), h.Current)
	assert.Equal(t, int32(50), h.Max)
}

func TestInstantiate_FreshInstances(t *testing.T) {
	table, err := ParseArchetypeTable([]byte(sampleArchetypes))
	require.NoError(t, err)

	a, err := table.Instantiate("ship")
	require.NoError(t, err)
	b, err := table.Instantiate("ship")
	require.NoError(t, err)
	assert.NotSame(t, a[0], b[0])
}

func TestInstantiate_Unknown(t *testing.T) {
	table, err := ParseArchetypeTable([]byte(sampleArchetypes))
	require.NoError(t, err)
	_, err = table.Instantiate("carrier")
	assert.Error(t, err)
}

func TestParseArchetypeTable_Invalid(t *testing.T) {
	cases := map[string]string{
		"duplicate name": `
archetypes:
  - name: ship
    components: [{kind: transform}]
  - name: ship
    components: [{kind: transform}]
`,
		"missing name": `
archetypes:
  - components: [{kind: transform}]
`,
		"no components": `
archetypes:
  - name: ship
`,
		"not yaml": `{{{{`,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseArchetypeTable([]byte(raw))
			assert.Error(t, err)
		})
	}
}

func TestBuildComponent_Validation(t *testing.T) {
	table, err := ParseArchetypeTable([]byte(`
archetypes:
  - name: bad
    components:
      - kind: sphere_collider
        radius: 0
`))
	require.NoError(t, err)
	_, err = table.Instantiate("bad")
	assert.Error(t, err)

	table, err = ParseArchetypeTable([]byte(`
archetypes:
  - name: bad
    components:
      - kind: plasma_cannon
`))
	require.NoError(t, err)
	_, err = table.Instantiate("bad")
	assert.Error(t, err)
}
