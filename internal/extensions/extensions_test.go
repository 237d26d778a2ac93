package extensions

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nimbusgeo/stac-populator/internal/schemavalidate"
	"github.com/nimbusgeo/stac-populator/internal/stac"
)

const attrsSchema = `{
	"$schema": "http://json-schema.org/draft-07/schema#",
	"type": "object",
	"required": ["test:institution", "test:license"],
	"properties": {
		"test:institution": {"type": "string", "minLength": 1},
		"test:license": {"type": "string", "minLength": 1}
	},
	"additionalProperties": false
}`

func attrsSchemaServer(t *testing.T) (*httptest.Server, *schemavalidate.Cache) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(attrsSchema))
	}))
	t.Cleanup(srv.Close)
	cache, err := schemavalidate.NewCache(4)
	require.NoError(t, err)
	return srv, cache
}

func TestSchemaBackedValidate(t *testing.T) {
	srv, cache := attrsSchemaServer(t)

	t.Run("valid fields pass", func(t *testing.T) {
		ext := &SchemaBacked{
			Prefix:    "test",
			SchemaURI: srv.URL,
			Fields:    map[string]any{"institution": "CCCma", "license": "CC-BY-4.0"},
			validator: cache,
		}
		assert.NoError(t, ext.Validate())
	})

	t.Run("collects every violation", func(t *testing.T) {
		ext := &SchemaBacked{
			Prefix:    "test",
			SchemaURI: srv.URL,
			Fields:    map[string]any{"institution": ""},
			validator: cache,
		}
		err := ext.Validate()
		require.Error(t, err)
		var verr *schemavalidate.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Len(t, verr.Violations, 2)
	})

	t.Run("excluded fields skip schema validation", func(t *testing.T) {
		ext := &SchemaBacked{
			Prefix:    "test",
			SchemaURI: srv.URL,
			Exclude:   []string{"external_variables"},
			Fields: map[string]any{
				"institution":        "CCCma",
				"license":            "CC-BY-4.0",
				"external_variables": "areacella",
			},
			validator: cache,
		}
		assert.NoError(t, ext.Validate())
	})

	t.Run("no schema configured is a pass-through", func(t *testing.T) {
		ext := &SchemaBacked{Prefix: "test", Fields: map[string]any{"anything": 1}}
		assert.NoError(t, ext.Validate())
	})
}

func TestSchemaBackedApply(t *testing.T) {
	ext := &SchemaBacked{
		Prefix:    "test",
		SchemaURI: "https://example.org/schema.json",
		Fields: map[string]any{
			"institution":    "CCCma",
			"start_datetime": "1850-01-01T00:00:00Z",
		},
	}

	item := stac.NewItem()
	require.NoError(t, ext.Apply(item))
	require.NoError(t, ext.Apply(item))

	assert.Equal(t, "CCCma", item.Properties["test:institution"])
	assert.Equal(t, "1850-01-01T00:00:00Z", item.Properties["start_datetime"],
		"datetime fields keep their bare names")
	assert.Equal(t, []string{"https://example.org/schema.json"}, item.StacExtensions,
		"schema URI registered once")
}

func TestCF(t *testing.T) {
	cf := NewCF(cmip6Bundle())
	require.Len(t, cf.Parameters, 2)
	assert.Equal(t, CFParameter{Name: "air_temperature", Unit: "K"}, cf.Parameters[0])
	assert.Equal(t, CFParameter{Name: "time", Unit: "days since 1850-01-01"}, cf.Parameters[1])

	item := stac.NewItem()
	require.NoError(t, cf.Apply(item))
	assert.Equal(t, cf.Parameters, item.Properties["cf:parameter"])
	assert.Contains(t, item.StacExtensions, CFSchemaURI)
}

func TestDataCubeApply(t *testing.T) {
	dc, err := NewDataCube(cmip6Bundle())
	require.NoError(t, err)

	item := stac.NewItem()
	require.NoError(t, dc.Apply(item))
	assert.Contains(t, item.Properties, "cube:dimensions")
	assert.Contains(t, item.Properties, "cube:variables")
	assert.Contains(t, item.StacExtensions, DataCubeSchemaURI)
}
