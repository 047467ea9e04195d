package specfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("parses JSON by extension", func(t *testing.T) {
		doc, err := Parse("openapi.json", []byte(`{"openapi": "3.0.0", "info": {"title": "Payments"}}`))
		require.NoError(t, err)
		assert.Equal(t, "3.0.0", doc["openapi"])
	})

	t.Run("parses YAML by extension", func(t *testing.T) {
		doc, err := Parse("openapi.yaml", []byte("openapi: 3.0.0\ninfo:\n  title: Payments\n"))
		require.NoError(t, err)
		assert.Equal(t, "3.0.0", doc["openapi"])
	})

	t.Run("yml extension also parses as YAML", func(t *testing.T) {
		doc, err := Parse("api.yml", []byte("swagger: \"2.0\"\n"))
		require.NoError(t, err)
		assert.Equal(t, "2.0", doc["swagger"])
	})

	t.Run("invalid JSON returns error", func(t *testing.T) {
		doc, err := Parse("openapi.json", []byte(`{"openapi":`))
		assert.Error(t, err)
		assert.Nil(t, doc)
	})

	t.Run("invalid YAML returns error", func(t *testing.T) {
		doc, err := Parse("openapi.yaml", []byte("a:\n- b\n  c: d\n"))
		assert.Error(t, err)
		assert.Nil(t, doc)
	})
}
