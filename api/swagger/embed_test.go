package swagger

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_BasePath(t *testing.T) {
	out, err := Document("/v2/people")
	require.NoError(t, err)

	var doc struct {
		Swagger  string                     `json:"swagger"`
		BasePath string                     `json:"basePath"`
		Paths    map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(out, &doc))

	assert.Equal(t, "2.0", doc.Swagger)
	assert.Equal(t, "/v2/people", doc.BasePath)
	assert.Contains(t, doc.Paths, "/create")
}
