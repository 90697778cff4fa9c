// Package swagger embeds the OpenAPI document served by the HTTP server.
package swagger

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

// UserSwagger is the OpenAPI 2.0 description of the user API.
// Its basePath is the default mount point; use Document for a configured one.
//
//go:embed user.swagger.json
var UserSwagger []byte

// Document returns UserSwagger with basePath set to base.
// Other top-level keys are copied through unchanged.
func Document(base string) ([]byte, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(UserSwagger, &doc); err != nil {
		return nil, fmt.Errorf("parse openapi document: %w", err)
	}

	bp, err := json.Marshal(base)
	if err != nil {
		return nil, err
	}
	doc["basePath"] = bp

	return json.Marshal(doc)
}
