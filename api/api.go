// Package api содержит OpenAPI-спецификацию, отдаваемую по /swagger/openapi.json.
package api

import _ "embed"

//go:embed openapi.json
var OpenAPISpec []byte
