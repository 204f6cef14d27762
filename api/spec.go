// Package api embeds the service's HTTP and event contracts.
package api

import _ "embed"

// OpenAPI is the HTTP contract, served at /openapi.yaml.
//
//go:embed openapi.yaml
var OpenAPI []byte

// AsyncAPI describes the CloudEvents the service publishes.
//
//go:embed asyncapi.yaml
var AsyncAPI []byte
