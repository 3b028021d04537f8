package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSwaggerSpec_ExisteYEsValido el middleware de docs entra en pánico al
// arrancar si el archivo apuntado no existe; la especificación estática debe
// acompañar al repo y declarar las rutas del núcleo.
func TestSwaggerSpec_ExisteYEsValido(t *testing.T) {
	raw, err := os.ReadFile(filepath.Join("..", "..", "docs", "swagger.json"))
	require.NoError(t, err, "docs/swagger.json debe estar versionado junto al binario")

	var spec struct {
		Swagger string                     `json:"swagger"`
		Paths   map[string]json.RawMessage `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(raw, &spec), "la especificación debe ser JSON válido")
	assert.Equal(t, "2.0", spec.Swagger)

	for _, path := range []string{
		"/health",
		"/api/stock/add",
		"/api/stock/deduct",
		"/api/stock/transfer",
		"/api/orders",
		"/api/orders/{id}/approve",
		"/api/orders/{id}/return",
	} {
		assert.Contains(t, spec.Paths, path, "la especificación debe documentar %s", path)
	}
}
