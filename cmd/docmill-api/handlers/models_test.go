package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical-ai/docmill/internal/llm"
	"github.com/spherical-ai/docmill/internal/observability"
)

func TestModelStoreConcurrentAccess(t *testing.T) {
	store := NewModelStore("initial")

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Set("updated")
			_ = store.Current()
		}()
	}
	wg.Wait()

	assert.Equal(t, "updated", store.Current())
}

func TestModelsList(t *testing.T) {
	ollama := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"models":[{"name":"llava:13b"},{"name":"granite3.2-vision:latest"}]}`))
	}))
	defer ollama.Close()

	store := NewModelStore("llava:13b")
	h := NewModelsHandler(observability.Nop(), llm.NewClient(ollama.URL, 0, observability.Nop()), store)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var resp ModelListDTO
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp.Models, 2)
	assert.Equal(t, "llava:13b", resp.Current)
}

func TestModelsListEndpointDown(t *testing.T) {
	store := NewModelStore("llava:13b")
	h := NewModelsHandler(observability.Nop(), llm.NewClient("http://127.0.0.1:1", 0, observability.Nop()), store)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/models", nil))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
}

func TestModelsSet(t *testing.T) {
	store := NewModelStore("old")
	h := NewModelsHandler(observability.Nop(), nil, store)

	req := httptest.NewRequest(http.MethodPost, "/api/model", strings.NewReader(`{"model":"new:latest"}`))
	rec := httptest.NewRecorder()
	h.Set(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "new:latest", store.Current())
}

func TestModelsSetRejectsEmpty(t *testing.T) {
	store := NewModelStore("old")
	h := NewModelsHandler(observability.Nop(), nil, store)

	req := httptest.NewRequest(http.MethodPost, "/api/model", strings.NewReader(`{"model":"  "}`))
	rec := httptest.NewRecorder()
	h.Set(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "old", store.Current())
}
