package handlers

import (
	"net/http"
	"time"

	"bizbridge/gateway/pkg/proxy"
	"bizbridge/gateway/pkg/proxy/types"
)

// modelOwner is reported as owned_by for every model.
const modelOwner = "google"

// ModelsHandler serves GET /v1/models.
type ModelsHandler struct {
	models ModelLister
	now    func() time.Time
}

// NewModelsHandler creates a model listing handler.
func NewModelsHandler(models ModelLister) *ModelsHandler {
	return &ModelsHandler{models: models, now: time.Now}
}

// ServeHTTP implements http.Handler.
func (h *ModelsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	created := h.now().Unix()
	aliases := h.models.Models()

	list := types.ModelList{
		Object: "list",
		Data:   make([]types.Model, 0, len(aliases)),
	}
	for _, alias := range aliases {
		list.Data = append(list.Data, types.Model{
			ID:         alias,
			Object:     "model",
			Created:    created,
			OwnedBy:    modelOwner,
			Permission: []any{},
		})
	}

	_ = proxy.WriteJSONResponse(w, http.StatusOK, list)
}
