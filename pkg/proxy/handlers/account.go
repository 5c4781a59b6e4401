package handlers

import (
	"net/http"

	"bizbridge/gateway/pkg/proxy"
	"bizbridge/gateway/pkg/proxy/types"
)

// ChatIDPathValue is the path wildcard holding the chat completion id.
const ChatIDPathValue = "chat_id"

// AccountHandler serves GET /v1/chat/completions/{chat_id}/account.
type AccountHandler struct {
	lookup AccountLookup
}

// NewAccountHandler creates a chat-to-account lookup handler.
func NewAccountHandler(lookup AccountLookup) *AccountHandler {
	return &AccountHandler{lookup: lookup}
}

// ServeHTTP implements http.Handler.
func (h *AccountHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	account, ok := h.lookup.AccountFor(r.PathValue(ChatIDPathValue))
	if !ok {
		_ = proxy.WriteErrorResponse(w, types.NewNotFoundError("Chat ID not found", ChatIDPathValue, types.CodeChatNotFound))
		return
	}
	_ = proxy.WriteJSONResponse(w, http.StatusOK, types.AccountResponse{Account: account})
}
