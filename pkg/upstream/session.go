package upstream

import (
	"context"
	"net/http"

	"bizbridge/gateway/pkg/accounts"

	"github.com/tidwall/gjson"
)

// CreateSession opens a new conversation on the backend and returns its
// resource name.
//
// Every failure, including a token failure, is a *SessionCreateError so
// that callers can rotate to another account.
func (g *Gateway) CreateSession(ctx context.Context, acct *accounts.Account) (string, error) {
	body := createSessionBody{
		ConfigID:         acct.Credential.ConfigID,
		AdditionalParams: newAdditionalParams(),
	}

	rep, err := g.do(ctx, acct, call{
		op:     OpCreateSession,
		method: http.MethodPost,
		url:    g.widgetURL("widgetCreateSession"),
		body:   body,
	})
	if err != nil {
		return "", &SessionCreateError{Account: acct.Name, Message: err.Error(), Cause: err}
	}
	if rep.status != http.StatusOK {
		return "", &SessionCreateError{Account: acct.Name, StatusCode: rep.status, Message: truncate(rep.body)}
	}

	name := gjson.GetBytes(rep.body, "session.name").String()
	if name == "" {
		return "", &SessionCreateError{Account: acct.Name, StatusCode: rep.status, Message: "response carried no session name"}
	}

	g.logger.DebugContext(ctx, "session created", "account", acct.Name, "session", SessionID(name))
	return name, nil
}
