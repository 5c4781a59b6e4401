package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"bizbridge/gateway/pkg/accounts"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// generatedFilter selects files the assistant produced.
const generatedFilter = "file_origin_type = AI_GENERATED"

// UploadFile attaches a base64-encoded file to session and returns its
// file id. A token failure is returned unchanged; anything else is a
// *FileUploadError.
func (g *Gateway) UploadFile(ctx context.Context, acct *accounts.Account, session, mimeType, b64 string) (string, error) {
	body := addContextFileBody{
		ConfigID:         acct.Credential.ConfigID,
		AdditionalParams: newAdditionalParams(),
		AddContextFileRequest: addContextFileRequest{
			Name:         session,
			FileName:     g.uploadName(mimeType),
			MimeType:     mimeType,
			FileContents: b64,
		},
	}

	rep, err := g.do(ctx, acct, call{
		op:     OpUploadFile,
		method: http.MethodPost,
		url:    g.widgetURL("widgetAddContextFile"),
		body:   body,
	})
	if err != nil {
		if isTokenError(err) {
			return "", err
		}
		return "", &FileUploadError{Account: acct.Name, Message: err.Error(), Cause: err}
	}
	if rep.status != http.StatusOK {
		return "", &FileUploadError{Account: acct.Name, StatusCode: rep.status, Message: truncate(rep.body)}
	}

	fileID := gjson.GetBytes(rep.body, "addContextFileResponse.fileId").String()
	if fileID == "" {
		return "", &FileUploadError{Account: acct.Name, StatusCode: rep.status, Message: "response carried no file id"}
	}

	g.logger.InfoContext(ctx, "file uploaded", "account", acct.Name, "mime_type", mimeType, "file_id", fileID)
	return fileID, nil
}

// uploadName builds upload_<unix>_<6 hex>.<subtype>.
func (g *Gateway) uploadName(mimeType string) string {
	ext := "bin"
	if _, sub, ok := strings.Cut(mimeType, "/"); ok {
		ext = sub
	}
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:6]
	return fmt.Sprintf("upload_%d_%s.%s", g.now().Unix(), suffix, ext)
}

// ListGeneratedFiles returns the assistant-generated files of session.
// Only a token failure is returned as an error; any other failure yields
// an empty list.
func (g *Gateway) ListGeneratedFiles(ctx context.Context, acct *accounts.Account, session string) ([]FileMetadata, error) {
	body := listFilesBody{
		ConfigID:         acct.Credential.ConfigID,
		AdditionalParams: newAdditionalParams(),
		ListSessionFileMetadataRequest: listFileMetadataQuery{
			Name:   session,
			Filter: generatedFilter,
		},
	}

	rep, err := g.do(ctx, acct, call{
		op:     OpListFiles,
		method: http.MethodPost,
		url:    g.widgetURL("widgetListSessionFileMetadata"),
		body:   body,
	})
	if err != nil {
		if isTokenError(err) {
			return nil, err
		}
		g.logger.WarnContext(ctx, "listing generated files failed", "account", acct.Name, "error", err)
		return nil, nil
	}
	if rep.status != http.StatusOK {
		g.logger.WarnContext(ctx, "listing generated files failed",
			"account", acct.Name,
			"status", rep.status,
			"body", truncate(rep.body),
		)
		return nil, nil
	}

	var files []FileMetadata
	gjson.GetBytes(rep.body, "listSessionFileMetadataResponse.fileMetadata").ForEach(func(_, meta gjson.Result) bool {
		id := meta.Get("fileId").String()
		if id == "" {
			return true
		}
		files = append(files, FileMetadata{
			FileID:   id,
			FileName: meta.Get("fileName").String(),
			MimeType: meta.Get("mimeType").String(),
		})
		return true
	})

	g.logger.DebugContext(ctx, "generated files listed", "account", acct.Name, "count", len(files))
	return files, nil
}

// DownloadFile fetches the raw body of a session file. The backend may
// wrap the body in base64; decoding is left to the caller. Only a token
// failure is returned as an error; any other failure yields nil bytes.
func (g *Gateway) DownloadFile(ctx context.Context, acct *accounts.Account, session, fileID string) ([]byte, error) {
	u := fmt.Sprintf(
		"%s/download/v1alpha/projects/%s/locations/global/collections/default_collection/engines/agentspace-engine/sessions/%s:downloadFile?fileId=%s&alt=media",
		g.apiBase,
		url.PathEscape(acct.Credential.ProjectID),
		url.PathEscape(SessionID(session)),
		url.QueryEscape(fileID),
	)

	rep, err := g.do(ctx, acct, call{
		op:     OpDownloadFile,
		method: http.MethodGet,
		url:    u,
		header: map[string]string{"x-goog-encode-response-if-executable": "base64"},
	})
	if err != nil {
		if isTokenError(err) {
			return nil, err
		}
		g.logger.WarnContext(ctx, "file download failed", "account", acct.Name, "file_id", fileID, "error", err)
		return nil, nil
	}
	if rep.status != http.StatusOK {
		g.logger.WarnContext(ctx, "file download failed",
			"account", acct.Name,
			"file_id", fileID,
			"status", rep.status,
		)
		return nil, nil
	}

	g.logger.InfoContext(ctx, "file downloaded", "account", acct.Name, "file_id", fileID, "bytes", len(rep.body))
	return rep.body, nil
}
