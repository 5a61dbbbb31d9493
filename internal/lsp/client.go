package lsp

import (
	"context"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
)

// client is the subset of the editor's API the server calls.
type client interface {
	PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error
	ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error
	ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (bool, error)
}

// connClient sends client requests over a JSON-RPC connection.
type connClient struct {
	conn jsonrpc2.Conn
}

func (c *connClient) PublishDiagnostics(ctx context.Context, params *protocol.PublishDiagnosticsParams) error {
	return c.conn.Notify(ctx, "textDocument/publishDiagnostics", params)
}

func (c *connClient) ShowMessage(ctx context.Context, params *protocol.ShowMessageParams) error {
	return c.conn.Notify(ctx, "window/showMessage", params)
}

func (c *connClient) ApplyEdit(ctx context.Context, params *protocol.ApplyWorkspaceEditParams) (bool, error) {
	var result protocol.ApplyWorkspaceEditResponse
	if _, err := c.conn.Call(ctx, "workspace/applyEdit", params, &result); err != nil {
		return false, err
	}
	return result.Applied, nil
}
