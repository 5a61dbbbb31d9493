package lsp

import (
	"context"
	"errors"
	"io"
	"net"
	"os"

	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/dshills/lens/internal/review"
)

// Serve runs a language server over rwc until the client disconnects, sends
// exit, or ctx is cancelled.
func Serve(ctx context.Context, rwc io.ReadWriteCloser, session *review.Session, logger *zap.Logger, opts Options) (retErr error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	conn := jsonrpc2.NewConn(jsonrpc2.NewStream(rwc))
	server := newServer(session, &connClient{conn: conn}, logger, opts)
	server.onExit = conn.Close
	defer func() {
		_ = server.Shutdown(context.Background())
		retErr = multierr.Append(retErr, ignoreClosed(conn.Close()))
	}()

	conn.Go(ctx, protocol.ServerHandler(server, jsonrpc2.MethodNotFoundHandler))
	logger.Info("language server started")

	select {
	case <-conn.Done():
		return ignoreClosed(conn.Err())
	case <-ctx.Done():
		return nil
	}
}

// StdioConn joins separate reader and writer streams into one connection.
func StdioConn(r io.Reader, w io.Writer) io.ReadWriteCloser {
	return &readWriteCloser{reader: r, writer: w}
}

type readWriteCloser struct {
	reader io.Reader
	writer io.Writer
}

func (r *readWriteCloser) Read(b []byte) (int, error) {
	return r.reader.Read(b)
}

func (r *readWriteCloser) Write(b []byte) (int, error) {
	return r.writer.Write(b)
}

func (r *readWriteCloser) Close() error {
	var err error
	if closer, ok := r.writer.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	if closer, ok := r.reader.(io.Closer); ok {
		err = multierr.Append(err, closer.Close())
	}
	return err
}

func ignoreClosed(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) ||
		errors.Is(err, net.ErrClosed) || errors.Is(err, os.ErrClosed) {
		return nil
	}
	return err
}
