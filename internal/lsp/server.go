package lsp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.lsp.dev/protocol"
	"go.uber.org/zap"

	"github.com/dshills/lens/internal/analyzer"
	"github.com/dshills/lens/internal/guard"
	"github.com/dshills/lens/internal/review"
)

// Commands the server executes.
const (
	CommandRunReview = "lens.runReview"
	CommandApplyFix  = "lens.applyFix"
)

const applyFixTitle = "Apply Fix"

var _ protocol.Server = (*Server)(nil)

// Options configures a Server.
type Options struct {
	// ReviewOnOpen runs a review whenever a document is opened.
	ReviewOnOpen bool
	// Version is reported to the client.
	Version string
}

// Server is the language-server host for a review session.
type Server struct {
	nopServer

	session *review.Session
	client  client
	logger  *zap.Logger
	opts    Options

	// ctx outlives individual requests; background reviews and fixes run
	// under it.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	docs     map[string]*openDocument
	shutdown bool
	onExit   func() error
}

type openDocument struct {
	uri     protocol.DocumentURI
	version int32
	text    *review.TextDocument
}

// newServer creates a Server that reports to c.
func newServer(session *review.Session, c client, logger *zap.Logger, opts Options) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		session: session,
		client:  c,
		logger:  logger,
		opts:    opts,
		ctx:     ctx,
		cancel:  cancel,
		docs:    make(map[string]*openDocument),
	}
}

func (s *Server) Initialize(ctx context.Context, params *protocol.InitializeParams) (*protocol.InitializeResult, error) {
	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: true,
				Change:    protocol.TextDocumentSyncKindFull,
				Save:      &protocol.SaveOptions{},
			},
			CodeActionProvider: &protocol.CodeActionOptions{
				CodeActionKinds: []protocol.CodeActionKind{protocol.QuickFix},
			},
			ExecuteCommandProvider: &protocol.ExecuteCommandOptions{
				Commands: []string{CommandRunReview, CommandApplyFix},
			},
		},
		ServerInfo: &protocol.ServerInfo{
			Name:    "lens",
			Version: s.opts.Version,
		},
	}, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.shutdown = true
	s.mu.Unlock()
	s.cancel()
	s.wg.Wait()
	return nil
}

func (s *Server) Exit(ctx context.Context) error {
	s.mu.Lock()
	onExit := s.onExit
	s.mu.Unlock()
	if onExit != nil {
		return onExit()
	}
	return nil
}

func (s *Server) DidOpen(ctx context.Context, params *protocol.DidOpenTextDocumentParams) error {
	path, err := filenameOf(params.TextDocument.URI)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.docs[path] = &openDocument{
		uri:     params.TextDocument.URI,
		version: params.TextDocument.Version,
		text:    review.NewTextDocument(params.TextDocument.Text),
	}
	s.mu.Unlock()

	if s.opts.ReviewOnOpen {
		s.startReview(params.TextDocument.URI)
	}
	return nil
}

func (s *Server) DidChange(ctx context.Context, params *protocol.DidChangeTextDocumentParams) error {
	if len(params.ContentChanges) == 0 {
		return nil
	}
	path, err := filenameOf(params.TextDocument.URI)
	if err != nil {
		return err
	}
	// Full sync: the last change carries the whole document.
	text := params.ContentChanges[len(params.ContentChanges)-1].Text
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = &openDocument{
		uri:     params.TextDocument.URI,
		version: params.TextDocument.Version,
		text:    review.NewTextDocument(text),
	}
	return nil
}

func (s *Server) DidClose(ctx context.Context, params *protocol.DidCloseTextDocumentParams) error {
	path, err := filenameOf(params.TextDocument.URI)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, path)
	return nil
}

// DidSave drops the cached findings; the diagnostics stay visible until the
// next review.
func (s *Server) DidSave(ctx context.Context, params *protocol.DidSaveTextDocumentParams) error {
	path, err := filenameOf(params.TextDocument.URI)
	if err != nil {
		return err
	}
	s.session.OnSave(path)
	return nil
}

func (s *Server) CodeAction(ctx context.Context, params *protocol.CodeActionParams) ([]protocol.CodeAction, error) {
	path, err := filenameOf(params.TextDocument.URI)
	if err != nil {
		return nil, err
	}
	diags, _ := s.session.Diagnostics(path)
	requested := fromProtocolRange(params.Range)

	actions := []protocol.CodeAction{}
	for _, d := range diags {
		qf, ok := d.QuickFix()
		if !ok || !d.Range.Intersects(requested) {
			continue
		}
		pd, err := toProtocolDiagnostic(d)
		if err != nil {
			continue
		}
		actions = append(actions, protocol.CodeAction{
			Title:       qf.Label,
			Kind:        protocol.QuickFix,
			Diagnostics: []protocol.Diagnostic{pd},
			Command: &protocol.Command{
				Title:     applyFixTitle,
				Command:   CommandApplyFix,
				Arguments: []interface{}{params.TextDocument.URI, pd.Range, qf.Text},
			},
		})
	}
	return actions, nil
}

func (s *Server) ExecuteCommand(ctx context.Context, params *protocol.ExecuteCommandParams) (interface{}, error) {
	switch params.Command {
	case CommandRunReview:
		u, err := parseURIArg(params.Arguments)
		if err != nil {
			return nil, err
		}
		s.startReview(u)
		return nil, nil
	case CommandApplyFix:
		args, err := parseFixArgs(params.Arguments)
		if err != nil {
			return nil, err
		}
		s.startApplyFix(args)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown command: %s", params.Command)
	}
}

// startReview reviews u in the background and publishes the result. The
// returned channel closes when that is done.
func (s *Server) startReview(u protocol.DocumentURI) <-chan struct{} {
	return s.background(func(ctx context.Context) {
		s.runReview(ctx, u)
	})
}

// startApplyFix applies a fix in the background. The edit request goes back
// to the client, so it must not block the request that triggered it.
func (s *Server) startApplyFix(args fixArgs) <-chan struct{} {
	return s.background(func(ctx context.Context) {
		s.applyFix(ctx, args)
	})
}

func (s *Server) background(fn func(ctx context.Context)) <-chan struct{} {
	done := make(chan struct{})
	s.mu.Lock()
	if s.shutdown {
		s.mu.Unlock()
		close(done)
		return done
	}
	s.wg.Add(1)
	s.mu.Unlock()
	go func() {
		defer s.wg.Done()
		defer close(done)
		fn(s.ctx)
	}()
	return done
}

func (s *Server) runReview(ctx context.Context, u protocol.DocumentURI) {
	path, err := filenameOf(u)
	if err != nil {
		s.showMessage(ctx, protocol.MessageTypeError, fmt.Sprintf("Lens review failed: %v", err))
		return
	}
	doc, err := s.document(path)
	if err != nil {
		s.showMessage(ctx, protocol.MessageTypeError, fmt.Sprintf("Lens review failed: %v", err))
		return
	}

	outcome := <-s.session.RunReview(ctx, path, doc)
	if outcome.Err != nil {
		s.showMessage(ctx, protocol.MessageTypeError, reviewFailureMessage(outcome.Err))
		return
	}
	s.logger.Info("review completed",
		zap.String("file", path),
		zap.Bool("cached", outcome.Cached),
		zap.Int("diagnostics", len(outcome.Diagnostics)),
	)
	s.publish(ctx, u, outcome.Diagnostics)
}

func reviewFailureMessage(err error) string {
	var outErr *analyzer.MissingOutputError
	if errors.As(err, &outErr) {
		return fmt.Sprintf("Lens review produced no output: %v", err)
	}
	return fmt.Sprintf("Lens review failed: %v", err)
}

func (s *Server) applyFix(ctx context.Context, args fixArgs) {
	path, err := filenameOf(args.URI)
	if err != nil {
		s.logger.Warn("applyFix", zap.Error(err))
		return
	}
	editor := &clientEditor{client: s.client, uri: args.URI}
	remaining, err := s.session.ApplyFix(ctx, path, fromProtocolRange(args.Range), args.Fix, editor)
	switch {
	case guard.IsRejected(err):
		var rejErr *guard.RejectedError
		errors.As(err, &rejErr)
		s.showMessage(ctx, protocol.MessageTypeWarning, fmt.Sprintf("Suggested fix was rejected: %s", rejErr.Reason))
		return
	case err != nil:
		// The client already reports a failed edit; nothing else to show.
		s.logger.Debug("fix not applied", zap.String("file", path), zap.Error(err))
		return
	}
	s.publish(ctx, args.URI, remaining)
}

// document returns the open contents of path, or reads it from disk.
func (s *Server) document(path string) (review.Document, error) {
	s.mu.Lock()
	doc, ok := s.docs[path]
	s.mu.Unlock()
	if ok {
		return doc.text, nil
	}
	return review.ReadDocument(path)
}

func (s *Server) publish(ctx context.Context, u protocol.DocumentURI, diags []review.Diagnostic) {
	params := &protocol.PublishDiagnosticsParams{
		URI:         u,
		Diagnostics: toProtocolDiagnostics(diags),
	}
	if err := s.client.PublishDiagnostics(ctx, params); err != nil {
		s.logger.Warn("publishing diagnostics", zap.String("uri", string(u)), zap.Error(err))
	}
}

func (s *Server) showMessage(ctx context.Context, typ protocol.MessageType, msg string) {
	if err := s.client.ShowMessage(ctx, &protocol.ShowMessageParams{Type: typ, Message: msg}); err != nil {
		s.logger.Warn("showing message", zap.String("message", msg), zap.Error(err))
	}
}

// clientEditor applies edits through the client's workspace/applyEdit.
type clientEditor struct {
	client client
	uri    protocol.DocumentURI
}

func (e *clientEditor) Replace(ctx context.Context, _ string, rng review.Range, text string) error {
	prng, err := toProtocolRange(rng)
	if err != nil {
		return err
	}
	applied, err := e.client.ApplyEdit(ctx, &protocol.ApplyWorkspaceEditParams{
		Label: review.QuickFixLabel,
		Edit: protocol.WorkspaceEdit{
			Changes: map[protocol.DocumentURI][]protocol.TextEdit{
				e.uri: {{Range: prng, NewText: text}},
			},
		},
	})
	if err != nil {
		return err
	}
	if !applied {
		return errors.New("client did not apply the edit")
	}
	return nil
}
