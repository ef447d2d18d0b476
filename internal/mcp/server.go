// Package mcp exposes the triage engine over the Model Context
// Protocol, so assistant clients can triage customer messages and
// draft replies over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fernwell/caseflow/internal/compose"
	"github.com/fernwell/caseflow/internal/config"
	"github.com/fernwell/caseflow/internal/events"
	"github.com/fernwell/caseflow/internal/models"
	"github.com/fernwell/caseflow/internal/polish"
	"github.com/fernwell/caseflow/internal/store"
	"github.com/fernwell/caseflow/internal/triage"
)

// Config identifies the server and anchors its data directory.
type Config struct {
	// Name reported to MCP clients, normally "caseflow".
	Name string

	// Version of the running binary.
	Version string

	// Root is the project directory whose .caseflow holds config and
	// the SQLite database. Empty means the current directory.
	Root string
}

// Server wires the engine and its SQLite store behind an MCP stdio
// server. The server owns the store and closes it on Close.
type Server struct {
	server *sdk.Server
	engine *triage.Engine
	store  *store.SQLiteStore
	root   string
	logger *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

// NewServer builds the full stack for cfg.Root: app config, SQLite
// directory and ledger (seeded with the demo orders), event publisher,
// polisher, engine, and the SDK server with both tools registered.
func NewServer(cfg *Config) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil server config")
	}
	root := cfg.Root
	if root == "" {
		root = "."
	}
	name := cfg.Name
	if name == "" {
		name = "caseflow"
	}

	appCfg, err := config.Load(filepath.Join(root, ".caseflow", "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	logger, err := appCfg.Logging.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}

	dbPath := appCfg.Storage.Path
	if !filepath.IsAbs(dbPath) {
		dbPath = filepath.Join(root, dbPath)
	}
	st, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	if _, err := store.Seed(context.Background(), st, store.DemoOrders(time.Now())); err != nil {
		st.Close()
		return nil, fmt.Errorf("seeding orders: %w", err)
	}

	engine := triage.New(appCfg.Policy,
		triage.WithDirectory(st),
		triage.WithLedger(st),
		triage.WithPublisher(events.Connect(context.Background(), appCfg.Events.URL, appCfg.Events.Exchange, logger)),
		triage.WithPolisher(polish.FromSettings(appCfg.Polish.Settings(), logger)),
		triage.WithLogger(logger),
	)

	s := &Server{
		server: sdk.NewServer(&sdk.Implementation{Name: name, Version: cfg.Version}, nil),
		engine: engine,
		store:  st,
		root:   root,
		logger: logger,
	}
	s.registerTools()
	return s, nil
}

func (s *Server) registerTools() {
	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "triage_message",
		Description: "Triage a customer message: detect emotion and intent, extract entities, resolve the action plan, and execute it. Returns the full triage result as JSON.",
	}, s.handleTriage)

	sdk.AddTool(s.server, &sdk.Tool{
		Name:        "respond_message",
		Description: "Triage a customer message and draft the reply. Set polish to rewrite the draft with the configured provider.",
	}, s.handleRespond)
}

type triageArgs struct {
	Text string `json:"text" jsonschema:"the customer message text to triage"`
}

func (s *Server) handleTriage(ctx context.Context, _ *sdk.CallToolRequest, args triageArgs) (*sdk.CallToolResult, models.TriageResult, error) {
	res, err := s.engine.Process(ctx, args.Text)
	if err != nil {
		return nil, models.TriageResult{}, err
	}
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return nil, models.TriageResult{}, fmt.Errorf("encoding result: %w", err)
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: string(body)}},
	}, res, nil
}

type respondArgs struct {
	Text   string `json:"text" jsonschema:"the customer message text to triage"`
	Polish bool   `json:"polish,omitempty" jsonschema:"rewrite the reply with the configured polish provider"`
}

type respondOutput struct {
	Reply   string   `json:"reply"`
	Emotion string   `json:"emotion"`
	Intent  string   `json:"intent"`
	Actions []string `json:"actions,omitempty"`
}

func (s *Server) handleRespond(ctx context.Context, _ *sdk.CallToolRequest, args respondArgs) (*sdk.CallToolResult, respondOutput, error) {
	res, err := s.engine.Process(ctx, args.Text)
	if err != nil {
		return nil, respondOutput{}, err
	}
	reply := compose.Compose(res)
	if args.Polish {
		reply = s.engine.Respond(ctx, res)
	}

	out := respondOutput{
		Reply:   reply,
		Emotion: string(res.Emotion),
		Intent:  string(res.Intent),
	}
	for _, exec := range res.Executions {
		out.Actions = append(out.Actions, fmt.Sprintf("%s: %s", exec.Action.Kind, exec.Status))
	}
	return &sdk.CallToolResult{
		Content: []sdk.Content{&sdk.TextContent{Text: reply}},
	}, out, nil
}

// Run serves MCP over stdio until the client disconnects or ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Info("mcp server starting",
		zap.String("root", s.root))
	return s.server.Run(ctx, &sdk.StdioTransport{})
}

// Close releases the store. Safe to call more than once.
func (s *Server) Close() error {
	s.closeOnce.Do(func() {
		if s.store != nil {
			s.closeErr = s.store.Close()
		}
		_ = s.logger.Sync()
	})
	return s.closeErr
}
