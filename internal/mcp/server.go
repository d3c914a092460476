package mcp

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/mcp-dtdict/internal/config"
	"github.com/a3tai/mcp-dtdict/internal/descriptions"
	"github.com/a3tai/mcp-dtdict/internal/register"
	"github.com/a3tai/mcp-dtdict/internal/service"
)

// Server represents the MCP server instance
type Server struct {
	config    *config.Config
	service   *service.Service
	mcpServer *server.MCPServer
	logger    *slog.Logger
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, svc *service.Service) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if svc == nil {
		return nil, fmt.Errorf("service cannot be nil")
	}

	mcpServer := server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false),
	)

	s := &Server{
		config:    cfg,
		service:   svc,
		mcpServer: mcpServer,
		logger:    slog.Default(),
	}

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolParseDeclaration,
		mcp.WithDescription(descriptions.ParseDeclarationDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Declaration XML file, absolute or relative to the XML inbox"),
		),
	), s.handleParseDeclaration)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolBuildRecepisse,
		mcp.WithDescription(descriptions.BuildRecepisseDescription),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Declaration XML file, absolute or relative to the XML inbox"),
		),
	), s.handleBuildRecepisse)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolCloseDossier,
		mcp.WithDescription(descriptions.CloseDossierDescription),
		mcp.WithString("no_teleservice",
			mcp.Required(),
			mcp.Description("Teleservice number of the dossier"),
		),
		mcp.WithString("response_date", mcp.Description("Date the response was sent (default: now)")),
		mcp.WithString("reception_date", mcp.Description("Date the declaration was received")),
		mcp.WithString("transmission_date", mcp.Description("Date the declaration was transmitted")),
		mcp.WithString("retour_date", mcp.Description("Date the declaration came back")),
	), s.handleCloseDossier)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolListDossiers,
		mcp.WithDescription(descriptions.ListDossiersDescription),
		mcp.WithString("state",
			mcp.Description("Dossier state: en (open) or re (answered)"),
			mcp.Enum(register.StateOpen, register.StateClosed),
		),
		mcp.WithString("type", mcp.Description("Declaration kind: DT, DICT, DC or ATU")),
		mcp.WithString("export_path", mcp.Description("Also write the list to this .xlsx file")),
	), s.handleListDossiers)

	s.mcpServer.AddTool(mcp.NewTool(
		descriptions.ToolServerInfo,
		mcp.WithDescription(descriptions.ServerInfoDescription),
	), s.handleServerInfo)
}

func (s *Server) handleParseDeclaration(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Inspect(path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatInspectResult(result)), nil
}

func (s *Server) handleBuildRecepisse(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := request.RequireString("path")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.Process(ctx, path)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatProcessResult(result)), nil
}

func (s *Server) handleCloseDossier(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	no, err := request.RequireString("no_teleservice")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	closure, err := register.ParseClosure(
		request.GetString("reception_date", ""),
		request.GetString("transmission_date", ""),
		request.GetString("retour_date", ""),
		request.GetString("response_date", ""),
	)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := s.service.CloseDossier(ctx, no, closure)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatCloseResult(result)), nil
}

func (s *Server) handleListDossiers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	filter := register.Filter{
		State:       request.GetString("state", ""),
		TypeDemande: strings.ToUpper(request.GetString("type", "")),
	}

	records, err := s.service.Dossiers(ctx, filter)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	text := formatDossiers(records)

	if export := request.GetString("export_path", ""); export != "" {
		n, err := s.service.ExportRegister(ctx, export, filter)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		text += fmt.Sprintf("\nExported %d dossier(s) to %s\n", n, export)
	}
	return mcp.NewToolResultText(text), nil
}

func (s *Server) handleServerInfo(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	info, err := s.service.Info(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(formatInfo(info)), nil
}

func formatInspectResult(r *service.InspectResult) string {
	text := fmt.Sprintf("Declaration %s: %s\n", r.Kind, r.Path)
	text += fmt.Sprintf("Teleservice number: %s\n", r.NoTeleservice)

	text += "\nFields:\n"
	for _, name := range r.Fields.Keys() {
		text += fmt.Sprintf("  %s: %s\n", name, r.Fields.Get(name))
	}

	if r.Members == 0 {
		text += "\nNo works boundary.\n"
		return text
	}
	text += fmt.Sprintf("\nWorks boundary: %d member(s)", r.Members)
	if r.SRSName != "" {
		text += fmt.Sprintf(", %s", r.SRSName)
	}
	text += "\n"
	if r.GeometryError != "" {
		text += fmt.Sprintf("⚠️  Geometry not merged: %s\n", r.GeometryError)
		return text
	}
	text += fmt.Sprintf("Polygons: %d\n", r.Polygons)
	text += fmt.Sprintf("Area: %.2f\n", r.Area)
	text += fmt.Sprintf("WKT: %s\n", r.WKT)
	return text
}

func formatProcessResult(r *service.ProcessResult) string {
	text := fmt.Sprintf("Receipt produced for %s %s\n", r.Kind, r.NoTeleservice)
	text += fmt.Sprintf("Output directory: %s\n", r.OutputDirectory)
	if r.FDFPath != "" {
		text += fmt.Sprintf("FDF: %s (%d fields)\n", r.FDFPath, r.Entries)
	}
	if r.PDFPath != "" {
		text += fmt.Sprintf("PDF: %s\n", r.PDFPath)
	}
	text += fmt.Sprintf("Map file name: %s\n", r.MapName)
	if len(r.MissingTags) > 0 {
		text += fmt.Sprintf("\n⚠️  Template lacks fields: %s\n", strings.Join(r.MissingTags, ", "))
	}
	for _, w := range r.Warnings {
		text += fmt.Sprintf("⚠️  %s\n", w)
	}
	return text
}

func formatCloseResult(r *service.CloseResult) string {
	text := r.Message + "\n"
	text += fmt.Sprintf("Archive: %s (%d file(s))\n", r.Archive, len(r.Archived))
	if len(r.Annexes) > 0 {
		text += fmt.Sprintf("Annexes copied: %s\n", strings.Join(r.Annexes, ", "))
	}
	return text
}

func formatDossiers(records []register.Record) string {
	if len(records) == 0 {
		return "No dossier found\n"
	}
	text := fmt.Sprintf("%d dossier(s):\n", len(records))
	for i, r := range records {
		text += fmt.Sprintf("%d. %s %s [%s]", i+1, r.TypeDemande, r.NoTeleservice, r.State)
		if r.TvxCommune != "" {
			text += " " + r.TvxCommune
		}
		if r.DeclarationAt != nil {
			text += " declared " + r.DeclarationAt.Format("02/01/2006")
		}
		if r.ReponseAt != nil {
			text += " answered " + r.ReponseAt.Format("02/01/2006")
		}
		text += "\n"
	}
	return text
}

func formatInfo(info *service.Info) string {
	text := fmt.Sprintf("📋 %s v%s - Server Information\n", info.Name, info.Version)
	text += fmt.Sprintf("📥 XML inbox: %s\n", info.XMLDirectory)
	text += fmt.Sprintf("📁 Output directory: %s\n", info.OutputDirectory)
	if info.Template != "" {
		text += fmt.Sprintf("📄 Receipt template: %s (filler: %s, fill: %t)\n", info.Template, info.Filler, info.Fill)
	}
	text += fmt.Sprintf("🗂️  Register: %s (%d open, %d answered)\n\n", info.Database, info.OpenDossiers, info.ClosedDossiers)

	if len(info.Pending) > 0 {
		text += fmt.Sprintf("📂 Pending filings (%d):\n", len(info.Pending))
		for i, name := range info.Pending {
			if i >= 10 {
				text += fmt.Sprintf("   ... and %d more files\n", len(info.Pending)-10)
				break
			}
			text += fmt.Sprintf("   %d. %s\n", i+1, name)
		}
	} else {
		text += "📂 Pending filings: none\n"
	}

	text += "\n🛠️  Available Tools:\n"
	for _, name := range descriptions.GetAllToolNames() {
		desc := descriptions.GetToolDescription(name)
		if i := strings.Index(desc, "\n"); i >= 0 {
			desc = desc[:i]
		}
		text += fmt.Sprintf("• %s: %s\n", name, desc)
	}
	return text
}

// Run starts the MCP server in the configured mode
func (s *Server) Run(ctx context.Context) error {
	if s.config.IsServerMode() {
		return s.runServerMode(ctx)
	}
	return s.runStdioMode(ctx)
}

// runStdioMode serves MCP over stdin/stdout until ctx is done
func (s *Server) runStdioMode(ctx context.Context) error {
	s.logger.Debug("starting MCP server in stdio mode", "xmldir", s.config.XMLDirectory)

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(log.New(os.Stderr, "", log.LstdFlags))
	if err := stdio.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

// runServerMode serves MCP over SSE on the configured address
func (s *Server) runServerMode(ctx context.Context) error {
	addr := s.config.Address()
	sse := server.NewSSEServer(s.mcpServer, server.WithBaseURL("http://"+addr))

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting MCP server in SSE mode", "address", addr)
		errCh <- sse.Start(addr)
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve SSE: %w", err)
		}
		return nil
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := sse.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down SSE server: %w", err)
		}
		return nil
	}
}
