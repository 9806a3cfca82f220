// Package mcpserver exposes timestamp annotation to MCP clients over stdio
package mcpserver

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/teranos/stamp/am/geotime"
	"github.com/teranos/stamp/display"
	"github.com/teranos/stamp/errors"
	"github.com/teranos/stamp/logger"
	"github.com/teranos/stamp/present"
	"github.com/teranos/stamp/scan/annotate"
	"github.com/teranos/stamp/version"
)

// MCPServer wraps an annotation engine as MCP tools
type MCPServer struct {
	engine   *annotate.Engine
	location *time.Location
	now      func() time.Time
	server   *server.MCPServer
	log      *zap.SugaredLogger
}

// Option configures an MCPServer
type Option func(*MCPServer)

// WithNow sets the clock used for relative presentation
func WithNow(now func() time.Time) Option {
	return func(s *MCPServer) { s.now = now }
}

// New registers the stamp tools over e. loc is the default presentation
// location.
func New(e *annotate.Engine, loc *time.Location, opts ...Option) *MCPServer {
	s := &MCPServer{
		engine:   e,
		location: loc,
		now:      time.Now,
		log:      logger.ComponentLogger("mcp"),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.server = server.NewMCPServer(
		"stamp",
		version.Get().Version,
		server.WithToolCapabilities(true),
	)
	s.registerTools()
	return s
}

func (s *MCPServer) registerTools() {
	annotateTool := mcp.NewTool("annotate_timestamps",
		mcp.WithDescription("Find timestamps in free text and resolve them to instants"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text to scan"),
		),
		mcp.WithString("present",
			mcp.Description("Presentation code for each span: t, T, d, D, f, F or R"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA zone for presentation (default: resolver.timezone)"),
		),
		mcp.WithString("output",
			mcp.Description("json (default) or markup, which replaces each span with a <t:unix:code> token"),
			mcp.Enum("json", "markup"),
		),
	)
	s.server.AddTool(annotateTool, s.handleAnnotate)

	formatTool := mcp.NewTool("format_timestamp",
		mcp.WithDescription("Render one timestamp with a presentation code"),
		mcp.WithString("time",
			mcp.Required(),
			mcp.Description("Unix seconds, RFC 3339, a <t:unix:code> token, or a timestamp in a format stamp recognises"),
		),
		mcp.WithString("code",
			mcp.Description("Presentation code: t, T, d, D, f (default), F or R"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA zone for presentation (default: resolver.timezone)"),
		),
	)
	s.server.AddTool(formatTool, s.handleFormat)

	expandTool := mcp.NewTool("expand_timestamps",
		mcp.WithDescription("Replace every <t:unix:code> token in text with its human rendering"),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("Text containing timestamp tokens"),
		),
		mcp.WithString("timezone",
			mcp.Description("IANA zone for presentation (default: resolver.timezone)"),
		),
	)
	s.server.AddTool(expandTool, s.handleExpand)
}

func (s *MCPServer) locationFor(request mcp.CallToolRequest) (*time.Location, error) {
	tz := request.GetString("timezone", "")
	if tz == "" {
		return s.location, nil
	}
	return geotime.LoadLocation(tz)
}

func (s *MCPServer) handleAnnotate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := s.locationFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	code := request.GetString("present", "")

	out := s.engine.Text(text)
	s.log.Debugw("Annotated", logger.FieldCount, len(out.Spans()), logger.FieldSize, len(text))

	if request.GetString("output", "json") == "markup" {
		rendered, err := display.Markup(out, code)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(rendered), nil
	}

	doc, err := display.NewDocument(out, display.Options{
		Present:  code,
		Now:      s.now(),
		Location: loc,
		NoColor:  true,
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	data, err := display.MarshalJSON(doc, false)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode document")
	}
	return mcp.NewToolResultText(string(data)), nil
}

var unixSeconds = regexp.MustCompile(`^-?\d+$`)

// parseInstant accepts the inputs format_timestamp documents. A markup token
// also supplies a default code.
func (s *MCPServer) parseInstant(input string) (time.Time, string, error) {
	input = strings.TrimSpace(input)
	if strings.HasPrefix(input, "<t:") {
		return present.ParseMarkup(input)
	}
	if unixSeconds.MatchString(input) {
		n, err := strconv.ParseInt(input, 10, 64)
		if err != nil {
			return time.Time{}, "", errors.NewInvalidRequestError("unix time out of range: %s", input)
		}
		return time.Unix(n, 0), "", nil
	}
	if t, err := time.Parse(time.RFC3339, input); err == nil {
		return t, "", nil
	}

	spans := s.engine.Text(input).Spans()
	if len(spans) == 1 && spans[0].Start == 0 && spans[0].End == len(input) && spans[0].Time != nil {
		return *spans[0].Time, "", nil
	}
	return time.Time{}, "", errors.WithHint(
		errors.Wrapf(errors.ErrUnparsableSpan, "%q is not a single timestamp", input),
		"pass unix seconds or an RFC 3339 time")
}

func (s *MCPServer) handleFormat(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("time")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := s.locationFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	t, tokenCode, err := s.parseInstant(input)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	code := request.GetString("code", tokenCode)

	formatted, err := present.Format(t.In(loc), code, s.now())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	markup, err := present.Markup(t, code)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s\n%s", formatted, markup)), nil
}

func (s *MCPServer) handleExpand(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := request.RequireString("text")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	loc, err := s.locationFor(request)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(present.Expand(text, s.now(), loc)), nil
}

// Serve runs the server over stdin and stdout until the client disconnects
func (s *MCPServer) Serve() error {
	s.log.Infow("MCP server ready", logger.FieldTransport, "stdio")
	return server.ServeStdio(s.server)
}
