package mcpserver

import (
	"context"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	toon "github.com/toon-format/toon-go"

	"github.com/panbanda/orphan/internal/output"
	"github.com/panbanda/orphan/internal/service/analysis"
	scannerSvc "github.com/panbanda/orphan/internal/service/scanner"
	"github.com/panbanda/orphan/pkg/analyzer/dynpath"
)

// FindUnusedAssetsInput configures the find_unused_assets tool.
type FindUnusedAssetsInput struct {
	Dir           string `json:"dir,omitempty" jsonschema:"Project directory to scan. Defaults to the current directory."`
	Pattern       string `json:"pattern,omitempty" jsonschema:"Glob for asset files, relative to dir. Defaults to common image extensions."`
	Strict        bool   `json:"strict,omitempty" jsonschema:"Require path boundaries around matched filenames."`
	SinglePass    bool   `json:"single_pass,omitempty" jsonschema:"Apply dynamic directories file by file as sources are read."`
	ReportDynamic bool   `json:"report_dynamic,omitempty" jsonschema:"List assets kept only through dynamic directories."`
	Format        string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// DetectDynamicPathsInput configures the detect_dynamic_paths tool.
type DetectDynamicPathsInput struct {
	Content string `json:"content" jsonschema:"Source code to inspect."`
	Format  string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getFormat(format string) output.Format {
	switch strings.ToLower(format) {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

func formatOutput(data any, format output.Format) (string, error) {
	var b strings.Builder
	switch format {
	case output.FormatJSON:
		if err := output.NewFormatter(output.FormatJSON, &b, false).Output(data); err != nil {
			return "", err
		}
		return strings.TrimRight(b.String(), "\n"), nil
	case output.FormatMarkdown:
		if r, ok := data.(output.Renderable); ok {
			if err := r.RenderMarkdown(&b); err != nil {
				return "", err
			}
			return b.String(), nil
		}
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return "```\n" + string(out) + "\n```", nil
	default:
		if r, ok := data.(output.Renderable); ok {
			data = r.RenderData()
		}
		out, err := toon.Marshal(data, toon.WithIndent(2))
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
}

func toolResult(data any, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(data, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

func (s *Server) handleFindUnusedAssets(ctx context.Context, req *mcp.CallToolRequest, input FindUnusedAssetsInput) (*mcp.CallToolResult, any, error) {
	dir := input.Dir
	if dir == "" {
		dir = "."
	}

	scan, err := scannerSvc.New(scannerSvc.WithConfig(s.config)).Scan(dir, input.Pattern)
	if err != nil {
		return toolError(err.Error())
	}

	opts := analysis.OptionsFromConfig(s.config)
	opts.Strict = opts.Strict || input.Strict
	opts.SinglePass = opts.SinglePass || input.SinglePass
	opts.ReportDynamic = opts.ReportDynamic || input.ReportDynamic

	result, err := analysis.New(analysis.WithConfig(s.config)).FindUnusedAssets(ctx, scan, opts)
	if err != nil {
		return toolError(err.Error())
	}

	return toolResult(output.NewUnusedView(result, false), getFormat(input.Format))
}

func (s *Server) handleDetectDynamicPaths(ctx context.Context, req *mcp.CallToolRequest, input DetectDynamicPathsInput) (*mcp.CallToolResult, any, error) {
	if input.Content == "" {
		return toolError("content is required")
	}

	out := struct {
		Patterns []dynpath.Pattern `json:"patterns" toon:"patterns"`
	}{Patterns: dynpath.Detect(input.Content)}
	if out.Patterns == nil {
		out.Patterns = []dynpath.Pattern{}
	}
	return toolResult(out, getFormat(input.Format))
}
