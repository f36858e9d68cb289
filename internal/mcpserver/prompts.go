package mcpserver

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"gopkg.in/yaml.v3"
)

//go:embed prompts/*.md
var promptFiles embed.FS

// promptDoc is a markdown prompt with optional YAML frontmatter. Declared
// arguments appear in the body as {{name}}.
type promptDoc struct {
	Name        string           `yaml:"-"`
	Description string           `yaml:"description"`
	Arguments   []promptArgument `yaml:"arguments"`
	Body        string           `yaml:"-"`
}

type promptArgument struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Required    bool   `yaml:"required"`
}

// loadPrompts parses every *.md file in dir, sorted by name.
func loadPrompts(fsys fs.FS, dir string) ([]promptDoc, error) {
	files, err := fs.Glob(fsys, path.Join(dir, "*.md"))
	if err != nil {
		return nil, err
	}

	docs := make([]promptDoc, 0, len(files))
	for _, file := range files {
		data, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("read prompt %s: %w", file, err)
		}
		doc, err := parsePrompt(data)
		if err != nil {
			return nil, fmt.Errorf("prompt %s: %w", file, err)
		}
		doc.Name = strings.TrimSuffix(path.Base(file), ".md")
		docs = append(docs, doc)
	}
	return docs, nil
}

// parsePrompt splits the frontmatter block from the body. Content without a
// terminated block is all body.
func parsePrompt(data []byte) (promptDoc, error) {
	var doc promptDoc
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		doc.Body = string(data)
		return doc, nil
	}
	front, body, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		doc.Body = string(data)
		return doc, nil
	}
	if err := yaml.Unmarshal(front, &doc); err != nil {
		return promptDoc{}, fmt.Errorf("frontmatter: %w", err)
	}
	doc.Body = string(bytes.TrimPrefix(body, []byte("\n")))
	return doc, nil
}

// render fills the {{name}} placeholders from args. Optional arguments left
// out render empty.
func (d promptDoc) render(args map[string]string) (string, error) {
	pairs := make([]string, 0, 2*len(d.Arguments))
	for _, a := range d.Arguments {
		v := strings.TrimSpace(args[a.Name])
		if v == "" && a.Required {
			return "", fmt.Errorf("prompt %s: missing required argument %q", d.Name, a.Name)
		}
		pairs = append(pairs, "{{"+a.Name+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(d.Body), nil
}

func (d promptDoc) prompt() *mcp.Prompt {
	p := &mcp.Prompt{Name: d.Name, Description: d.Description}
	for _, a := range d.Arguments {
		p.Arguments = append(p.Arguments, &mcp.PromptArgument{
			Name:        a.Name,
			Description: a.Description,
			Required:    a.Required,
		})
	}
	return p
}

func (d promptDoc) handler() mcp.PromptHandler {
	return func(ctx context.Context, req *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
		var args map[string]string
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		text, err := d.render(args)
		if err != nil {
			return nil, err
		}
		return &mcp.GetPromptResult{
			Description: d.Description,
			Messages:    []*mcp.PromptMessage{{Role: "user", Content: &mcp.TextContent{Text: text}}},
		}, nil
	}
}

// registerPrompts registers the embedded prompts. They are compiled in, so a
// parse failure is caught by the package tests rather than reported here.
func (s *Server) registerPrompts() {
	docs, err := loadPrompts(promptFiles, "prompts")
	if err != nil {
		return
	}
	for _, doc := range docs {
		s.server.AddPrompt(doc.prompt(), doc.handler())
	}
}
