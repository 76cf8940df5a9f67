// Copyright (c) 2025 Leaflens Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"bytes"
	"fmt"
	"html"
	"regexp"
	"strings"
	"time"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"

	"github.com/leaflens/leaflens-tui/internal/model"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter renders a conversation as a standalone HTML page with
// embedded CSS, inline image previews, and chroma-highlighted code.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates an HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

func (e *HTMLExporter) FileExtension() string { return ".html" }
func (e *HTMLExporter) MimeType() string      { return "text/html" }

// Export renders the conversation.
func (e *HTMLExporter) Export(conv *model.Conversation) ([]byte, error) {
	if conv == nil {
		return nil, fmt.Errorf("conversation is nil")
	}
	turns := conv.Transcript()
	if len(turns) == 0 {
		return nil, fmt.Errorf("conversation has no turns")
	}

	var sb strings.Builder
	sb.WriteString("<!DOCTYPE html>\n<html lang=\"en\">\n<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(conv.Name)))
	sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", conv.CreatedAt.Format(time.RFC3339)))
	sb.WriteString(pageCSS)
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", e.theme()))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(conv.Name)))
	sb.WriteString("            <div class=\"metadata\">\n")
	sb.WriteString(fmt.Sprintf("                <span><strong>Created:</strong> %s</span>\n",
		conv.CreatedAt.Format("2006-01-02 15:04:05")))
	sb.WriteString(fmt.Sprintf("                <span><strong>Turns:</strong> %d</span>\n", len(turns)))
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	sb.WriteString("        <main class=\"conversation\">\n")
	for _, turn := range turns {
		sb.WriteString(e.renderTurn(turn))
	}
	sb.WriteString("        </main>\n")
	sb.WriteString("    </div>\n</body>\n</html>\n")

	return []byte(sb.String()), nil
}

func (e *HTMLExporter) theme() string {
	if e.options.Theme == "dark" {
		return "dark"
	}
	return "light"
}

// =============================================================================
// TURN RENDERING
// =============================================================================

func (e *HTMLExporter) renderTurn(turn model.Turn) string {
	var sb strings.Builder
	roleClass := string(turn.Role())

	sb.WriteString(fmt.Sprintf("            <div class=\"turn %s-turn\">\n", roleClass))
	sb.WriteString("                <div class=\"turn-header\">\n")
	sb.WriteString(fmt.Sprintf("                    <span class=\"role\">%s</span>\n", roleLabel(turn.Role())))
	if e.options.IncludeTimestamps && !turn.When().IsZero() {
		sb.WriteString(fmt.Sprintf("                    <span class=\"timestamp\">%s</span>\n",
			turn.When().Format("15:04:05")))
	}
	sb.WriteString("                </div>\n")

	if ut, ok := turn.(model.UserTurn); ok && ut.HasImage() && e.options.IncludeImages {
		sb.WriteString(fmt.Sprintf("                <img class=\"attachment\" src=\"%s\" alt=\"attached photo\">\n",
			html.EscapeString(ut.Image)))
	}

	sb.WriteString("                <div class=\"content\">\n")
	sb.WriteString(formatContent(turn.Text()))
	sb.WriteString("\n                </div>\n")
	sb.WriteString("            </div>\n")
	return sb.String()
}

// codeBlockRegex matches fenced code blocks with an optional language tag.
var codeBlockRegex = regexp.MustCompile("(?s)```([a-zA-Z0-9_+-]*)\n(.*?)```")

// formatContent escapes the text, highlights fenced code blocks through
// chroma, and wraps plain lines in paragraphs.
func formatContent(content string) string {
	type block struct {
		placeholder string
		html        string
	}
	var blocks []block

	// Pull code blocks out before escaping so chroma sees raw source.
	content = codeBlockRegex.ReplaceAllStringFunc(content, func(match string) string {
		parts := codeBlockRegex.FindStringSubmatch(match)
		placeholder := fmt.Sprintf("\x00CODEBLOCK%d\x00", len(blocks))
		blocks = append(blocks, block{
			placeholder: placeholder,
			html:        highlightCode(parts[2], parts[1]),
		})
		return placeholder
	})

	content = html.EscapeString(content)

	var sb strings.Builder
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimRight(line, " \t")
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "\x00CODEBLOCK") {
			sb.WriteString(line + "\n")
			continue
		}
		sb.WriteString("<p>" + line + "</p>\n")
	}
	out := sb.String()

	for _, b := range blocks {
		out = strings.Replace(out, b.placeholder, b.html, 1)
	}
	return out
}

// highlightCode runs chroma over a fenced block, falling back to an
// escaped <pre> when the source cannot be tokenized.
func highlightCode(code, lang string) string {
	lexer := lexers.Get(lang)
	if lexer == nil {
		lexer = lexers.Fallback
	}

	style := styles.Get("friendly")
	if style == nil {
		style = styles.Fallback
	}

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre><code>" + html.EscapeString(code) + "</code></pre>"
	}

	var buf bytes.Buffer
	formatter := chromahtml.New(chromahtml.WithClasses(false))
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return "<pre><code>" + html.EscapeString(code) + "</code></pre>"
	}
	return "<div class=\"code-block\">" + buf.String() + "</div>"
}

// =============================================================================
// EMBEDDED CSS
// =============================================================================

const pageCSS = `    <style>
        * { margin: 0; padding: 0; box-sizing: border-box; }

        .light-theme {
            --bg: #f6f8f4;
            --panel: #ffffff;
            --text: #1d2a1f;
            --muted: #6a7a6d;
            --border: #d9e2d7;
            --user-accent: #822433;
            --assistant-accent: #3f7d4e;
        }

        .dark-theme {
            --bg: #161b16;
            --panel: #1f261f;
            --text: #d9e2d7;
            --muted: #8a9a8d;
            --border: #33402f;
            --user-accent: #c26575;
            --assistant-accent: #7dbd8c;
        }

        body {
            font-family: -apple-system, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            font-size: 16px;
            line-height: 1.6;
            color: var(--text);
            background: var(--bg);
            padding: 20px;
        }

        .container {
            max-width: 860px;
            margin: 0 auto;
            background: var(--panel);
            border: 1px solid var(--border);
            border-radius: 10px;
            overflow: hidden;
        }

        .header {
            padding: 28px;
            border-bottom: 2px solid var(--border);
        }

        .header h1 { font-size: 24px; margin-bottom: 10px; }

        .metadata {
            display: flex;
            gap: 16px;
            font-size: 14px;
            color: var(--muted);
        }

        .conversation { padding: 24px 28px; }

        .turn {
            margin-bottom: 20px;
            padding: 16px;
            border-radius: 8px;
            border-left: 4px solid var(--border);
        }

        .user-turn { border-left-color: var(--user-accent); }
        .assistant-turn { border-left-color: var(--assistant-accent); }

        .turn-header {
            display: flex;
            justify-content: space-between;
            margin-bottom: 10px;
            font-size: 14px;
        }

        .role { font-weight: 600; }
        .timestamp { color: var(--muted); font-size: 13px; }

        .attachment {
            max-width: 200px;
            border-radius: 6px;
            margin-bottom: 10px;
            display: block;
        }

        .content p { margin-bottom: 10px; }
        .content p:last-child { margin-bottom: 0; }

        .code-block {
            margin: 12px 0;
            border-radius: 6px;
            overflow-x: auto;
            border: 1px solid var(--border);
        }

        .code-block pre { padding: 12px; margin: 0; }
    </style>
`
