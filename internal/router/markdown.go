package router

import (
	"bytes"
	"fmt"
	"html"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// newMarkdownRenderer builds the goldmark instance used for .md direct
// previews: GFM tables/strikethrough/autolinks plus chroma class-based
// fence highlighting.
func newMarkdownRenderer() goldmark.Markdown {
	return goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithFormatOptions(
					chromahtml.WithClasses(true),
				),
			),
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			goldmarkhtml.WithUnsafe(),
		),
	)
}

const markdownStyle = `
        body { font-family: system-ui, -apple-system, sans-serif; margin: 0; background: #f5f5f5; }
        article { max-width: 820px; margin: 24px auto; background: white; border-radius: 8px;
                  box-shadow: 0 2px 10px rgba(0,0,0,0.1); padding: 32px 40px; line-height: 1.6; }
        article pre { background: #f6f8fa; border-radius: 6px; padding: 12px; overflow: auto;
                      font-size: 13px; }
        article code { font-family: ui-monospace, 'Menlo', monospace; }
        article img { max-width: 100%; }
        article blockquote { border-left: 4px solid #ddd; margin-left: 0; padding-left: 16px; color: #666; }
        .chroma .k, .chroma .kd { color: #d73a49; } .chroma .s, .chroma .s2 { color: #032f62; }
        .chroma .nf { color: #6f42c1; } .chroma .c, .chroma .c1 { color: #6a737d; }
        .chroma .mi, .chroma .mf { color: #005cc5; }
`

// markdownViewerPage renders markdown to a standalone document. A render
// failure falls back to the escaped source rather than an error.
func (pr *PreviewRouter) markdownViewerPage(path string, content []byte) []byte {
	var rendered bytes.Buffer
	if err := pr.markdown.Convert(content, &rendered); err != nil {
		rendered.Reset()
		rendered.WriteString("<pre>")
		rendered.WriteString(html.EscapeString(string(content)))
		rendered.WriteString("</pre>")
	}

	page := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <meta charset="utf-8">
    <title>%s</title>
    <style>%s</style>
</head>
<body>
    <article>
%s
    </article>
</body>
</html>`, html.EscapeString(path), markdownStyle, rendered.String())

	return []byte(page)
}
