package mdconv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConvert_Scenarios(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "heading and paragraph",
			html: "<h1>Title</h1><p>Hello <strong>world</strong>.</p>",
			want: "# Title\n\nHello **world**.\n",
		},
		{
			name: "nested list indentation",
			html: "<ul><li>a<ul><li>b</li></ul></li><li>c</li></ul>",
			want: "* a\n  + b\n* c\n",
		},
		{
			name: "ordered list with start offset",
			html: `<ol start="3"><li>x</li><li>y</li></ol>`,
			want: "3. x\n4. y\n",
		},
		{
			name: "blockquote",
			html: "<blockquote><p>quoted text</p></blockquote>",
			want: "> quoted text\n",
		},
		{
			name: "inline code with backtick content",
			html: "<p>Use <code>a`b</code> here.</p>",
			want: "Use ``a`b`` here.\n",
		},
		{
			name: "link with title",
			html: `<p><a href="https://example.com" title="Example">link text</a></p>`,
			want: "[link text](https://example.com \"Example\")\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.html, DefaultOptions())
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestConvert_IndentedCodeBlockDefault(t *testing.T) {
	got, err := Convert("<pre><code>line one\nline two</code></pre>", DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "    line one\n    line two\n", got)
}

func TestConvert_FencedCodeBlockWithLanguage(t *testing.T) {
	opts := DefaultOptions()
	opts.CodeBlockStyle = CodeBackticks
	got, err := Convert(`<pre><code class="language-go">fmt.Println("hi")</code></pre>`, opts)
	require.NoError(t, err)
	require.Equal(t, "```go\nfmt.Println(\"hi\")\n```\n", got)
}

func TestConvert_TaskList(t *testing.T) {
	html := `<ul>
		<li><input type="checkbox" checked> done</li>
		<li><input type="checkbox"> todo</li>
	</ul>`
	got, err := Convert(html, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, "* [x] done\n* [ ] todo\n", got)
}

func TestConvert_Table(t *testing.T) {
	html := `<table>
		<thead><tr><th>Name</th><th style="text-align:right">Age</th></tr></thead>
		<tbody>
			<tr><td>Ann</td><td>30</td></tr>
			<tr><td>Bo</td><td>41</td></tr>
		</tbody>
	</table>`
	got, err := Convert(html, DefaultOptions())
	require.NoError(t, err)
	require.Equal(t, strings.Join([]string{
		"| Name | Age  |",
		"| ---- | ---: |",
		"| Ann  | 30   |",
		"| Bo   | 41   |",
		"",
	}, "\n"), got)
}

func TestConvert_PreservesNewlineBreak(t *testing.T) {
	opts := DefaultOptions()
	opts.NewlineStyle = NewlineBackslash
	got, err := Convert("<p>line one<br>line two</p>", opts)
	require.NoError(t, err)
	require.Equal(t, "line one\\\nline two\n", got)
}

func TestConvert_NeverProducesTripleBlankLines(t *testing.T) {
	html := "<div></div><div></div><p>a</p><div></div><div></div><p>b</p>"
	got, err := Convert(html, DefaultOptions())
	require.NoError(t, err)
	require.NotContains(t, got, "\n\n\n")
}

func TestConvert_ConvertAsInline(t *testing.T) {
	opts := DefaultOptions()
	opts.ConvertAsInline = true
	got, err := Convert("<h2>Heading</h2><p>Body text</p>", opts)
	require.NoError(t, err)
	require.Equal(t, "Heading Body text\n", got)
}

func TestConvert_InvalidOptionsRejected(t *testing.T) {
	opts := DefaultOptions()
	opts.ListIndentWidth = 0
	_, err := Convert("<p>x</p>", opts)
	require.Error(t, err)
	var perr *PreprocessingError
	require.ErrorAs(t, err, &perr)
}

func TestConvert_MalformedHTMLNeverErrors(t *testing.T) {
	got, err := Convert("<p>unterminated <b>bold text", DefaultOptions())
	require.NoError(t, err)
	require.Contains(t, got, "**bold text**")
}

func TestConvertWithMetadata_CollectsDocumentAndHeadings(t *testing.T) {
	html := `<html lang="en"><head>
		<title>Doc Title</title>
		<meta name="description" content="A description">
		<meta property="og:type" content="article">
		<link rel="canonical" href="https://example.com/doc">
	</head><body>
		<h1>First</h1>
		<p><a href="https://other.example/x">external</a></p>
		<img src="/local.png" alt="local image">
	</body></html>`

	var d Driver
	_, meta, err := d.ConvertWithMetadata(html, DefaultOptions())
	require.NoError(t, err)

	require.Equal(t, "Doc Title", meta.Document.Title)
	require.Equal(t, "A description", meta.Document.Description)
	require.Equal(t, "article", meta.Document.OpenGraph["type"])
	require.Equal(t, "https://example.com/doc", meta.Document.CanonicalURL)
	require.Equal(t, "en", meta.Document.Language)

	require.Len(t, meta.Headers, 1)
	require.Equal(t, 1, meta.Headers[0].Level)
	require.Equal(t, "First", meta.Headers[0].Text)

	require.Len(t, meta.Links, 1)
	require.Equal(t, LinkExternal, meta.Links[0].Kind)

	require.Len(t, meta.Images, 1)
	require.Equal(t, ImageLocal, meta.Images[0].Kind)
}

func TestConvertWithInlineImages_ExtractsDataURI(t *testing.T) {
	pngBytes := []byte{
		0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
		0, 0, 0, 0, 'I', 'H', 'D', 'R',
		0, 0, 0, 10, 0, 0, 0, 20,
	}
	b64 := toBase64(pngBytes)
	html := `<p><img src="data:image/png;base64,` + b64 + `" alt="pic"></p>`

	got, images, warnings, err := ConvertWithInlineImages(html, DefaultOptions(), InlineImageConfig{FilenamePrefix: "img-"})
	require.NoError(t, err)
	require.Empty(t, warnings)
	require.Len(t, images, 1)
	require.Equal(t, "img-1.png", images[0].Filename)
	require.Equal(t, 10, images[0].Width)
	require.Equal(t, 20, images[0].Height)
	require.Contains(t, got, "![pic](img-1.png)")
}

func toBase64(b []byte) string {
	const tbl = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"
	var sb strings.Builder
	for i := 0; i < len(b); i += 3 {
		var n uint32
		chunk := 0
		for j := 0; j < 3; j++ {
			n <<= 8
			if i+j < len(b) {
				n |= uint32(b[i+j])
				chunk++
			}
		}
		for j := 0; j < 4; j++ {
			if j <= chunk {
				sb.WriteByte(tbl[(n>>(18-6*j))&0x3F])
			} else {
				sb.WriteByte('=')
			}
		}
	}
	return sb.String()
}

func TestConvertHOCR_BuildsFrontMatterAndJoinsWords(t *testing.T) {
	html := `<html><head><meta name="ocr-system" content="tesseract"></head>
	<body>
		<div class="ocr_page">
			<span class="ocr_line">
				<span class="ocrx_word" title="bbox 0 0 10 10">Hello</span>
				<span class="ocrx_word" title="bbox 12 0 20 10">world</span>
			</span>
		</div>
	</body></html>`

	got, err := Convert(html, DefaultOptions())
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(got, "---\n"))
	require.Contains(t, got, "system: tesseract")
	require.Contains(t, got, "Hello world")
}
