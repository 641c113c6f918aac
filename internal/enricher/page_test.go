package enricher

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

func parseHTML(t *testing.T, raw string) PageMeta {
	t.Helper()
	doc, err := html.Parse(strings.NewReader(raw))
	require.NoError(t, err)
	return parsePageMeta(doc)
}

func TestParsePageMeta_TitlePriority(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "og:title wins",
			html: `<head>
				<meta property="og:title" content="OG">
				<meta name="twitter:title" content="Twitter">
				<title>Doc</title>
			</head>`,
			want: "OG",
		},
		{
			name: "twitter:title second",
			html: `<head>
				<meta name="twitter:title" content="Twitter">
				<title>Doc</title>
			</head>`,
			want: "Twitter",
		},
		{
			name: "document title last",
			html: `<head><title>Doc</title></head>`,
			want: "Doc",
		},
		{
			name: "nothing yields empty",
			html: `<head></head><body><p>text</p></body>`,
			want: "",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, parseHTML(t, tc.html).Title)
		})
	}
}

func TestParsePageMeta_DescriptionAndHeading(t *testing.T) {
	meta := parseHTML(t, `<head>
		<meta name="description" content="  the description  ">
	</head><body>
		<h1>First <em>Heading</em></h1>
		<h1>Second Heading</h1>
	</body>`)

	assert.Equal(t, "the description", meta.Description)
	// Only the first h1 counts; nested markup flattens to text.
	assert.Equal(t, "First Heading", meta.Heading)
}

func TestParsePageMeta_OGDescriptionFallback(t *testing.T) {
	meta := parseHTML(t, `<head>
		<meta property="og:description" content="og description">
	</head>`)
	assert.Equal(t, "og description", meta.Description)
}

func TestTransientStatus(t *testing.T) {
	assert.True(t, transientStatus(429))
	assert.True(t, transientStatus(500))
	assert.True(t, transientStatus(503))
	assert.False(t, transientStatus(200))
	assert.False(t, transientStatus(404))
	assert.False(t, transientStatus(403))
}
