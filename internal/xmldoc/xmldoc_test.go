package xmldoc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeIndentsAndDropsWhitespace(t *testing.T) {
	in := `<?xml version="1.0" encoding="UTF-8"?>

<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9"><url>
      <loc>http://example.com/a?x=1&amp;y=2</loc>


   <priority>0.8</priority></url></urlset>`

	out, err := Normalize([]byte(in))
	require.NoError(t, err)

	want := `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
  <url>
    <loc>http://example.com/a?x=1&amp;y=2</loc>
    <priority>0.8</priority>
  </url>
</urlset>
`
	assert.Equal(t, want, string(out))
}

func TestNormalizeKeepsPrefixesAndStylesheet(t *testing.T) {
	in := `<?xml version="1.0"?>
<?xml-stylesheet href="/vendor/sitemap/styles/xml.xsl" type="text/xsl"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9" xmlns:image="http://www.google.com/schemas/sitemap-image/1.1">
<url><loc>http://example.com/</loc><image:image><image:loc>http://example.com/a.png</image:loc></image:image></url>
</urlset>`

	out, err := Normalize([]byte(in))
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, "<?xml-stylesheet href=\"/vendor/sitemap/styles/xml.xsl\" type=\"text/xsl\"?>\n<urlset")
	assert.Contains(t, s, `xmlns:image="http://www.google.com/schemas/sitemap-image/1.1"`)
	assert.Contains(t, s, "      <image:loc>http://example.com/a.png</image:loc>")
}

func TestNormalizeRejectsMalformedDocuments(t *testing.T) {
	cases := map[string]string{
		"mismatched":   `<urlset><url></urlset></url>`,
		"unclosed":     `<urlset><url></url>`,
		"two roots":    `<urlset></urlset><urlset></urlset>`,
		"text outside": `<urlset></urlset>trailing`,
		"bare amp":     `<urlset><loc>http://example.com/?a=1&b=2</loc></urlset>`,
		"empty":        ``,
	}

	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize([]byte(in))
			assert.Error(t, err)
		})
	}
}

func TestNormalizeIsStable(t *testing.T) {
	in := `<feed><item><title>A &amp; B</title></item></feed>`

	once, err := Normalize([]byte(in))
	require.NoError(t, err)
	twice, err := Normalize(once)
	require.NoError(t, err)

	assert.Equal(t, string(once), string(twice))
}
