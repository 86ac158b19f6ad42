package localimage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanImageRefsMarkdown(t *testing.T) {
	text := "开头\n![封面](https://a.com/x.png) 中间 ![](http://b.com/y.jpg)\n结尾"

	refs := scanImageRefs(text)
	require.Len(t, refs, 2)

	assert.Equal(t, "封面", refs[0].alt)
	assert.Equal(t, "https://a.com/x.png", refs[0].url)
	assert.Equal(t, "![封面](https://a.com/x.png)", refs[0].raw)

	assert.Equal(t, "", refs[1].alt)
	assert.Equal(t, "http://b.com/y.jpg", refs[1].url)
}

func TestScanImageRefsHTML(t *testing.T) {
	text := `<p><img src="https://a.com/x.png" alt="图一"></p>` +
		`<img alt='图二' src='https://b.com/y.jpg' width="10"/>` +
		`<IMG SRC="https://c.com/z.gif">`

	refs := scanImageRefs(text)
	require.Len(t, refs, 3)

	assert.Equal(t, "图一", refs[0].alt)
	assert.Equal(t, "https://a.com/x.png", refs[0].url)
	assert.Equal(t, "图二", refs[1].alt)
	assert.Equal(t, "https://b.com/y.jpg", refs[1].url)
	assert.Equal(t, "", refs[2].alt)
	assert.Equal(t, "https://c.com/z.gif", refs[2].url)
}

func TestScanImageRefsOrdering(t *testing.T) {
	text := `<img src="https://a.com/1.png"> 文本 ![x](https://b.com/2.png) <img src="https://c.com/3.png">`

	refs := scanImageRefs(text)
	require.Len(t, refs, 3)
	assert.Equal(t, "https://a.com/1.png", refs[0].url)
	assert.Equal(t, "https://b.com/2.png", refs[1].url)
	assert.Equal(t, "https://c.com/3.png", refs[2].url)
	assert.True(t, refs[0].start < refs[1].start && refs[1].start < refs[2].start)
}

func TestScanImageRefsSkipsLocalAndPlainLinks(t *testing.T) {
	text := "![本地](attachments/a.png) [链接](https://a.com/x.png) <img src=\"images/b.jpg\">"

	refs := scanImageRefs(text)
	assert.Empty(t, refs)
}
