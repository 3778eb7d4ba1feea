// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"bytes"
	"testing"

	"github.com/sassoftware/viya-pdf-view/internal/pdftest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePacket = `<?xpacket begin="" id="W5M0MpCehiHzreSzNTczkc9d"?>
<x:xmpmeta xmlns:x="adobe:ns:meta/">
 <rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#">
  <rdf:Description rdf:about=""
    xmlns:dc="http://purl.org/dc/elements/1.1/"
    xmlns:pdf="http://ns.adobe.com/pdf/1.3/"
    xmlns:xmp="http://ns.adobe.com/xap/1.0/">
   <dc:title><rdf:Alt><rdf:li xml:lang="x-default">Quarterly Report</rdf:li></rdf:Alt></dc:title>
   <dc:creator><rdf:Seq><rdf:li>Ada Lovelace</rdf:li></rdf:Seq></dc:creator>
   <pdf:Producer>Report Writer 3</pdf:Producer>
   <xmp:CreateDate>2026-01-02T10:00:00Z</xmp:CreateDate>
  </rdf:Description>
 </rdf:RDF>
</x:xmpmeta>
<?xpacket end="w"?>`

func TestStripXMLTags(t *testing.T) {
	in := `<p>Hello <b>World</b> &amp; <i>Gophers</i></p>`
	assert.Equal(t, "Hello World &amp; Gophers", stripXMLTags(in))
}

func TestParseXMP(t *testing.T) {
	got, ok := parseXMP(samplePacket)
	require.True(t, ok)
	assert.Equal(t, "Quarterly Report", got.Title)
	assert.Equal(t, "Ada Lovelace", got.Creator)
	assert.Equal(t, "Report Writer 3", got.Producer)
	assert.Equal(t, "2026-01-02T10:00:00Z", got.CreateDate)
	assert.Empty(t, got.ModifyDate)
}

func TestParseXMP_Invalid(t *testing.T) {
	_, ok := parseXMP(`<xmpmeta><not-closed>`)
	assert.False(t, ok)
}

func TestParseXMPFallback(t *testing.T) {
	xmp := `
  <dc:title><rdf:li>Fallback Title</rdf:li></dc:title>
  <dc:creator><rdf:li>Fallback Creator</rdf:li></dc:creator>
  <dc:description><rdf:li>Fallback Subject</rdf:li></dc:description>
  <pdf:Keywords>k1,k2</pdf:Keywords>
  <xmp:CreatorTool>FallbackTool</xmp:CreatorTool>
  <pdf:Producer>FallbackProducer</pdf:Producer>
  <xmp:CreateDate>2021-04-05</xmp:CreateDate>
  <xmp:ModifyDate>2021-04-06</xmp:ModifyDate>
`
	got := parseXMPFallback(xmp)
	assert.Equal(t, "Fallback Title", got.Title)
	assert.Equal(t, "Fallback Creator", got.Creator)
	assert.Equal(t, "Fallback Subject", got.Subject)
	assert.Equal(t, "k1,k2", got.Keywords)
	assert.Equal(t, "FallbackTool", got.CreatorTool)
	assert.Equal(t, "FallbackProducer", got.Producer)
	assert.Equal(t, "2021-04-05", got.CreateDate)
	assert.Equal(t, "2021-04-06", got.ModifyDate)
}

func TestHeaderVersion(t *testing.T) {
	r := &Reader{f: bytes.NewReader([]byte("junk\n%PDF-1.7\r\n%âãÏÓ\nrest of file"))}
	assert.Equal(t, "1.7", r.HeaderVersion())

	r = &Reader{f: bytes.NewReader([]byte("no pdf header here"))}
	assert.Equal(t, "", r.HeaderVersion())
}

func TestMetadata_InfoOnly(t *testing.T) {
	doc := pdftest.Document{
		Pages:  []pdftest.Page{{}, {}},
		Title:  "Info Title",
		Author: "Info Author",
	}
	r := newTestReader(t, doc.Bytes())

	md, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "Info Title", md.Title)
	assert.Equal(t, "Info Author", md.Author)
	assert.Equal(t, "1.7", md.PDFVersion)
	assert.Equal(t, 2, md.Pages)
	assert.False(t, md.HasXMP)
	assert.False(t, md.Encrypted)
	assert.Equal(t, Permissions{true, true, true, true, true, true, true, true}, md.Permissions)
}

func TestMetadata_XMPTakesPrecedence(t *testing.T) {
	doc := twoPages()
	doc.Title = "Info Title"
	doc.Author = "Info Author"
	doc.XMP = samplePacket
	r := newTestReader(t, doc.Bytes())

	md, err := r.Metadata()
	require.NoError(t, err)
	assert.True(t, md.HasXMP)
	assert.Equal(t, "Quarterly Report", md.Title)
	assert.Equal(t, "Ada Lovelace", md.Author)
	assert.Equal(t, "Report Writer 3", md.Producer)
	assert.Equal(t, "2026-01-02T10:00:00Z", md.CreationDate)
}

func TestMetadata_BrokenXMPFallsBack(t *testing.T) {
	doc := twoPages()
	doc.Author = "Info Author"
	doc.XMP = `<x:xmpmeta><dc:title><rdf:li>Broken Title</rdf:li></dc:title>`
	r := newTestReader(t, doc.Bytes())

	md, err := r.Metadata()
	require.NoError(t, err)
	assert.Equal(t, "Broken Title", md.Title)
	assert.Equal(t, "Info Author", md.Author, "missing XMP fields keep the Info value")
}

func TestMetadata_Encrypted(t *testing.T) {
	r := newTestReader(t, encryptedDoc("secret", "boss").Bytes())
	require.True(t, r.Authenticate("secret"))

	md, err := r.Metadata()
	require.NoError(t, err)
	assert.True(t, md.Encrypted)
	assert.Equal(t, "Classified", md.Title)
	assert.Equal(t, 1, md.Pages)
	// P = -4 grants every bit and R 3 keeps full quality printing
	assert.True(t, md.Permissions.Print)
	assert.True(t, md.Permissions.PrintFaithful)
	assert.True(t, md.Permissions.Extract)
}
