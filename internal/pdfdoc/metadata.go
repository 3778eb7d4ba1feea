// Copyright © 2026, SAS Institute Inc., Cary, NC, USA.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package pdfdoc

import (
	"encoding/xml"
	"io"
	"strings"

	"github.com/sassoftware/viya-pdf-view/logger"
)

// Metadata is the document information shown by the viewer: the /Info
// dictionary merged with the XMP packet, plus a few structural facts.
type Metadata struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Keywords     string `json:"keywords,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creationDate,omitempty"`
	ModDate      string `json:"modDate,omitempty"`

	PDFVersion  string      `json:"pdfVersion,omitempty"`
	HasXMP      bool        `json:"hasXMP"`
	Encrypted   bool        `json:"encrypted"`
	Pages       int         `json:"pages"`
	Permissions Permissions `json:"permissions"`
}

// Permissions are the Standard security handler access bits (ISO 32000-1
// table 22). An unencrypted file grants everything.
type Permissions struct {
	Print         bool `json:"print"`
	PrintFaithful bool `json:"printFaithful"`
	Modify        bool `json:"modify"`
	Extract       bool `json:"extract"`
	Annotate      bool `json:"annotate"`
	FillForms     bool `json:"fillForms"`
	Accessibility bool `json:"accessibility"`
	Assemble      bool `json:"assemble"`
}

type xmpPacket struct {
	XMLName xml.Name `xml:"xmpmeta"`
	RDF     rdfRDF   `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# RDF"`
}

type rdfRDF struct {
	Descriptions []rdfDescription `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Description"`
}

type rdfDescription struct {
	Title       rdfList `xml:"http://purl.org/dc/elements/1.1/ title"`
	Description rdfList `xml:"http://purl.org/dc/elements/1.1/ description"`
	Creator     rdfList `xml:"http://purl.org/dc/elements/1.1/ creator"`

	Producer string `xml:"http://ns.adobe.com/pdf/1.3/ Producer"`
	Keywords string `xml:"http://ns.adobe.com/pdf/1.3/ Keywords"`

	CreatorTool string `xml:"http://ns.adobe.com/xap/1.0/ CreatorTool"`
	CreateDate  string `xml:"http://ns.adobe.com/xap/1.0/ CreateDate"`
	ModifyDate  string `xml:"http://ns.adobe.com/xap/1.0/ ModifyDate"`
}

// rdfList holds either an rdf:Alt or an rdf:Seq container.
type rdfList struct {
	Alt []string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Alt>li"`
	Seq []string `xml:"http://www.w3.org/1999/02/22-rdf-syntax-ns# Seq>li"`
}

func (l rdfList) first() string {
	for _, li := range append(l.Alt, l.Seq...) {
		if s := strings.TrimSpace(li); s != "" {
			return s
		}
	}
	return ""
}

type xmpFields struct {
	Title, Creator, Subject, Keywords, CreatorTool, Producer, CreateDate, ModifyDate string
}

// prefer returns a if non-empty after trimming, otherwise b.
func prefer(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func (r *Reader) readInfo() Metadata {
	info := r.Trailer().Key("Info")
	return Metadata{
		Title:        info.Key("Title").Text(),
		Author:       info.Key("Author").Text(),
		Subject:      info.Key("Subject").Text(),
		Keywords:     info.Key("Keywords").Text(),
		Creator:      info.Key("Creator").Text(),
		Producer:     info.Key("Producer").Text(),
		CreationDate: info.Key("CreationDate").Text(),
		ModDate:      info.Key("ModDate").Text(),
	}
}

// readXMP returns the raw packet from /Root/Metadata, or "" when absent.
func (r *Reader) readXMP() (string, error) {
	md := r.Trailer().Key("Root").Key("Metadata")
	if md.Kind() != Stream {
		return "", nil
	}
	rc := md.Reader()
	defer rc.Close()
	b, err := io.ReadAll(rc)
	if err != nil {
		logger.Error("readXMP: failed to read XMP stream", "err", err)
		return "", err
	}
	return string(b), nil
}

func parseXMP(x string) (xmpFields, bool) {
	var pkt xmpPacket
	dec := xml.NewDecoder(strings.NewReader(x))
	dec.Strict = false
	dec.AutoClose = xml.HTMLAutoClose
	dec.Entity = xml.HTMLEntity
	if err := dec.Decode(&pkt); err != nil {
		logger.Debug("parseXMP: packet is not well formed", "err", err)
		return xmpFields{}, false
	}

	var f xmpFields
	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	for _, d := range pkt.RDF.Descriptions {
		set(&f.Title, d.Title.first())
		set(&f.Creator, d.Creator.first())
		set(&f.Subject, d.Description.first())
		set(&f.Keywords, d.Keywords)
		set(&f.Producer, d.Producer)
		set(&f.CreatorTool, d.CreatorTool)
		set(&f.CreateDate, d.CreateDate)
		set(&f.ModifyDate, d.ModifyDate)
	}
	return f, true
}

// parseXMPFallback looks for the usual element names when the packet does
// not parse as XML.
func parseXMPFallback(xmp string) xmpFields {
	get := func(tags ...string) string {
		for _, t := range tags {
			open, end := "<"+t+">", "</"+t+">"
			i := strings.Index(xmp, open)
			if i < 0 {
				continue
			}
			rest := xmp[i+len(open):]
			if j := strings.Index(rest, end); j >= 0 {
				return strings.TrimSpace(stripXMLTags(rest[:j]))
			}
		}
		return ""
	}
	return xmpFields{
		Title:       get("dc:title", "pdf:Title"),
		Creator:     get("dc:creator", "pdf:Author"),
		Subject:     get("dc:description", "pdf:Subject"),
		Keywords:    get("pdf:Keywords"),
		CreatorTool: get("xmp:CreatorTool"),
		Producer:    get("pdf:Producer"),
		CreateDate:  get("xmp:CreateDate"),
		ModifyDate:  get("xmp:ModifyDate"),
	}
}

func stripXMLTags(s string) string {
	var b strings.Builder
	inTag := false
	for _, c := range s {
		switch c {
		case '<':
			inTag = true
		case '>':
			inTag = false
		default:
			if !inTag {
				b.WriteRune(c)
			}
		}
	}
	return b.String()
}

// HeaderVersion returns the version from the %PDF- header line.
func (r *Reader) HeaderVersion() string {
	buf := make([]byte, 64)
	n, _ := r.f.ReadAt(buf, 0)
	line := string(buf[:n])
	i := strings.Index(line, "%PDF-")
	if i < 0 {
		return ""
	}
	line = line[i+len("%PDF-"):]
	if j := strings.IndexAny(line, "\r\n \t%"); j >= 0 {
		line = line[:j]
	}
	return line
}

// Permissions decodes /Encrypt /P.
func (r *Reader) Permissions() Permissions {
	enc := r.Trailer().Key("Encrypt")
	if enc.Kind() != Dict {
		return Permissions{true, true, true, true, true, true, true, true}
	}
	p := uint32(enc.Key("P").Int64())
	bit := func(n uint) bool { return p&(1<<(n-1)) != 0 }
	var ps Permissions
	ps.Print = bit(3)
	ps.Modify = bit(4)
	ps.Extract = bit(5)
	ps.Annotate = bit(6)
	ps.FillForms = bit(9) || ps.Annotate
	ps.Accessibility = bit(10)
	ps.Assemble = bit(11)
	ps.PrintFaithful = ps.Print && (bit(12) || enc.Key("R").Int64() < 3)
	return ps
}

// Metadata returns the merged document information, XMP taking precedence
// over /Info field by field.
func (r *Reader) Metadata() (Metadata, error) {
	logger.Debug("metadata: reading Info and XMP", true)
	info := r.readInfo()

	packet, err := r.readXMP()
	if err != nil {
		return Metadata{}, err
	}
	var xf xmpFields
	if packet != "" {
		if got, ok := parseXMP(packet); ok {
			xf = got
		} else {
			xf = parseXMPFallback(packet)
		}
	}

	n, err := r.NumPage()
	if err != nil {
		return Metadata{}, err
	}
	return Metadata{
		Title:        prefer(xf.Title, info.Title),
		Author:       prefer(xf.Creator, info.Author),
		Subject:      prefer(xf.Subject, info.Subject),
		Keywords:     prefer(xf.Keywords, info.Keywords),
		Creator:      prefer(xf.CreatorTool, info.Creator),
		Producer:     prefer(xf.Producer, info.Producer),
		CreationDate: prefer(xf.CreateDate, info.CreationDate),
		ModDate:      prefer(xf.ModifyDate, info.ModDate),
		PDFVersion:   r.HeaderVersion(),
		HasXMP:       packet != "",
		Encrypted:    r.Trailer().Key("Encrypt").Kind() == Dict,
		Pages:        n,
		Permissions:  r.Permissions(),
	}, nil
}
