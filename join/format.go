// Package join implements the join worker (C10), the defline format
// engine (C11), the temp registry (C12), and per-worker statistics
// (spec.md section 4.10-4.13): the stage that walks each spot, resolves
// every read's bases (inline from CMP_READ or fetched from the lookup),
// applies filters and the output-layout policy, renders FASTA/FASTQ
// records through a compiled defline template, and writes them to
// per-bucket temp files for later concatenation.
package join

import (
	"strconv"
)

// varKind is the declared type of a defline template placeholder
// (spec.md C11: "each variable has a declared type (string or integer)").
type varKind int

const (
	varString varKind = iota
	varInt
)

var knownVars = map[string]varKind{
	"ac": varString, // accession
	"sn": varString, // spot name
	"sg": varString, // spot group
	"si": varInt,    // spot id
	"ri": varInt,    // read id
	"rl": varInt,    // read length
}

// segment is one compiled piece of a Template: either a literal run of
// bytes or a reference to one of knownVars.
type segment struct {
	literal string
	isVar   bool
	varName string
}

// Template is a precompiled defline template (spec.md C11), e.g.
// "@$ac.$si/$ri $sn length=$rl".
type Template struct {
	segments []segment
}

// CompileTemplate parses a defline template string into a Template. A
// `$xx` that isn't one of knownVars is passed through as a two-character
// literal rather than rejected, so an accession or spot name that
// happens to contain a dollar sign can't turn a valid defline into a
// parse error.
func CompileTemplate(s string) (*Template, error) {
	t := &Template{}
	var lit []byte
	flushLit := func() {
		if len(lit) > 0 {
			t.segments = append(t.segments, segment{literal: string(lit)})
			lit = nil
		}
	}
	for i := 0; i < len(s); i++ {
		if s[i] != '$' || i+3 > len(s) {
			lit = append(lit, s[i])
			continue
		}
		name := s[i+1 : i+3]
		if _, ok := knownVars[name]; !ok {
			lit = append(lit, s[i])
			continue
		}
		flushLit()
		t.segments = append(t.segments, segment{isVar: true, varName: name})
		i += 2
	}
	flushLit()
	return t, nil
}

// Values supplies the current record's data to Render.
type Values struct {
	Accession string
	SpotName  string
	SpotGroup string
	SpotID    uint64
	ReadID    int
	ReadLen   int
}

// Render appends the rendered template for v onto dst and returns the
// result, reusing dst's backing array when possible.
func (t *Template) Render(dst []byte, v Values) []byte {
	for _, seg := range t.segments {
		if !seg.isVar {
			dst = append(dst, seg.literal...)
			continue
		}
		switch seg.varName {
		case "ac":
			dst = append(dst, v.Accession...)
		case "sn":
			if v.SpotName != "" {
				dst = append(dst, v.SpotName...)
			} else {
				// String placeholder with an empty value falls back to its
				// declared integer alternative (spec.md C11): spot name
				// falls back to spot id.
				dst = strconv.AppendUint(dst, v.SpotID, 10)
			}
		case "sg":
			dst = append(dst, v.SpotGroup...)
		case "si":
			dst = strconv.AppendUint(dst, v.SpotID, 10)
		case "ri":
			dst = strconv.AppendInt(dst, int64(v.ReadID), 10)
		case "rl":
			dst = strconv.AppendInt(dst, int64(v.ReadLen), 10)
		}
	}
	return dst
}

// DefaultQualDefline matches fasterq-dump's conventional FASTQ quality
// defline (original_source/tools/fasterq-dump). The seq defline default
// varies by format and layout; see defaultSeqDefline.
const DefaultQualDefline = "+$ac.$si $sn length=$rl"
