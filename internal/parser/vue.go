package parser

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"alad-i18n/internal/textutil"
)

var (
	scriptBlockRegex = regexp.MustCompile(`(?s)<script\b[^>]*>(.*?)</script>`)
	templateOpen     = regexp.MustCompile(`<template\b[^>]*>`)
)

// VueParser handles Vue single-file components: the <template> block and
// every <script> block.
type VueParser struct {
	opts Options
}

// NewVueParser creates a parser for .vue files.
func NewVueParser(opts Options) *VueParser {
	return &VueParser{opts: opts}
}

func (p *VueParser) CanParse(ext string) bool {
	return strings.EqualFold(ext, ".vue")
}

func (p *VueParser) Parse(filePath string) (*ParseResult, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	result := &ParseResult{
		FilePath: filePath,
		FileType: "vue",
		Content:  content,
	}
	src := string(content)

	if loc := templateOpen.FindStringIndex(src); loc != nil {
		if end := strings.LastIndex(src, "</template>"); end > loc[1] {
			result.Texts = append(result.Texts, p.parseTemplate(src, filePath, loc[1], end)...)
		}
	}

	scriptCtx := map[string]string{"block": "script"}
	for _, m := range scriptBlockRegex.FindAllStringSubmatchIndex(src, -1) {
		body := src[m[2]:m[3]]
		l := lexScript(body, p.opts)
		result.Texts = append(result.Texts, toTexts(filePath, m[2], l.found, scriptCtx)...)
	}

	sortTexts(result.Texts)
	assignLines(content, result.Texts)
	return result, nil
}

func (p *VueParser) Reconstruct(result *ParseResult, keys map[string]string) ([]byte, error) {
	return splice(result, keys, p.opts, true), nil
}

// parseTemplate scans src[from:to] as HTML: text nodes, static attributes,
// and the expressions of mustaches and bound attributes.
func (p *VueParser) parseTemplate(src, file string, from, to int) []ExtractedText {
	var texts []ExtractedText
	i := from
	for i < to {
		switch {
		case strings.HasPrefix(src[i:to], "<!--"):
			end := strings.Index(src[i:to], "-->")
			if end < 0 {
				return texts
			}
			i += end + 3
		case src[i] == '<' && i+1 < to && (isIdent(src[i+1]) || src[i+1] == '/'):
			var attrs []ExtractedText
			i, attrs = p.parseTag(src, file, i, to)
			texts = append(texts, attrs...)
		default:
			end := strings.IndexByte(src[i:to], '<')
			if end < 0 {
				end = to - i
			}
			texts = append(texts, p.parseText(src, file, i, i+end)...)
			if end == 0 {
				end = 1
			}
			i += end
		}
	}
	return texts
}

// parseTag reads one tag starting at '<' and returns the index after '>'.
func (p *VueParser) parseTag(src, file string, i, to int) (int, []ExtractedText) {
	var texts []ExtractedText
	j := i + 1
	for j < to && src[j] != '>' {
		if isSpace(src[j]) || src[j] == '/' {
			j++
			continue
		}
		nameStart := j
		for j < to && !isSpace(src[j]) && src[j] != '=' && src[j] != '>' && src[j] != '/' {
			j++
		}
		name := src[nameStart:j]
		if name == "" {
			j++
			continue
		}
		if j >= to || src[j] != '=' || j+1 >= to || (src[j+1] != '"' && src[j+1] != '\'') {
			continue
		}
		q := src[j+1]
		valStart := j + 2
		valEnd := strings.IndexByte(src[valStart:to], q)
		if valEnd < 0 {
			return to, texts
		}
		valEnd += valStart
		j = valEnd + 1
		if nameStart == i+1 {
			// tag name written as name=..., not an attribute
			continue
		}
		value := src[valStart:valEnd]
		if isBound(name) {
			texts = append(texts, p.expression(src, file, valStart, valEnd)...)
			continue
		}
		if textutil.ContainsChinese(value) {
			texts = append(texts, ExtractedText{
				Text:    value,
				File:    file,
				Start:   nameStart,
				End:     valEnd + 1,
				Kind:    KindVueAttr,
				Context: map[string]string{"block": "template", "attr": name},
			})
		}
	}
	return j + 1, texts
}

// parseText handles a text node, splitting out {{ }} interpolations.
func (p *VueParser) parseText(src, file string, from, to int) []ExtractedText {
	var texts []ExtractedText
	for from < to {
		open := strings.Index(src[from:to], "{{")
		staticEnd := to
		if open >= 0 {
			staticEnd = from + open
		}
		if raw := src[from:staticEnd]; textutil.ContainsChinese(raw) {
			s, e := trimmedSpan(src, from, staticEnd)
			texts = append(texts, ExtractedText{
				Text:    raw,
				File:    file,
				Start:   s,
				End:     e,
				Kind:    KindVueText,
				Context: map[string]string{"block": "template"},
			})
		}
		if open < 0 {
			break
		}
		exprStart := staticEnd + 2
		closeIdx := strings.Index(src[exprStart:to], "}}")
		if closeIdx < 0 {
			break
		}
		texts = append(texts, p.expression(src, file, exprStart, exprStart+closeIdx)...)
		from = exprStart + closeIdx + 2
	}
	return texts
}

func (p *VueParser) expression(src, file string, from, to int) []ExtractedText {
	l := lexScript(src[from:to], p.opts)
	return toTexts(file, from, l.found, map[string]string{"block": "template"})
}

func isBound(attr string) bool {
	return strings.HasPrefix(attr, ":") || strings.HasPrefix(attr, "@") ||
		strings.HasPrefix(attr, "#") || strings.HasPrefix(attr, "v-")
}
