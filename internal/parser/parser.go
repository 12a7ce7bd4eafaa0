package parser

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog/log"
	"github.com/tealeg/xlsx"
	"github.com/xuri/excelize/v2"

	"business-chatbot/internal/models"
)

const (
	defaultChunkSize    = 1000 // characters
	defaultChunkOverlap = 200  // characters
	defaultPageNumber   = 1
)

var slideName = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// Parser splits documents into overlapping chunks ready for embedding.
type Parser struct {
	ChunkSize    int
	ChunkOverlap int
}

// New returns a parser; non-positive sizes fall back to the defaults.
func New(chunkSize, chunkOverlap int) *Parser {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = defaultChunkOverlap
	}
	return &Parser{ChunkSize: chunkSize, ChunkOverlap: chunkOverlap}
}

// SupportedFormats lists the file extensions Parse understands.
func SupportedFormats() []string {
	return []string{".txt", ".md", ".pdf", ".docx", ".pptx", ".xlsx", ".xlsm"}
}

// Parse reads filePath and returns its chunks. PageNumber is the pdf page,
// slide or sheet the chunk came from, and 1 for unpaged formats.
func (p *Parser) Parse(filePath string) ([]models.Chunk, error) {
	ext := strings.ToLower(filepath.Ext(filePath))
	log.Debug().Str("file", filePath).Str("format", ext).Msg("Parsing document")

	switch ext {
	case ".pdf":
		return p.parsePDF(filePath)
	case ".docx":
		return p.parseDOCX(filePath)
	case ".pptx":
		return p.parsePPTX(filePath)
	case ".xlsx":
		return p.parseXLSX(filePath)
	case ".xlsm":
		return p.parseXLSM(filePath)
	case ".md":
		return p.parseMarkdown(filePath)
	case ".txt":
		return p.parseText(filePath)
	default:
		return nil, fmt.Errorf("unsupported file format: %s", ext)
	}
}

func (p *Parser) parsePDF(filePath string) ([]models.Chunk, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(f, stat.Size())
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read page %d: %w", i, err)
		}
		chunks = append(chunks, p.getChunks(pageText, i)...)
	}
	return chunks, nil
}

func (p *Parser) parseDOCX(filePath string) ([]models.Chunk, error) {
	r, err := docx.ReadDocxFile(filePath)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	// GetContent returns the raw document xml
	content := extractTextFromXML(r.Editable().GetContent(), "w:t", "</w:p>")
	return p.getChunks(content, defaultPageNumber), nil
}

func (p *Parser) parsePPTX(filePath string) ([]models.Chunk, error) {
	f, err := zip.OpenReader(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	type slide struct {
		num  int
		file *zip.File
	}
	var slides []slide
	for _, file := range f.File {
		m := slideName.FindStringSubmatch(file.Name)
		if m == nil {
			continue
		}
		num, _ := strconv.Atoi(m[1])
		slides = append(slides, slide{num: num, file: file})
	}
	sort.Slice(slides, func(i, j int) bool { return slides[i].num < slides[j].num })

	var chunks []models.Chunk
	for _, s := range slides {
		rc, err := s.file.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		chunks = append(chunks, p.getChunks(extractTextFromXML(string(data), "a:t", "</a:p>"), s.num)...)
	}
	return chunks, nil
}

func (p *Parser) parseXLSX(filePath string) ([]models.Chunk, error) {
	f, err := xlsx.OpenFile(filePath)
	if err != nil {
		return nil, err
	}

	var chunks []models.Chunk
	for sheetNum, sheet := range f.Sheets {
		var rows [][]string
		for _, row := range sheet.Rows {
			var cells []string
			for _, cell := range row.Cells {
				cells = append(cells, cell.String())
			}
			rows = append(rows, cells)
		}
		chunks = append(chunks, p.getChunks(sheetText(sheet.Name, rows), sheetNum+1)...)
	}
	return chunks, nil
}

func (p *Parser) parseXLSM(filePath string) ([]models.Chunk, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var chunks []models.Chunk
	for sheetNum, sheetName := range f.GetSheetList() {
		rows, err := f.GetRows(sheetName)
		if err != nil {
			return nil, fmt.Errorf("read sheet %s: %w", sheetName, err)
		}
		chunks = append(chunks, p.getChunks(sheetText(sheetName, rows), sheetNum+1)...)
	}
	return chunks, nil
}

func (p *Parser) parseMarkdown(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.getChunks(markdownToText(data), defaultPageNumber), nil
}

func (p *Parser) parseText(filePath string) ([]models.Chunk, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return p.getChunks(string(data), defaultPageNumber), nil
}

// sheetText renders a sheet as tab separated rows under a heading line.
// Empty rows are dropped; a sheet with no values yields "".
func sheetText(name string, rows [][]string) string {
	var text strings.Builder
	for _, row := range rows {
		line := strings.TrimRight(strings.Join(row, "\t"), "\t ")
		if line == "" {
			continue
		}
		text.WriteString(line + "\n")
	}
	if text.Len() == 0 {
		return ""
	}
	return fmt.Sprintf("Sheet: %s\n%s", name, text.String())
}

// extractTextFromXML collects the text runs of an office document. tag is
// the run element (w:t or a:t) and paraEnd the closing tag that ends a line.
func extractTextFromXML(xmlContent, tag, paraEnd string) string {
	var text strings.Builder
	for _, para := range strings.Split(xmlContent, paraEnd) {
		var line strings.Builder
		for _, part := range strings.Split(para, "<"+tag)[1:] {
			// <w:t> or <w:t xml:space="preserve">, not <w:tbl> or <w:tab/>
			if part == "" || (part[0] != '>' && part[0] != ' ') {
				continue
			}
			start := strings.Index(part, ">")
			if start < 0 || strings.HasSuffix(part[:start], "/") {
				continue
			}
			part = part[start+1:]
			if end := strings.Index(part, "</"+tag+">"); end >= 0 {
				line.WriteString(unescapeXML(part[:end]))
			}
		}
		if l := strings.TrimSpace(line.String()); l != "" {
			text.WriteString(l + "\n")
		}
	}
	return text.String()
}

var xmlUnescaper = strings.NewReplacer("&lt;", "<", "&gt;", ">", "&quot;", `"`, "&apos;", "'", "&amp;", "&")

func unescapeXML(s string) string {
	return xmlUnescaper.Replace(s)
}

// chunkContent splits content into pieces of at most maxChars runes, each
// starting overlapChars runes before the end of the previous one. Breaks
// are moved back to a space, newline or period when one is found in the last
// tenth of the window.
func chunkContent(content string, maxChars, overlapChars int) []string {
	if maxChars <= 0 {
		return nil
	}
	if overlapChars < 0 {
		overlapChars = 0
	}
	if overlapChars >= maxChars {
		overlapChars = maxChars / 2
	}

	runes := []rune(strings.TrimSpace(content))
	contentLen := len(runes)
	if contentLen == 0 {
		return nil
	}
	if contentLen <= maxChars {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for start < contentLen {
		end := min(start+maxChars, contentLen)

		if end < contentLen {
			lookBack := min(maxChars/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if runes[i] == ' ' || runes[i] == '\n' || runes[i] == '.' {
					end = i + 1
					break
				}
			}
		}

		if chunk := strings.TrimSpace(string(runes[start:end])); chunk != "" {
			chunks = append(chunks, chunk)
		}
		if end >= contentLen {
			break
		}

		next := end - overlapChars
		if next <= start {
			next = start + 1
		}
		start = next
	}

	return chunks
}

func (p *Parser) getChunks(content string, pageNumber int) []models.Chunk {
	var chunks []models.Chunk
	for i, chunkString := range chunkContent(content, p.ChunkSize, p.ChunkOverlap) {
		chunks = append(chunks, models.Chunk{
			Content:    chunkString,
			PageNumber: pageNumber,
			ChunkID:    i + 1,
		})
	}
	return chunks
}
