// Package nlp analyzes and normalizes transcript text: content metrics,
// entity extraction, quality issues, and readability enhancement.
package nlp

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	prose "github.com/jdkato/prose/v2"
)

// Metrics summarizes the shape of a transcript.
type Metrics struct {
	SentenceCount       int     `json:"sentence_count"`
	WordCount           int     `json:"word_count"`
	AvgWordsPerSentence float64 `json:"avg_words_per_sentence"`
}

// WordCount is one entry of the frequency table.
type WordCount struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Entity is a named entity with byte offsets into the analyzed text.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"`
	Start int    `json:"start"`
	End   int    `json:"end"`
}

// Analysis is the content analysis for one transcript.
type Analysis struct {
	Metrics       Metrics     `json:"metrics"`
	FrequentWords []WordCount `json:"frequent_words"`
	Entities      []Entity    `json:"entities"`
	QualityIssues []string    `json:"quality_issues"`
}

// EnhancedTranscript bundles the original text with its enhanced form and
// the full content analysis.
type EnhancedTranscript struct {
	EnhancedText        string   `json:"enhanced_text"`
	OriginalText        string   `json:"original_text"`
	EnhancementWarnings []string `json:"enhancement_warnings"`
	ContentAnalysis     Analysis `json:"content_analysis"`
	QualityScore        float64  `json:"quality_score"`
}

// Analyzer runs linguistic analysis over transcript text.
type Analyzer struct{}

func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze computes sentence/word metrics, a top-10 frequency table over
// non-stopword tokens, named entities, and structural quality issues.
func (a *Analyzer) Analyze(text string) (Analysis, error) {
	if strings.TrimSpace(text) == "" {
		return analyzeEmpty(), nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return Analysis{}, fmt.Errorf("failed to analyze transcript: %w", err)
	}
	return analyzeDoc(doc, text), nil
}

// Enhance normalizes the transcript for readability: sentence starts are
// capitalized, terminal punctuation is appended when missing, and long
// transcripts are regrouped into paragraphs. All fixes operate on one
// corrected sentence list, so capitalization survives paragraph regrouping.
// Well-formed text comes back byte-identical.
func (a *Analyzer) Enhance(text string) (string, []string, error) {
	if strings.TrimSpace(text) == "" {
		return text, []string{}, nil
	}

	doc, err := prose.NewDocument(text, prose.WithTagging(false), prose.WithExtraction(false))
	if err != nil {
		return text, nil, fmt.Errorf("failed to enhance transcript: %w", err)
	}
	enhanced, warnings := enhanceDoc(doc, text)
	return enhanced, warnings, nil
}

// AnalyzeAndEnhance runs analysis and enhancement over a single parsed
// document and bundles the results with the overall linguistic score.
func (a *Analyzer) AnalyzeAndEnhance(text string) (*EnhancedTranscript, error) {
	if strings.TrimSpace(text) == "" {
		analysis := analyzeEmpty()
		return &EnhancedTranscript{
			EnhancedText:        text,
			OriginalText:        text,
			EnhancementWarnings: []string{},
			ContentAnalysis:     analysis,
			QualityScore:        ScoreAnalysis(analysis),
		}, nil
	}

	doc, err := prose.NewDocument(text)
	if err != nil {
		return nil, fmt.Errorf("failed to process transcript: %w", err)
	}

	analysis := analyzeDoc(doc, text)
	enhanced, warnings := enhanceDoc(doc, text)

	return &EnhancedTranscript{
		EnhancedText:        enhanced,
		OriginalText:        text,
		EnhancementWarnings: warnings,
		ContentAnalysis:     analysis,
		QualityScore:        ScoreAnalysis(analysis),
	}, nil
}

// ScoreAnalysis reduces an analysis to a 0..1 linguistic quality score.
func ScoreAnalysis(analysis Analysis) float64 {
	score := 1.0
	metrics := analysis.Metrics

	score -= float64(len(analysis.QualityIssues)) * 0.1

	switch {
	case metrics.WordCount < 20:
		score -= 0.2
	case metrics.WordCount < 50:
		score -= 0.1
	}

	if metrics.SentenceCount == 0 {
		score -= 0.3
	} else if metrics.AvgWordsPerSentence > 40 {
		score -= 0.2
	}

	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

func analyzeEmpty() Analysis {
	return Analysis{
		FrequentWords: []WordCount{},
		Entities:      []Entity{},
		QualityIssues: []string{"No complete sentences detected", "Very short response"},
	}
}

func analyzeDoc(doc *prose.Document, text string) Analysis {
	analysis := Analysis{
		FrequentWords: []WordCount{},
		Entities:      []Entity{},
		QualityIssues: []string{},
	}

	sentenceCount := len(doc.Sentences())

	// Frequency table over case-folded non-stopword tokens, kept in
	// first-seen order so ties resolve deterministically.
	freq := map[string]int{}
	var order []string
	wordCount := 0
	for _, tok := range doc.Tokens() {
		t := strings.TrimSpace(tok.Text)
		if t == "" || isPunct(t) {
			continue
		}
		wordCount++
		lower := strings.ToLower(t)
		if stopwords[lower] {
			continue
		}
		if _, seen := freq[lower]; !seen {
			order = append(order, lower)
		}
		freq[lower]++
	}

	analysis.Metrics.SentenceCount = sentenceCount
	analysis.Metrics.WordCount = wordCount
	if sentenceCount > 0 {
		analysis.Metrics.AvgWordsPerSentence = float64(wordCount) / float64(sentenceCount)
	}

	analysis.FrequentWords = topFrequencies(order, freq, 10)

	pos := 0
	for _, ent := range doc.Entities() {
		idx := strings.Index(text[pos:], ent.Text)
		if idx < 0 {
			continue
		}
		start := pos + idx
		end := start + len(ent.Text)
		analysis.Entities = append(analysis.Entities, Entity{
			Text:  ent.Text,
			Label: ent.Label,
			Start: start,
			End:   end,
		})
		pos = end
	}

	if sentenceCount == 0 {
		analysis.QualityIssues = append(analysis.QualityIssues, "No complete sentences detected")
	} else if sentenceCount == 1 && wordCount > 50 {
		analysis.QualityIssues = append(analysis.QualityIssues, "Long text without proper sentence breaks")
	}
	if wordCount < 10 {
		analysis.QualityIssues = append(analysis.QualityIssues, "Very short response")
	}
	for _, wc := range analysis.FrequentWords {
		if float64(wc.Count) > float64(wordCount)*0.1 {
			analysis.QualityIssues = append(analysis.QualityIssues,
				fmt.Sprintf("Frequent repetition of word '%s'", wc.Word))
		}
	}

	return analysis
}

func topFrequencies(order []string, freq map[string]int, n int) []WordCount {
	counts := make([]WordCount, 0, len(order))
	for _, w := range order {
		counts = append(counts, WordCount{Word: w, Count: freq[w]})
	}
	// Stable sort by count keeps first-seen order among ties.
	for i := 1; i < len(counts); i++ {
		for j := i; j > 0 && counts[j].Count > counts[j-1].Count; j-- {
			counts[j], counts[j-1] = counts[j-1], counts[j]
		}
	}
	if len(counts) > n {
		counts = counts[:n]
	}
	return counts
}

func enhanceDoc(doc *prose.Document, text string) (string, []string) {
	warnings := []string{}
	trimmed := strings.TrimSpace(text)

	sents := make([]string, 0, len(doc.Sentences()))
	for _, s := range doc.Sentences() {
		if t := strings.TrimSpace(s.Text); t != "" {
			sents = append(sents, t)
		}
	}
	if len(sents) == 0 {
		return text, warnings
	}

	changed := false
	for i := range sents {
		r, size := utf8.DecodeRuneInString(sents[i])
		if unicode.IsLower(r) {
			sents[i] = string(unicode.ToUpper(r)) + sents[i][size:]
			changed = true
		}
	}

	last, _ := utf8.DecodeLastRuneInString(trimmed)
	if !strings.ContainsRune(".!?", last) {
		sents[len(sents)-1] += "."
		warnings = append(warnings, "Added missing sentence-ending punctuation")
		changed = true
	}

	// Paragraph regrouping replaces the text structure, consuming the
	// corrected sentences so earlier fixes survive.
	if len(sents) > 5 {
		return joinParagraphs(sents, 3), warnings
	}
	if !changed {
		return text, warnings
	}
	return strings.Join(sents, " "), warnings
}

func joinParagraphs(sents []string, perParagraph int) string {
	var paragraphs []string
	for start := 0; start < len(sents); start += perParagraph {
		end := start + perParagraph
		if end > len(sents) {
			end = len(sents)
		}
		paragraphs = append(paragraphs, strings.Join(sents[start:end], " "))
	}
	return strings.Join(paragraphs, "\n\n")
}

func isPunct(s string) bool {
	for _, r := range s {
		if !unicode.IsPunct(r) && !unicode.IsSymbol(r) {
			return false
		}
	}
	return true
}
