// Package dataset loads question banks from XML and converts CSV-authored
// banks into the XML form the runner consumes.
package dataset

import (
	"encoding/csv"
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"strings"
)

// Question is one problem from a bank: a prompt, its canonical answer, and
// optionally a second accepted answer literal.
type Question struct {
	ID              string `xml:"id,attr"`
	Category        string `xml:"category,attr"`
	Text            string `xml:"question"`
	Answer          string `xml:"answer"`
	AlternateAnswer string `xml:"alternate_answer,omitempty"`
}

// Bank is a parsed question bank.
type Bank struct {
	XMLName       xml.Name   `xml:"problem_set"`
	Name          string     `xml:"name,attr"`
	TotalProblems int        `xml:"total_problems,attr"`
	Metadata      Metadata   `xml:"metadata"`
	Questions     []Question `xml:"problem"`
}

// Metadata describes a bank; all fields are optional.
type Metadata struct {
	Description string     `xml:"description,omitempty"`
	Topics      string     `xml:"topics,omitempty"`
	Categories  []Category `xml:"categories>category,omitempty"`
}

// Category is a per-category question count.
type Category struct {
	Name  string `xml:"name,attr"`
	Count int    `xml:"count,attr"`
}

// LoadXML parses a question bank file. Problems missing a question or an
// answer are skipped rather than failing the whole bank.
func LoadXML(path string) (*Bank, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bank: %w", err)
	}
	return ParseXML(raw)
}

// ParseXML parses question-bank XML bytes.
func ParseXML(raw []byte) (*Bank, error) {
	var bank Bank
	if err := xml.Unmarshal(raw, &bank); err != nil {
		return nil, fmt.Errorf("parse bank XML: %w", err)
	}

	kept := bank.Questions[:0]
	for _, q := range bank.Questions {
		q.Text = strings.TrimSpace(q.Text)
		q.Answer = strings.TrimSpace(q.Answer)
		q.AlternateAnswer = strings.TrimSpace(q.AlternateAnswer)
		if q.Text == "" || q.Answer == "" {
			continue
		}
		kept = append(kept, q)
	}
	bank.Questions = kept

	return &bank, nil
}

// csv column layout for authored banks; alternate_answer is optional.
var csvHeader = []string{"id", "category", "question", "answer", "alternate_answer"}

// ConvertCSV reads an authored CSV bank and writes its XML form. The CSV
// must carry a header row naming at least id, category, question, answer.
func ConvertCSV(r io.Reader, w io.Writer, bankName string) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return fmt.Errorf("read CSV header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, required := range csvHeader[:4] {
		if _, ok := cols[required]; !ok {
			return fmt.Errorf("CSV header is missing column %q", required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	bank := Bank{Name: bankName}
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read CSV record: %w", err)
		}
		q := Question{
			ID:              field(record, "id"),
			Category:        field(record, "category"),
			Text:            field(record, "question"),
			Answer:          field(record, "answer"),
			AlternateAnswer: field(record, "alternate_answer"),
		}
		if q.Text == "" || q.Answer == "" {
			continue
		}
		bank.Questions = append(bank.Questions, q)
	}
	bank.TotalProblems = len(bank.Questions)

	out, err := xml.MarshalIndent(bank, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bank XML: %w", err)
	}
	if _, err := w.Write([]byte(xml.Header)); err != nil {
		return fmt.Errorf("write bank XML: %w", err)
	}
	if _, err := w.Write(append(out, '\n')); err != nil {
		return fmt.Errorf("write bank XML: %w", err)
	}
	return nil
}
