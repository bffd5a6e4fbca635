package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const sampleXML = `<?xml version="1.0" encoding="UTF-8"?>
<problem_set name="algebra_basics" total_problems="3">
  <metadata>
    <description>Basic algebra drills</description>
    <topics>algebra</topics>
    <categories>
      <category name="derivatives" count="2"/>
      <category name="arithmetic" count="1"/>
    </categories>
  </metadata>
  <problem id="q1" category="derivatives">
    <question>Differentiate f(x) = 3x^2 + 2x.</question>
    <answer>f'(x) = 6x + 2</answer>
  </problem>
  <problem id="q2" category="arithmetic">
    <question>What is 1/2 + 1/4?</question>
    <answer>3/4</answer>
    <alternate_answer>0.75</alternate_answer>
  </problem>
  <problem id="q3" category="arithmetic">
    <question>   </question>
    <answer>42</answer>
  </problem>
</problem_set>
`

func TestParseXML(t *testing.T) {
	bank, err := ParseXML([]byte(sampleXML))
	if err != nil {
		t.Fatalf("ParseXML: %v", err)
	}

	if bank.Name != "algebra_basics" {
		t.Errorf("Name = %q", bank.Name)
	}
	if bank.TotalProblems != 3 {
		t.Errorf("TotalProblems = %d, want 3", bank.TotalProblems)
	}
	// q3 has an empty question and is skipped.
	if len(bank.Questions) != 2 {
		t.Fatalf("len(Questions) = %d, want 2", len(bank.Questions))
	}

	q1 := bank.Questions[0]
	if q1.ID != "q1" || q1.Category != "derivatives" {
		t.Errorf("q1 = %+v", q1)
	}
	if q1.Answer != "f'(x) = 6x + 2" {
		t.Errorf("q1.Answer = %q", q1.Answer)
	}

	q2 := bank.Questions[1]
	if q2.AlternateAnswer != "0.75" {
		t.Errorf("q2.AlternateAnswer = %q", q2.AlternateAnswer)
	}

	if len(bank.Metadata.Categories) != 2 || bank.Metadata.Categories[0].Name != "derivatives" {
		t.Errorf("Metadata.Categories = %+v", bank.Metadata.Categories)
	}
}

func TestParseXMLMalformed(t *testing.T) {
	if _, err := ParseXML([]byte("<problem_set><problem>")); err == nil {
		t.Errorf("expected error for malformed XML")
	}
}

func TestLoadXML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bank.xml")
	if err := os.WriteFile(path, []byte(sampleXML), 0o644); err != nil {
		t.Fatal(err)
	}

	bank, err := LoadXML(path)
	if err != nil {
		t.Fatalf("LoadXML: %v", err)
	}
	if len(bank.Questions) != 2 {
		t.Errorf("len(Questions) = %d, want 2", len(bank.Questions))
	}
}

func TestLoadXMLMissingFile(t *testing.T) {
	if _, err := LoadXML(filepath.Join(t.TempDir(), "absent.xml")); err == nil {
		t.Errorf("expected error for missing file")
	}
}

func TestConvertCSV(t *testing.T) {
	csvIn := strings.Join([]string{
		"id,category,question,answer,alternate_answer",
		`q1,arithmetic,"What is 1/2 + 1/4?",3/4,0.75`,
		"q2,algebra,Solve 2x = 10 for x.,x = 5,",
		"q3,algebra,,skipped because empty question,",
	}, "\n")

	var out bytes.Buffer
	if err := ConvertCSV(strings.NewReader(csvIn), &out, "converted"); err != nil {
		t.Fatalf("ConvertCSV: %v", err)
	}

	bank, err := ParseXML(out.Bytes())
	if err != nil {
		t.Fatalf("round-trip parse: %v", err)
	}
	if bank.Name != "converted" {
		t.Errorf("Name = %q", bank.Name)
	}
	if bank.TotalProblems != 2 || len(bank.Questions) != 2 {
		t.Fatalf("questions = %d (total %d), want 2", len(bank.Questions), bank.TotalProblems)
	}
	if bank.Questions[0].AlternateAnswer != "0.75" {
		t.Errorf("alternate answer lost: %+v", bank.Questions[0])
	}
	if bank.Questions[1].Answer != "x = 5" {
		t.Errorf("q2.Answer = %q", bank.Questions[1].Answer)
	}
}

func TestConvertCSVColumnOrderIndependent(t *testing.T) {
	csvIn := strings.Join([]string{
		"answer,question,id,category",
		"42,What is 6*7?,q1,arithmetic",
	}, "\n")

	var out bytes.Buffer
	if err := ConvertCSV(strings.NewReader(csvIn), &out, "reordered"); err != nil {
		t.Fatalf("ConvertCSV: %v", err)
	}
	bank, err := ParseXML(out.Bytes())
	if err != nil {
		t.Fatalf("round-trip parse: %v", err)
	}
	if len(bank.Questions) != 1 || bank.Questions[0].Answer != "42" {
		t.Errorf("questions = %+v", bank.Questions)
	}
}

func TestConvertCSVMissingColumn(t *testing.T) {
	csvIn := "id,category,question\nq1,arithmetic,incomplete"
	if err := ConvertCSV(strings.NewReader(csvIn), &bytes.Buffer{}, "bad"); err == nil {
		t.Errorf("expected error for missing answer column")
	}
}
