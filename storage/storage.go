// Package storage persists benchmark results and run progress as JSON files
// and exports CSV summaries for downstream reporting.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/datar-psa/mathverify/api"
)

// Result is one graded question: the question, the raw model response,
// timing, and the verification verdict. The verification field names are
// stable and read by downstream aggregation.
type Result struct {
	QuestionID      string  `json:"question_id"`
	Category        string  `json:"category"`
	QuestionText    string  `json:"question_text"`
	ExpectedAnswer  string  `json:"expected_answer"`
	AlternateAnswer string  `json:"alternate_answer,omitempty"`
	Response        string  `json:"llm_response"`
	ProcessingTime  float64 `json:"processing_time"`
	Timestamp       string  `json:"timestamp"`
	Success         bool    `json:"success"`
	ErrorMessage    string  `json:"error_message,omitempty"`
	ModelUsed       string  `json:"model_used"`

	Verification *api.Verification `json:"verification,omitempty"`
}

// Metadata summarizes a results file.
type Metadata struct {
	Created             string `json:"created"`
	RunID               string `json:"run_id,omitempty"`
	TotalQuestions      int    `json:"total_questions"`
	ProcessedQuestions  int    `json:"processed_questions"`
	SuccessfulResponses int    `json:"successful_responses"`
	FailedResponses     int    `json:"failed_responses"`
}

type resultsFile struct {
	Metadata Metadata `json:"metadata"`
	Results  []Result `json:"results"`
}

type progressFile struct {
	ProcessedIDs []string `json:"processed_ids"`
	SkippedIDs   []string `json:"skipped_ids"`
	LastUpdated  string   `json:"last_updated"`
}

// Store manages the results and progress files inside one data directory.
type Store struct {
	dir          string
	resultsPath  string
	progressPath string
}

// NewStore creates (if needed) the data directory and its files.
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	s := &Store{
		dir:          dir,
		resultsPath:  filepath.Join(dir, "results.json"),
		progressPath: filepath.Join(dir, "progress.json"),
	}
	if _, err := os.Stat(s.resultsPath); os.IsNotExist(err) {
		initial := resultsFile{Metadata: Metadata{Created: time.Now().Format(time.RFC3339)}}
		if err := writeJSONAtomic(s.resultsPath, initial); err != nil {
			return nil, err
		}
	}
	if _, err := os.Stat(s.progressPath); os.IsNotExist(err) {
		if err := writeJSONAtomic(s.progressPath, progressFile{}); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Dir returns the data directory.
func (s *Store) Dir() string { return s.dir }

// writeJSONAtomic writes via a temp file and rename so a crash mid-write
// never corrupts the results file.
func writeJSONAtomic(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", filepath.Base(tmp), err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}

func (s *Store) readResults() (*resultsFile, error) {
	raw, err := os.ReadFile(s.resultsPath)
	if err != nil {
		return nil, fmt.Errorf("read results: %w", err)
	}
	var rf resultsFile
	if err := json.Unmarshal(raw, &rf); err != nil {
		return nil, fmt.Errorf("parse results: %w", err)
	}
	return &rf, nil
}

func (s *Store) readProgress() (*progressFile, error) {
	raw, err := os.ReadFile(s.progressPath)
	if err != nil {
		return nil, fmt.Errorf("read progress: %w", err)
	}
	var pf progressFile
	if err := json.Unmarshal(raw, &pf); err != nil {
		return nil, fmt.Errorf("parse progress: %w", err)
	}
	return &pf, nil
}

// SetRunID records the run identifier in the results metadata.
func (s *Store) SetRunID(runID string) error {
	rf, err := s.readResults()
	if err != nil {
		return err
	}
	rf.Metadata.RunID = runID
	return writeJSONAtomic(s.resultsPath, rf)
}

// Append stores one result and marks its question processed.
func (s *Store) Append(result Result) error {
	rf, err := s.readResults()
	if err != nil {
		return err
	}

	rf.Results = append(rf.Results, result)
	rf.Metadata.ProcessedQuestions = len(rf.Results)
	if result.Success {
		rf.Metadata.SuccessfulResponses++
	} else {
		rf.Metadata.FailedResponses++
	}
	if err := writeJSONAtomic(s.resultsPath, rf); err != nil {
		return err
	}

	return s.markProcessed(result.QuestionID)
}

// Results returns all stored results.
func (s *Store) Results() ([]Result, error) {
	rf, err := s.readResults()
	if err != nil {
		return nil, err
	}
	return rf.Results, nil
}

// ReplaceResults rewrites every stored result, keeping metadata counters in
// step. Used by re-verification, which recomputes verdicts in place.
func (s *Store) ReplaceResults(results []Result) error {
	rf, err := s.readResults()
	if err != nil {
		return err
	}
	rf.Results = results
	rf.Metadata.ProcessedQuestions = len(results)
	rf.Metadata.SuccessfulResponses = 0
	rf.Metadata.FailedResponses = 0
	for _, r := range results {
		if r.Success {
			rf.Metadata.SuccessfulResponses++
		} else {
			rf.Metadata.FailedResponses++
		}
	}
	return writeJSONAtomic(s.resultsPath, rf)
}

// SetTotalQuestions records the size of the bank being processed.
func (s *Store) SetTotalQuestions(n int) error {
	rf, err := s.readResults()
	if err != nil {
		return err
	}
	rf.Metadata.TotalQuestions = n
	return writeJSONAtomic(s.resultsPath, rf)
}

func (s *Store) markProcessed(questionID string) error {
	pf, err := s.readProgress()
	if err != nil {
		return err
	}
	for _, id := range pf.ProcessedIDs {
		if id == questionID {
			return nil
		}
	}
	pf.ProcessedIDs = append(pf.ProcessedIDs, questionID)
	pf.LastUpdated = time.Now().Format(time.RFC3339)
	return writeJSONAtomic(s.progressPath, pf)
}

// MarkSkipped records a question as deliberately skipped.
func (s *Store) MarkSkipped(questionID string) error {
	pf, err := s.readProgress()
	if err != nil {
		return err
	}
	for _, id := range pf.SkippedIDs {
		if id == questionID {
			return nil
		}
	}
	pf.SkippedIDs = append(pf.SkippedIDs, questionID)
	pf.LastUpdated = time.Now().Format(time.RFC3339)
	return writeJSONAtomic(s.progressPath, pf)
}

// SeenIDs returns the union of processed and skipped question IDs, used to
// resume an interrupted run.
func (s *Store) SeenIDs() (map[string]bool, error) {
	pf, err := s.readProgress()
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool, len(pf.ProcessedIDs)+len(pf.SkippedIDs))
	for _, id := range pf.ProcessedIDs {
		seen[id] = true
	}
	for _, id := range pf.SkippedIDs {
		seen[id] = true
	}
	return seen, nil
}

// Tally counts verification outcomes across stored results.
type Tally struct {
	Total          int
	Correct        int
	Incorrect      int
	Unverifiable   int
	Errors         int
	ResponseErrors int
}

// Accuracy is correct over verified (correct + incorrect); unverifiable and
// errored items do not count against the model.
func (t Tally) Accuracy() float64 {
	verified := t.Correct + t.Incorrect
	if verified == 0 {
		return 0
	}
	return float64(t.Correct) / float64(verified)
}

// Tally aggregates the stored verification verdicts.
func (s *Store) Tally() (Tally, error) {
	results, err := s.Results()
	if err != nil {
		return Tally{}, err
	}
	var t Tally
	for _, r := range results {
		t.Total++
		if !r.Success {
			t.ResponseErrors++
			continue
		}
		if r.Verification == nil {
			continue
		}
		switch r.Verification.VerificationStatus {
		case api.StatusCorrect:
			t.Correct++
		case api.StatusIncorrect:
			t.Incorrect++
		case api.StatusUnverifiable:
			t.Unverifiable++
		case api.StatusError:
			t.Errors++
		}
	}
	return t, nil
}

var csvColumns = []string{
	"question_id", "category", "model_used", "processing_time",
	"expected_answer", "extracted_answer", "extraction_method",
	"extraction_confidence", "extracted_type", "expected_type",
	"is_correct", "comparison_confidence", "match_type", "matched_answer",
	"verification_status",
}

// ExportCSV writes one row per stored result for spreadsheet analysis.
func (s *Store) ExportCSV(w io.Writer) error {
	results, err := s.Results()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return fmt.Errorf("write CSV header: %w", err)
	}
	for _, r := range results {
		row := []string{
			r.QuestionID, r.Category, r.ModelUsed,
			strconv.FormatFloat(r.ProcessingTime, 'f', 3, 64),
			r.ExpectedAnswer,
		}
		if v := r.Verification; v != nil {
			row = append(row,
				v.ExtractedAnswer, v.ExtractionMethod,
				strconv.FormatFloat(v.ExtractionConfidence, 'f', 2, 64),
				string(v.ExtractedType), string(v.ExpectedType),
				strconv.FormatBool(v.IsCorrect),
				strconv.FormatFloat(v.ComparisonConfidence, 'f', 4, 64),
				v.MatchType, v.MatchedAnswer, v.VerificationStatus,
			)
		} else {
			row = append(row, "", "", "", "", "", "false", "", "", "", "")
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write CSV row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
