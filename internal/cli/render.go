package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aretw0/ouvidoria/pkg/domain"
	"github.com/aretw0/ouvidoria/pkg/report"
	"gopkg.in/yaml.v3"
)

// ReadRecord loads a complaint record from a YAML file. problem_type may be
// the category name or its menu number.
func ReadRecord(path string) (domain.ComplaintRecord, error) {
	var r domain.ComplaintRecord
	data, err := os.ReadFile(path)
	if err != nil {
		return r, fmt.Errorf("failed to read record: %w", err)
	}
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("failed to parse record: %w", err)
	}

	if n, err := strconv.Atoi(string(r.ProblemType)); err == nil {
		pt, ok := domain.ProblemTypeForChoice(n)
		if !ok {
			return r, fmt.Errorf("problem_type %d is out of range", n)
		}
		r.ProblemType = pt
	}
	valid := false
	for _, pt := range domain.ProblemTypes {
		valid = valid || pt == r.ProblemType
	}
	if !valid {
		return r, fmt.Errorf("unknown problem_type %q", r.ProblemType)
	}
	return r, nil
}

// RenderFile renders the record at path into outDir and returns the written
// file path.
func RenderFile(ctx context.Context, lh report.Letterhead, path, contact, outDir string) (string, error) {
	record, err := ReadRecord(path)
	if err != nil {
		return "", err
	}

	rep, err := report.NewRenderer(report.WithLetterhead(lh)).Render(ctx, record, contact)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	out := filepath.Join(outDir, rep.FileName)
	if err := os.WriteFile(out, rep.Data, 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}
	return out, nil
}
