package worker

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// Verifier verifies a single claim
type Verifier interface {
	Verify(ctx context.Context, claim string, rounds int) (*model.VerdictResult, error)
}

// VerifyJob verifies one claim from a batch
type VerifyJob struct {
	Index    int
	Claim    string
	Rounds   int
	Verifier Verifier
}

// Execute runs the verification
func (j *VerifyJob) Execute(ctx context.Context) Result {
	result, err := j.Verifier.Verify(ctx, j.Claim, j.Rounds)
	return &VerifyResult{
		Index:  j.Index,
		Claim:  j.Claim,
		Result: result,
		Error:  err,
	}
}

// VerifyResult is the outcome of one batch verification
type VerifyResult struct {
	Index  int
	Claim  string
	Result *model.VerdictResult
	Error  error
}

// GetError returns the error from the verification
func (r *VerifyResult) GetError() error {
	return r.Error
}

// BatchProcessor verifies multiple claims concurrently
type BatchProcessor struct {
	verifier    Verifier
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(verifier Verifier, concurrency int) *BatchProcessor {
	return &BatchProcessor{verifier: verifier, concurrency: concurrency}
}

// ProcessClaims verifies claims concurrently and returns results in input
// order
func (b *BatchProcessor) ProcessClaims(ctx context.Context, claims []string, rounds int) []*VerifyResult {
	if len(claims) == 0 {
		return []*VerifyResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for i, claim := range claims {
		pool.Submit(&VerifyJob{
			Index:    i,
			Claim:    claim,
			Rounds:   rounds,
			Verifier: b.verifier,
		})
	}

	results := pool.Wait()

	ordered := make([]*VerifyResult, len(claims))
	for _, result := range results {
		vr := result.(*VerifyResult)
		ordered[vr.Index] = vr
	}
	for i, vr := range ordered {
		if vr == nil {
			// Cancelled before the job ran.
			ordered[i] = &VerifyResult{Index: i, Claim: claims[i], Error: ctx.Err()}
		}
	}

	return ordered
}

// ProcessFile reads claims from a file (one per line) and verifies them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string, rounds int) ([]*VerifyResult, error) {
	claims, err := ReadClaimsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read claims: %w", err)
	}

	return b.ProcessClaims(ctx, claims, rounds), nil
}

// ReadClaimsFromFile reads claims from a file, one per line, skipping blank
// lines, comments, and duplicates
func ReadClaimsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var claims []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key := strings.ToLower(line)
		if !seen[key] {
			seen[key] = true
			claims = append(claims, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return claims, nil
}
