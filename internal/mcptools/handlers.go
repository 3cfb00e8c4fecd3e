package mcptools

import (
	"context"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/dusk-indust/reaict/internal/pipeline"
	"github.com/dusk-indust/reaict/internal/rewrite"
	"github.com/dusk-indust/reaict/internal/syntax"
)

// Transformer is the part of pipeline.Transformer the tools need.
type Transformer interface {
	Include(filename string) bool
	Transform(ctx context.Context, filename string, src []byte) (*pipeline.Result, error)
	Detect(ctx context.Context, filename string, src []byte) ([]syntax.Candidate, error)
}

// RewriteService handles MCP tool calls for component rewriting.
type RewriteService struct {
	transformer Transformer
}

// NewRewriteService creates a RewriteService backed by t.
func NewRewriteService(t Transformer) *RewriteService {
	return &RewriteService{transformer: t}
}

// OptimizeComponent rewrites the components of one file.
func (s *RewriteService) OptimizeComponent(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input OptimizeComponentInput,
) (*mcp.CallToolResult, OptimizeComponentOutput, error) {
	if input.Filename == "" {
		return nil, OptimizeComponentOutput{}, fmt.Errorf("filename is required")
	}
	if !s.transformer.Include(input.Filename) {
		return nil, OptimizeComponentOutput{Code: input.Code, Outcomes: []CandidateOutcome{}}, nil
	}

	res, err := s.transformer.Transform(ctx, input.Filename, []byte(input.Code))
	if err != nil {
		var terr *pipeline.TransformError
		if errors.As(err, &terr) {
			return nil, OptimizeComponentOutput{
				Code:     input.Code,
				Outcomes: toOutcomes(terr.Outcomes),
			}, err
		}
		return nil, OptimizeComponentOutput{}, err
	}

	out := OptimizeComponentOutput{
		Code:     res.Code,
		Changed:  res.Changed,
		Binding:  res.Binding,
		Outcomes: toOutcomes(res.Outcomes),
	}
	if res.Code == "" {
		out.Code = input.Code
	}
	return nil, out, nil
}

// DetectComponents lists the rewrite candidates of one file without calling
// the text-generation service.
func (s *RewriteService) DetectComponents(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DetectComponentsInput,
) (*mcp.CallToolResult, DetectComponentsOutput, error) {
	cands, err := s.transformer.Detect(ctx, input.Filename, []byte(input.Code))
	if err != nil {
		return nil, DetectComponentsOutput{}, fmt.Errorf("detect components: %w", err)
	}

	out := DetectComponentsOutput{Components: make([]Component, 0, len(cands))}
	for _, c := range cands {
		out.Components = append(out.Components, Component{
			Name:      c.Name,
			StartLine: c.StartLine,
			Source:    c.Text,
		})
	}
	return nil, out, nil
}

func toOutcomes(outcomes []rewrite.Outcome) []CandidateOutcome {
	result := make([]CandidateOutcome, 0, len(outcomes))
	for _, o := range outcomes {
		co := CandidateOutcome{
			Name:     o.Name,
			Status:   string(o.Status),
			Attempts: o.Attempts,
		}
		if o.Err != nil {
			co.Error = o.Err.Error()
		}
		result = append(result, co)
	}
	return result
}
