package mcpserver

import (
	"bytes"
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/panbanda/recruitsim/internal/output"
	"github.com/panbanda/recruitsim/pkg/models"
	"github.com/panbanda/recruitsim/pkg/session"
)

// DistributionInput is the input of build_distribution.
type DistributionInput struct {
	Counts []int  `json:"counts" jsonschema:"Observed or expected patients recruited per site, one non-negative integer per site."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

// SimulateInput is the input of simulate_recruitment.
type SimulateInput struct {
	Counts []int  `json:"counts,omitempty" jsonschema:"Patients per site. Omit to reuse the sample from the last build_distribution call."`
	Sites  int    `json:"sites,omitempty" jsonschema:"Number of sites in the planned study. Defaults to the configured study size."`
	Goal   *int   `json:"goal,omitempty" jsonschema:"Target total patient count to reach or exceed. Defaults to the configured goal."`
	Trials int    `json:"trials,omitempty" jsonschema:"Number of simulated studies. Default 100000."`
	Seed   uint64 `json:"seed,omitempty" jsonschema:"Random seed for a reproducible run. 0 picks a random seed."`
	Format string `json:"format,omitempty" jsonschema:"Output format: toon (default), json, or markdown."`
}

func getFormat(format string) output.Format {
	switch format {
	case "json":
		return output.FormatJSON
	case "markdown", "md":
		return output.FormatMarkdown
	default:
		return output.FormatTOON
	}
}

// formatOutput renders r for a tool response. Markdown uses the renderable's
// own layout; the structured formats serialize its data.
func formatOutput(r output.Renderable, format output.Format) (string, error) {
	if format == output.FormatMarkdown {
		var buf bytes.Buffer
		if err := r.RenderMarkdown(&buf); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
	return output.Marshal(format, r.RenderData())
}

func toolResult(r output.Renderable, format output.Format) (*mcp.CallToolResult, any, error) {
	text, err := formatOutput(r, format)
	if err != nil {
		return nil, nil, err
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, nil, nil
}

func toolError(msg string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + msg},
		},
		IsError: true,
	}, nil, nil
}

// describeError turns a core error into a message for the calling model.
func describeError(err error) string {
	if errors.Is(err, models.ErrDistributionConsistency) {
		return "internal error: " + err.Error()
	}
	return err.Error()
}

// Tool handlers

func (s *Server) handleBuildDistribution(ctx context.Context, req *mcp.CallToolRequest, input DistributionInput) (*mcp.CallToolResult, any, error) {
	if len(input.Counts) == 0 {
		return toolError("counts is required: provide patients per site")
	}

	dist, err := s.svc.BuildDistribution(ctx, input.Counts)
	if err != nil {
		return toolError(describeError(err))
	}
	return toolResult(output.NewDistributionView(dist), getFormat(input.Format))
}

func (s *Server) handleSimulateRecruitment(ctx context.Context, req *mcp.CallToolRequest, input SimulateInput) (*mcp.CallToolResult, any, error) {
	request := s.svc.NewRequest(input.Counts)
	if len(input.Counts) == 0 && s.svc.State() == session.Validated {
		// The last validated sample wins over the configured one.
		request.Counts = nil
	}
	if input.Sites != 0 {
		request.Sites = input.Sites
	}
	if input.Goal != nil {
		request.Goal = *input.Goal
	}
	if input.Trials != 0 {
		request.Trials = input.Trials
	}
	if input.Seed != 0 {
		request.Seed = input.Seed
	}

	result, err := s.svc.Simulate(ctx, request)
	if err != nil {
		return toolError(describeError(err))
	}

	width := s.svc.Config().Output.HistogramWidth
	return toolResult(output.NewSimulationReport(result.Distribution, result, width), getFormat(input.Format))
}
