// Package insights asks a generative model for strategic observations on TAP completion statistics.
package insights

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"google.golang.org/genai"

	"github.com/ftad-ncr/tapmonitor/core"
	"github.com/ftad-ncr/tapmonitor/core/stats"
)

const (
	DefaultModel = "gemini-2.5-pro"

	NoInsights      = "No insights generated."
	FailureInsights = "Error generating TA strategic insights."

	systemInstruction = "You are a Senior Technical Assistance Strategist. You analyze TAP (Technical Assistance Plan) " +
		"completion data to provide actionable leadership insights for regional education bureaus."
	temperature = 0.7
)

// ErrDisabled is returned when no model API key is configured.
var ErrDisabled = errors.New("insights are not configured")

// Generator produces text for a prompt.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	temp := float32(temperature)
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       &temp,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

// NewGenerator returns nil (insights disabled) without an API key.
func NewGenerator(ctx context.Context, conf core.InsightsConfig) (Generator, error) {
	if conf.APIKey == "" {
		return nil, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  conf.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, errors.Wrap(err, "creating genai client")
	}
	model := conf.Model
	if model == "" {
		model = DefaultModel
	}
	return &genaiGenerator{client: client, model: model}, nil
}

type Service struct {
	gen    Generator
	logger core.Logger
}

func NewService(gen Generator, logger core.Logger) *Service {
	return &Service{gen: gen, logger: logger}
}

func (svc *Service) Enabled() bool { return svc != nil && svc.gen != nil }

// Prompt renders the analysis request for a report.
func Prompt(r stats.Report) string {
	divisions, _ := json.Marshal(r.Divisions)
	categories, _ := json.Marshal(r.Categories)

	var sb strings.Builder
	sb.WriteString("Analyze this Field Technical Assistance Division (FTAD) data focusing on TAP Finalization.\n\n")
	sb.WriteString("Current Stats:\n")
	fmt.Fprintf(&sb, "- Total TA Requests: %d\n", r.TotalTARequests)
	fmt.Fprintf(&sb, "- Total Accomplished (Finalized): %d\n", r.AccomplishedTAPs)
	fmt.Fprintf(&sb, "- Partially Accomplished: %d\n", r.PartialTAPs)
	fmt.Fprintf(&sb, "- Unaccomplished: %d\n", r.UnaccomplishedTAPs)
	fmt.Fprintf(&sb, "- Accomplishment Percentage: %.1f%%\n", r.ResolutionRate)
	fmt.Fprintf(&sb, "- Overall Registry Volume: %d\n\n", r.TotalInterventions)
	fmt.Fprintf(&sb, "Division Engagement:\n%s\n\n", divisions)
	fmt.Fprintf(&sb, "Thematic Focus Areas:\n%s\n\n", categories)
	sb.WriteString("Provide 3-4 professional strategic insights. Focus on 'Finalization Efficiency', " +
		"'Completion Bottlenecks', and 'Service Delivery Quality'.")
	return sb.String()
}

// Generate returns ErrDisabled when unconfigured. Model failures are logged and answered with FailureInsights.
func (svc *Service) Generate(ctx context.Context, r stats.Report) (string, error) {
	if !svc.Enabled() {
		return "", ErrDisabled
	}
	text, err := svc.gen.Generate(ctx, systemInstruction, Prompt(r))
	if err != nil {
		svc.logger.Error("generating insights", err)
		return FailureInsights, nil
	}
	if strings.TrimSpace(text) == "" {
		return NoInsights, nil
	}
	return text, nil
}
