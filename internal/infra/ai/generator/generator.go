package generator

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	domai "github.com/bryanwahyu/domain-intel/internal/domain/ai"
	"github.com/bryanwahyu/domain-intel/internal/domain/analysis"
	"github.com/bryanwahyu/domain-intel/internal/domain/report"
	"github.com/bryanwahyu/domain-intel/internal/infra/ai/prompt"
)

// Generator builds the report prompt, calls the model once and decodes the
// reply against the report schema.
type Generator struct {
	Client domai.Client
	Log    *zap.Logger
}

var _ analysis.ReportGenerator = (*Generator)(nil)

func New(client domai.Client, log *zap.Logger) *Generator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Generator{Client: client, Log: log}
}

func (g *Generator) Generate(ctx context.Context, domain string, data *analysis.ScrapedData) (*report.Report, error) {
	raw, err := g.Client.Complete(ctx, prompt.ReportSystemPrompt(), prompt.ReportUserPrompt(domain, data))
	if err != nil {
		return nil, fmt.Errorf("generate report: %w", err)
	}
	r, err := report.Decode(raw)
	if err != nil {
		g.Log.Warn("llm reply rejected",
			zap.String("domain", domain),
			zap.Int("reply_bytes", len(raw)),
			zap.Error(err),
		)
		return nil, err
	}
	return r, nil
}
