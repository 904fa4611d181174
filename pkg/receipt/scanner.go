package receipt

import (
	"context"
	"fmt"
	"strings"

	"github.com/pennywise/pennywise/internal/errs"
	log "github.com/sirupsen/logrus"
	"google.golang.org/genai"
)

// ContentGenerator is the part of the genai client the scanner needs. *genai.Models satisfies it.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Scanner interface {
	Scan(ctx context.Context, image []byte, mimeType string) (Receipt, error)
}

type GeminiScanner struct {
	generator ContentGenerator
	model     string
}

func NewGeminiScanner(generator ContentGenerator, model string) *GeminiScanner {
	return &GeminiScanner{generator: generator, model: model}
}

var prompt = `Analyze this receipt image and extract the following information in JSON format:
- Total amount (just the number)
- Date (in ISO format)
- Description or items purchased (brief summary)
- Merchant/store name
- Suggested category (one of: ` + strings.Join(ExpenseCategories, ",") + `)

Only respond with valid JSON in this exact format:
{
  "amount": number,
  "date": "ISO date string",
  "description": "string",
  "merchantName": "string",
  "category": "string"
}

If it is not a receipt, return an empty object`

func (s *GeminiScanner) Scan(ctx context.Context, image []byte, mimeType string) (Receipt, error) {
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(image, mimeType),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{ResponseMIMEType: "application/json"}

	resp, err := s.generator.GenerateContent(ctx, s.model, contents, config)
	if err != nil {
		return Receipt{}, fmt.Errorf("failed to call %s: %w", s.model, err)
	}
	text, err := responseText(resp)
	if err != nil {
		return Receipt{}, err
	}
	log.Tracef("receipt scan answer: %s", text)

	receipt, err := Parse(text)
	if err != nil {
		log.Warnf("could not use receipt scan answer: %v", err)
		return Receipt{}, err
	}
	return receipt, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty answer from the model: %w", errs.ErrInvalidExternalResponse)
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
