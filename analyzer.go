package nutrition

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
)

var ErrAnalysis = errors.New("meal analysis failed")

// Image is an uploaded meal photo
type Image struct {
	ID          string `json:"id"`
	ContentType string `json:"contentType"`
	Data        []byte `json:"-"`
}

// DataURL encodes the image inline as a data URL
func (i *Image) DataURL() string {
	return fmt.Sprintf("data:%s;base64,%s", i.ContentType, base64.StdEncoding.EncodeToString(i.Data))
}

// Analysis is the nutrition estimate for a single serving in a photo
type Analysis struct {
	Name     string  `json:"name"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Entry returns the meal fields for the analysis
func (a *Analysis) Entry(imageURL string) *MealEntry {
	return &MealEntry{
		Name:     a.Name,
		Calories: int(math.Round(a.Calories)),
		Protein:  a.Protein,
		Carbs:    a.Carbs,
		Fats:     a.Fats,
		ImageURL: imageURL,
		Source:   Photo,
	}
}

// ImageAnalyzer estimates the nutrition of the food in an image
type ImageAnalyzer interface {
	Analyze(ctx context.Context, img *Image) (*Analysis, error)
}

const systemPrompt = `You are a nutrition expert analyzing food images. Your task is to:
1. Identify the food items in the image
2. Provide realistic nutritional estimates for a single serving
3. Return ONLY a JSON object with these exact fields:
   - name: Brief description of the food (string)
   - calories: Total calories (number between %g-%g)
   - protein: Grams of protein (number between %g-%g)
   - carbs: Grams of carbohydrates (number between %g-%g)
   - fats: Grams of fat (number between %g-%g)

Round all numbers to one decimal place. Be conservative with estimates.
IMPORTANT: Return ONLY the JSON object, no additional text or explanation.`

const userPrompt = "What food is in this image? Provide nutritional information in JSON format only."

// VisionAnalyzer asks a multimodal language model to estimate nutrition
type VisionAnalyzer struct {
	llm    llms.Model
	config func() *AnalyzerConfig
}

func NewVisionAnalyzer(llm llms.Model, config func() *AnalyzerConfig) *VisionAnalyzer {
	return &VisionAnalyzer{llm: llm, config: config}
}

func (v *VisionAnalyzer) Analyze(ctx context.Context, img *Image) (*Analysis, error) {
	cfg := v.config()
	system := fmt.Sprintf(systemPrompt,
		cfg.Calories.Min, cfg.Calories.Max,
		cfg.Protein.Min, cfg.Protein.Max,
		cfg.Carbs.Min, cfg.Carbs.Max,
		cfg.Fats.Min, cfg.Fats.Max)
	messages := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, system),
		{
			Role: schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
				llms.ImageURLPart(img.DataURL()),
			},
		},
	}
	log.Info().Str("image", img.ID).Int("bytes", len(img.Data)).Msg("analyze")
	res, err := v.llm.GenerateContent(ctx, messages,
		llms.WithMaxTokens(cfg.MaxTokens),
		llms.WithTemperature(cfg.Temperature))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}
	if len(res.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty response", ErrAnalysis)
	}
	content := res.Choices[0].Content
	log.Debug().Str("image", img.ID).Str("content", content).Msg("analyze")
	return ParseAnalysis(content, cfg)
}

var jsonObject = regexp.MustCompile(`(?s)\{.*\}`)

// ParseAnalysis extracts and validates the JSON analysis in a model reply
func ParseAnalysis(content string, cfg *AnalyzerConfig) (*Analysis, error) {
	content = strings.TrimSpace(content)
	if m := jsonObject.FindString(content); m != "" {
		content = m
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalysis, err)
	}

	var missing []string
	for _, name := range []string{"name", "calories", "protein", "carbs", "fats"} {
		if _, ok := fields[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: missing required fields: %s", ErrAnalysis, strings.Join(missing, ", "))
	}

	var a Analysis
	if err := json.Unmarshal(fields["name"], &a.Name); err != nil {
		return nil, fmt.Errorf("%w: invalid name: %w", ErrAnalysis, err)
	}
	if a.Name = strings.TrimSpace(a.Name); a.Name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrAnalysis)
	}
	for _, x := range []struct {
		name string
		val  *float64
		rng  Range
	}{
		{"calories", &a.Calories, cfg.Calories},
		{"protein", &a.Protein, cfg.Protein},
		{"carbs", &a.Carbs, cfg.Carbs},
		{"fats", &a.Fats, cfg.Fats},
	} {
		val, err := number(fields[x.name])
		if err != nil {
			return nil, fmt.Errorf("%w: invalid numeric value for %s", ErrAnalysis, x.name)
		}
		val = math.Round(val*10) / 10
		if !x.rng.Contains(val) {
			return nil, fmt.Errorf("%w: %s out of reasonable range (%g-%g)", ErrAnalysis, x.name, x.rng.Min, x.rng.Max)
		}
		*x.val = val
	}
	return &a, nil
}

// number accepts a JSON number or a string holding one
func number(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %s", s)
	}
	return f, nil
}
