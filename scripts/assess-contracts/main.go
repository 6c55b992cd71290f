// assess-contracts evaluates how well the embedded table contracts enable
// SQL query generation.
//
// Goal: Rate how confidently an LLM (e.g., Sonnet 4.5) could answer dashboard
// questions by writing BigQuery SQL against the published tables, given only
// what the contracts expose through the assistant's tools.
//
// A score of 100 means:
//   - Every advertised column carries a usable description
//   - Every contract publishes its canonical query and storage layout
//   - Field lists and canonical queries agree with each other
//
// Key factors that reduce the score:
//   - Columns with missing or vacuous descriptions (LLM must guess semantics)
//   - Contracts without a canonical query (LLM cannot see provenance)
//   - Fields advertised in the roadmap that the canonical query never produces
//   - Ambiguous table descriptions (LLM might pick the wrong table)
//
// Usage: go run ./scripts/assess-contracts
//
// Requires: ANTHROPIC_API_KEY environment variable
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"sort"
	"strings"

	"github.com/liushuangls/go-anthropic/v2"
	"go.uber.org/zap"

	"github.com/pulse-labs/pulse-assistant/pkg/catalog"
	"github.com/pulse-labs/pulse-assistant/pkg/llm"
	"github.com/pulse-labs/pulse-assistant/pkg/models"
)

const assessModel = "claude-sonnet-4-5-20250929"

// AssessmentResult contains the full assessment output
type AssessmentResult struct {
	CommitInfo        string              `json:"commit_info"`
	Dataset           string              `json:"dataset"`
	ModelUsed         string              `json:"model_used"`
	FieldCoverage     FieldCoverage       `json:"field_coverage"`
	ContractReviews   []ContractReview    `json:"contract_reviews"`
	TableDisambiguity TableDisambiguation `json:"table_disambiguation"`
	FinalScore        int                 `json:"final_score"`
	FinalAssessment   string              `json:"final_assessment"`
}

// FieldCoverage is the deterministic part of the assessment: structural
// facts about the contracts that need no LLM judgment.
type FieldCoverage struct {
	TotalTables          int      `json:"total_tables"`
	TotalFields          int      `json:"total_fields"`
	UndescribedFields    []string `json:"undescribed_fields"`     // table.column with empty description
	MissingCanonical     []string `json:"missing_canonical"`      // tables without a full query
	UnprovenancedFields  []string `json:"unprovenanced_fields"`   // advertised but absent from the canonical query
	MissingStorageLayout []string `json:"missing_storage_layout"` // tables without partitioning or clustering
	CoverageScore        int      `json:"coverage_score"`         // 0-100
}

// ContractReview is one table's LLM assessment: given only what the
// assistant's tools would surface, can the model write correct SQL?
type ContractReview struct {
	TableName       string   `json:"table_name"`
	ConfidenceLevel string   `json:"confidence_level"` // high/medium/low/very_low
	ConfidenceScore int      `json:"confidence_score"` // 0-100
	StrengthAreas   []string `json:"strength_areas"`   // questions this contract answers well
	WeakAreas       []string `json:"weak_areas"`       // where the LLM might fail
	Recommendations []string `json:"recommendations"`  // what would improve the contract
}

// TableDisambiguation checks whether the roadmap descriptions alone let an
// LLM pick the right table for a question.
type TableDisambiguation struct {
	ConfusablePairs []ConfusablePair `json:"confusable_pairs"`
	ClarityScore    int              `json:"clarity_score"` // 0-100
}

// ConfusablePair is two tables whose descriptions overlap enough that a
// question could plausibly route to either.
type ConfusablePair struct {
	TableA    string `json:"table_a"`
	TableB    string `json:"table_b"`
	Reasoning string `json:"reasoning"`
}

func main() {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "Error: ANTHROPIC_API_KEY environment variable not set")
		os.Exit(1)
	}

	cat, err := catalog.New(zap.NewNop())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load catalog: %v\n", err)
		os.Exit(1)
	}
	contracts := cat.Contracts()

	ctx := context.Background()
	client := anthropic.NewClient(apiKey)

	fmt.Fprintf(os.Stderr, "Assessing %d contracts in dataset %s...\n", len(contracts), cat.Dataset())

	fmt.Fprintln(os.Stderr, "1/3 Computing field coverage...")
	coverage := assessFieldCoverage(contracts)

	fmt.Fprintln(os.Stderr, "2/3 Reviewing contracts with LLM...")
	pool := llm.NewWorkerPool(llm.WorkerPoolConfig{MaxConcurrent: 4}, zap.NewNop())
	items := make([]llm.WorkItem[ContractReview], 0, len(contracts))
	for _, contract := range contracts {
		contract := contract
		items = append(items, llm.WorkItem[ContractReview]{
			ID: contract.Name,
			Execute: func(ctx context.Context) (ContractReview, error) {
				return reviewContract(ctx, client, cat.Dataset(), contract), nil
			},
		})
	}
	results := llm.Process(ctx, pool, items, func(completed, total int) {
		fmt.Fprintf(os.Stderr, "  %d/%d contracts reviewed\n", completed, total)
	})
	reviews := make([]ContractReview, 0, len(results))
	for _, r := range results {
		reviews = append(reviews, r.Result)
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].TableName < reviews[j].TableName })

	fmt.Fprintln(os.Stderr, "3/3 Checking table disambiguation...")
	disambiguation := assessDisambiguation(ctx, client, contracts)

	// Weighted final score. Structural coverage dominates because it is
	// deterministic; the LLM dimensions refine it.
	reviewScore := 0
	for _, r := range reviews {
		reviewScore += r.ConfidenceScore
	}
	if len(reviews) > 0 {
		reviewScore /= len(reviews)
	}
	finalScore := int(
		float64(coverage.CoverageScore)*0.45 +
			float64(reviewScore)*0.35 +
			float64(disambiguation.ClarityScore)*0.20)

	result := AssessmentResult{
		CommitInfo:        getCommitInfo(),
		Dataset:           cat.Dataset(),
		ModelUsed:         assessModel,
		FieldCoverage:     coverage,
		ContractReviews:   reviews,
		TableDisambiguity: disambiguation,
		FinalScore:        finalScore,
		FinalAssessment:   generateFinalAssessment(finalScore, coverage, disambiguation),
	}

	output, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to marshal result: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(output))
}

// assessFieldCoverage computes the structural dimension: descriptions,
// canonical queries, provenance, and storage layout, straight from the
// contracts with no LLM involved.
func assessFieldCoverage(contracts []*models.TableContract) FieldCoverage {
	coverage := FieldCoverage{
		TotalTables:          len(contracts),
		UndescribedFields:    []string{},
		MissingCanonical:     []string{},
		UnprovenancedFields:  []string{},
		MissingStorageLayout: []string{},
	}

	for _, c := range contracts {
		coverage.TotalFields += len(c.Fields)

		for _, f := range c.Fields {
			if strings.TrimSpace(f.Description) == "" {
				coverage.UndescribedFields = append(coverage.UndescribedFields,
					fmt.Sprintf("%s.%s", c.Name, f.Name))
			}
		}

		if strings.TrimSpace(c.CanonicalQuery) == "" {
			coverage.MissingCanonical = append(coverage.MissingCanonical, c.Name)
		} else {
			// A field is provenanced when its name appears in the query
			// that materializes the table. Substring match is deliberately
			// loose; aliases and expressions still count.
			lowerQuery := strings.ToLower(c.CanonicalQuery)
			for _, name := range c.FieldNames() {
				if !strings.Contains(lowerQuery, strings.ToLower(name)) {
					coverage.UnprovenancedFields = append(coverage.UnprovenancedFields,
						fmt.Sprintf("%s.%s", c.Name, name))
				}
			}
		}

		if c.Partitioning == "" && c.Clustering == "" {
			coverage.MissingStorageLayout = append(coverage.MissingStorageLayout, c.Name)
		}
	}

	// Score: start from 100, deduct per defect class.
	score := 100
	score -= 2 * len(coverage.UndescribedFields)
	score -= 10 * len(coverage.MissingCanonical)
	score -= 3 * len(coverage.UnprovenancedFields)
	score -= 5 * len(coverage.MissingStorageLayout)
	if score < 0 {
		score = 0
	}
	coverage.CoverageScore = score

	return coverage
}

// reviewContract asks the LLM to judge one contract in isolation, seeing
// exactly what the assistant's table tool would surface.
func reviewContract(ctx context.Context, client *anthropic.Client, dataset string, contract *models.TableContract) ContractReview {
	var contractText strings.Builder
	contractText.WriteString(fmt.Sprintf("Table: %s.%s\n", dataset, contract.Name))
	contractText.WriteString(fmt.Sprintf("Description: %s\n", contract.Description))
	if contract.SourceTable != "" {
		contractText.WriteString(fmt.Sprintf("Source table: %s\n", contract.SourceTable))
	}
	if contract.Partitioning != "" {
		contractText.WriteString(fmt.Sprintf("Partitioning: %s\n", contract.Partitioning))
	}
	if contract.Clustering != "" {
		contractText.WriteString(fmt.Sprintf("Clustering: %s\n", contract.Clustering))
	}
	if contract.Grouping != "" {
		contractText.WriteString(fmt.Sprintf("Grouping: %s\n", contract.Grouping))
	}
	if len(contract.TimePeriods) > 0 {
		contractText.WriteString(fmt.Sprintf("Time periods: %s\n", strings.Join(contract.TimePeriods, ", ")))
	}
	contractText.WriteString("Columns:\n")
	for _, f := range contract.Fields {
		contractText.WriteString(fmt.Sprintf("  - %s: %s\n", f.Name, f.Description))
	}
	if contract.CanonicalQuery != "" {
		contractText.WriteString("\nCanonical query:\n")
		contractText.WriteString(contract.CanonicalQuery)
		contractText.WriteString("\n")
	}

	prompt := fmt.Sprintf(`You are assessing whether an LLM agent could write correct BigQuery SQL against this published table, given ONLY the information below.

## TABLE CONTRACT
%s

## TASK
Judge how confidently an LLM could answer business questions about this table. Consider: column semantics, the canonical query's provenance, partitioning/clustering hints, and anything ambiguous.

Return JSON:
{
  "confidence_level": "high|medium|low|very_low",
  "confidence_score": 0-100,
  "strength_areas": ["Question shapes this contract supports well"],
  "weak_areas": ["Where the LLM might write incorrect SQL - be specific"],
  "recommendations": ["Concrete contract improvements"]
}

Return ONLY JSON.`, contractText.String())

	review := ContractReview{
		TableName:       contract.Name,
		StrengthAreas:   []string{},
		WeakAreas:       []string{},
		Recommendations: []string{},
	}

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     assessModel,
		MaxTokens: 2000,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		review.ConfidenceLevel = "unknown"
		review.ConfidenceScore = 50 // Default to moderate on error
		review.WeakAreas = []string{fmt.Sprintf("Assessment failed: %v", err)}
		return review
	}

	type reviewPayload struct {
		ConfidenceLevel string   `json:"confidence_level"`
		ConfidenceScore int      `json:"confidence_score"`
		StrengthAreas   []string `json:"strength_areas"`
		WeakAreas       []string `json:"weak_areas"`
		Recommendations []string `json:"recommendations"`
	}
	parsed, err := llm.ParseJSONResponse[reviewPayload](extractTextFromResponse(resp))
	if err != nil {
		review.ConfidenceLevel = "unknown"
		review.ConfidenceScore = 50
		review.WeakAreas = []string{fmt.Sprintf("Parse error: %v", err)}
		return review
	}

	review.ConfidenceLevel = parsed.ConfidenceLevel
	review.ConfidenceScore = parsed.ConfidenceScore
	review.StrengthAreas = parsed.StrengthAreas
	review.WeakAreas = parsed.WeakAreas
	review.Recommendations = parsed.Recommendations
	return review
}

// assessDisambiguation asks the LLM whether the roadmap descriptions alone
// are enough to route a question to the right table.
func assessDisambiguation(ctx context.Context, client *anthropic.Client, contracts []*models.TableContract) TableDisambiguation {
	var roadmap strings.Builder
	for _, c := range contracts {
		roadmap.WriteString(fmt.Sprintf("- %s: %s\n", c.Name, c.Description))
	}

	prompt := fmt.Sprintf(`An LLM agent must pick exactly one table to answer each user question, using only these one-line descriptions:

## TABLE DESCRIPTIONS
%s

## TASK
Identify pairs of tables whose descriptions overlap enough that a reasonable question could route to the wrong one.

Return JSON:
{
  "confusable_pairs": [
    {"table_a": "...", "table_b": "...", "reasoning": "What kind of question would route wrongly"}
  ],
  "clarity_score": 0-100  // Higher = descriptions cleanly separate the tables
}

Return ONLY JSON.`, roadmap.String())

	resp, err := client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model:     assessModel,
		MaxTokens: 2000,
		Messages: []anthropic.Message{
			{Role: anthropic.RoleUser, Content: []anthropic.MessageContent{
				{Type: "text", Text: &prompt},
			}},
		},
	})
	if err != nil {
		return TableDisambiguation{
			ConfusablePairs: []ConfusablePair{},
			ClarityScore:    50,
		}
	}

	parsed, err := llm.ParseJSONResponse[TableDisambiguation](extractTextFromResponse(resp))
	if err != nil {
		return TableDisambiguation{
			ConfusablePairs: []ConfusablePair{},
			ClarityScore:    50,
		}
	}
	if parsed.ConfusablePairs == nil {
		parsed.ConfusablePairs = []ConfusablePair{}
	}
	return parsed
}

func generateFinalAssessment(score int, coverage FieldCoverage, disambiguation TableDisambiguation) string {
	var assessment string

	switch {
	case score >= 90:
		assessment = "EXCELLENT: The contracts are highly complete. An LLM can confidently generate SQL for most dashboard questions."
	case score >= 75:
		assessment = "GOOD: The contracts are well-structured with minor gaps. LLM can handle common questions but may struggle with edge cases."
	case score >= 60:
		assessment = "FAIR: The contracts have notable gaps. LLM can answer basic questions but will likely fail on complex queries."
	case score >= 40:
		assessment = "POOR: Significant gaps exist. LLM will frequently generate incorrect SQL or misread column semantics."
	default:
		assessment = "INADEQUATE: The contracts have critical gaps. LLM cannot reliably query these tables."
	}

	// Add specific context
	if len(coverage.MissingCanonical) > 0 {
		assessment += fmt.Sprintf(" %d tables publish no canonical query.", len(coverage.MissingCanonical))
	}
	if len(coverage.UndescribedFields) > 0 {
		assessment += fmt.Sprintf(" %d columns have no description.", len(coverage.UndescribedFields))
	}
	if len(disambiguation.ConfusablePairs) > 0 {
		assessment += fmt.Sprintf(" %d table pairs have overlapping descriptions.", len(disambiguation.ConfusablePairs))
	}

	return assessment
}

func getCommitInfo() string {
	cmd := exec.Command("git", "describe", "--always", "--dirty")
	output, err := cmd.Output()
	if err != nil {
		return "unknown"
	}
	return strings.TrimSpace(string(output))
}

func extractTextFromResponse(resp anthropic.MessagesResponse) string {
	for _, block := range resp.Content {
		if block.Type == "text" && block.Text != nil {
			return *block.Text
		}
	}
	return ""
}

