package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"ai_quiz_backend/internal/llm"
	"ai_quiz_backend/internal/model"
	"ai_quiz_backend/internal/util"
	"ai_quiz_backend/pkg/monitoring"
)

// SkippedSentinel is the literal error recorded on both backend slots when an
// operator bypasses AI validation. Review tooling matches on this exact
// string to tell manual entries apart from genuine disagreements.
const SkippedSentinel = "AI validation skipped by user"

// rawContentLimit bounds how much unparseable model output is kept for
// diagnostics.
const rawContentLimit = 500

// QuestionDraft is the authoring-time input to validation: options already
// parsed and structurally valid.
type QuestionDraft struct {
	QuestionText  string
	OptionsText   string
	ResponseType  model.ResponseType
	ExpectedCount *int
	CorrectAnswer string // stored answer, optional
}

// QuizContext carries optional subject hints into the prompt.
type QuizContext struct {
	TopicDomain   string
	TargetLevel   string
	CertReference string
}

// ModelVerdict is the structured answer one backend returns.
type ModelVerdict struct {
	YourAnswer       string            `json:"your_answer"`
	Confidence       string            `json:"confidence"`
	AgreesWithStored *bool             `json:"agrees_with_stored"`
	Explanation      string            `json:"explanation"`
	WhyWrong         map[string]string `json:"why_wrong"`
	KeyConcept       string            `json:"key_concept"`
	References       []string          `json:"references"`
	Concerns         string            `json:"concerns,omitempty"`
}

// BackendResult is one backend's slot in the stored validation payload.
type BackendResult struct {
	Success    bool          `json:"success"`
	Model      string        `json:"model"`
	Data       *ModelVerdict `json:"data,omitempty"`
	Error      string        `json:"error,omitempty"`
	RawContent string        `json:"raw_content,omitempty"`
}

// ConsensusResult is the full outcome of a dual-model validation run. Its
// JSON form is persisted verbatim as the question's validation payload.
type ConsensusResult struct {
	BackendA        BackendResult `json:"backendA"`
	BackendB        BackendResult `json:"backendB"`
	AgreementCount  int           `json:"agreement_count"`
	ConsensusAnswer string        `json:"consensus_answer"`
	AllAgree        bool          `json:"all_agree"`
	ManualEntry     bool          `json:"manual_entry,omitempty"`
	SkippedAI       bool          `json:"skipped_ai,omitempty"`
}

// ValidationService cross-checks a question draft against two independent
// reasoning backends and computes the agreement decision.
type ValidationService struct {
	mu       sync.RWMutex
	backendA llm.Client
	backendB llm.Client
}

func NewValidationService(backendA, backendB llm.Client) *ValidationService {
	return &ValidationService{backendA: backendA, backendB: backendB}
}

// SetBackends swaps the backend clients, used by config hot-reload.
func (s *ValidationService) SetBackends(backendA, backendB llm.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.backendA = backendA
	s.backendB = backendB
}

func (s *ValidationService) clients() (llm.Client, llm.Client) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.backendA, s.backendB
}

// Validate fans out to both backends concurrently, awaits both, and computes
// the consensus. A backend failure never aborts the run; the result is
// always complete.
func (s *ValidationService) Validate(ctx context.Context, draft QuestionDraft, quiz *QuizContext) ConsensusResult {
	prompt := buildValidationPrompt(draft, quiz)
	backendA, backendB := s.clients()

	var wg sync.WaitGroup
	var resA, resB BackendResult

	wg.Add(2)
	go func() {
		defer wg.Done()
		resA = callBackend(ctx, backendA, prompt)
	}()
	go func() {
		defer wg.Done()
		resB = callBackend(ctx, backendB, prompt)
	}()
	wg.Wait()

	result := computeConsensus(resA, resB, draft.CorrectAnswer)

	outcome := "conflict"
	if result.AllAgree {
		outcome = "agree"
	}
	monitoring.ValidationCounter.WithLabelValues(outcome).Inc()

	return result
}

// SkippedValidation synthesizes the placeholder payload for a question whose
// author bypassed AI validation. Downstream treats it exactly like a
// disagreement: the question is always flagged.
func (s *ValidationService) SkippedValidation(draft QuestionDraft) ConsensusResult {
	backendA, backendB := s.clients()
	monitoring.ValidationCounter.WithLabelValues("manual").Inc()
	return ConsensusResult{
		BackendA:        BackendResult{Success: false, Model: clientName(backendA, "modelA"), Error: SkippedSentinel},
		BackendB:        BackendResult{Success: false, Model: clientName(backendB, "modelB"), Error: SkippedSentinel},
		AgreementCount:  0,
		ConsensusAnswer: util.NormalizeAnswer(draft.CorrectAnswer),
		AllAgree:        false,
		ManualEntry:     true,
		SkippedAI:       true,
	}
}

func clientName(c llm.Client, fallback string) string {
	if c == nil {
		return fallback
	}
	if name := c.Name(); name != "" {
		return name
	}
	return fallback
}

func callBackend(ctx context.Context, client llm.Client, prompt string) BackendResult {
	res := BackendResult{Model: clientName(client, "unknown")}
	if client == nil {
		res.Error = "backend not configured"
		return res
	}

	content, err := client.Complete(ctx, prompt)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	raw, ok := extractJSON(content)
	if !ok {
		res.Error = "could not extract valid JSON from response"
		res.RawContent = truncate(content, rawContentLimit)
		return res
	}

	var verdict ModelVerdict
	if err := json.Unmarshal([]byte(raw), &verdict); err != nil {
		res.Error = "could not extract valid JSON from response"
		res.RawContent = truncate(content, rawContentLimit)
		return res
	}

	res.Success = true
	res.Data = &verdict
	return res
}

// extractJSON recovers a JSON object from model output that may wrap it in
// prose. First the whole text is tried; on failure the scan starts at the
// first '{' and tracks brace depth until it returns to zero.
func extractJSON(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return trimmed, true
	}

	start := strings.Index(text, "{")
	if start == -1 {
		return "", false
	}

	depth := 0
	for i := start; i < len(text); i++ {
		switch text[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				candidate := text[start : i+1]
				if json.Valid([]byte(candidate)) {
					return candidate, true
				}
				return "", false
			}
		}
	}
	return "", false
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit]
}

// computeConsensus applies the agreement rules over whichever backends
// succeeded, optionally against a previously stored answer. Answers compare
// by normalized letter-set equality.
func computeConsensus(resA, resB BackendResult, storedAnswer string) ConsensusResult {
	storedNorm := util.NormalizeAnswer(storedAnswer)

	var answers []string
	matches := 0
	for _, res := range []*BackendResult{&resA, &resB} {
		if !res.Success || res.Data == nil {
			continue
		}
		ans := util.NormalizeAnswer(res.Data.YourAnswer)
		answers = append(answers, ans)
		if storedNorm != "" {
			agrees := ans == storedNorm
			res.Data.AgreesWithStored = &agrees
			if agrees {
				matches++
			}
		}
	}

	result := ConsensusResult{
		BackendA:        resA,
		BackendB:        resB,
		ConsensusAnswer: storedNorm,
	}

	bothAnswered := len(answers) == 2
	bothEqual := bothAnswered && answers[0] == answers[1]

	if storedNorm != "" {
		result.AgreementCount = matches
		result.AllAgree = bothAnswered && matches == 2
		return result
	}

	if bothEqual {
		result.AllAgree = true
		result.AgreementCount = 2
		result.ConsensusAnswer = answers[0]
		return result
	}

	// Disagreement or a missing backend: fall back to the first successful
	// answer, empty when nothing succeeded.
	if len(answers) > 0 {
		result.ConsensusAnswer = answers[0]
	}
	return result
}

// IsManualEntry applies the review-tooling detection rule to a stored
// payload: manual iff skipped_ai or manual_entry is set, or either backend
// failed with the skip sentinel.
func IsManualEntry(result ConsensusResult) bool {
	return result.SkippedAI || result.ManualEntry ||
		result.BackendA.Error == SkippedSentinel ||
		result.BackendB.Error == SkippedSentinel
}

func buildValidationPrompt(draft QuestionDraft, quiz *QuizContext) string {
	var b strings.Builder

	if quiz != nil {
		topic := quiz.TopicDomain
		if topic == "" {
			topic = "this subject"
		}
		level := quiz.TargetLevel
		if level == "" {
			level = "intermediate"
		}
		fmt.Fprintf(&b, "You are an expert in %s at the %s level.\n", topic, level)
		if quiz.CertReference != "" {
			fmt.Fprintf(&b, "This is related to %s.\n", quiz.CertReference)
		}
	}

	b.WriteString("Analyze the following question and provide a comprehensive educational response:\n\n")
	fmt.Fprintf(&b, "QUESTION:\n%s\n\n", draft.QuestionText)
	fmt.Fprintf(&b, "OPTIONS:\n%s\n\n", draft.OptionsText)
	fmt.Fprintf(&b, "RESPONSE TYPE: %s", draft.ResponseType)
	if draft.ResponseType == model.ResponseMultiple && draft.ExpectedCount != nil {
		fmt.Fprintf(&b, "\nEXPECTED SELECTIONS: %d", *draft.ExpectedCount)
	}
	if draft.CorrectAnswer != "" {
		fmt.Fprintf(&b, "\n\nSTORED ANSWER (for comparison): %s", draft.CorrectAnswer)
	}

	b.WriteString(`

Your task:
1. Determine the correct answer(s) based on your expertise
2. Provide a detailed explanation of WHY the correct answer is correct
3. Explain WHY each wrong option is incorrect
4. Identify the key concept being tested
5. Provide references or documentation sources
6. If a stored answer is provided, compare with it

CRITICAL: Respond with ONLY valid JSON, no additional text before or after.

JSON format:
{
  "your_answer": "A" or "A,B,C",
  "confidence": "high" or "medium" or "low",
  "agrees_with_stored": true or false or null,
  "explanation": "Full explanation of why the correct answer is right (2-3 sentences)",
  "why_wrong": {
    "B": "Explanation of why B is wrong"
  },
  "key_concept": "One-sentence main takeaway or concept being tested",
  "references": ["Specific documentation URL or source 1", "Source 2"],
  "concerns": "Any issues with question quality or null if none"
}

Remember: ONLY return the JSON object, nothing else.`)

	return b.String()
}

// StoredExplanation is one backend's explanation block extracted from a
// question's validation payload for post-answer display.
type StoredExplanation struct {
	Model       string            `json:"model"`
	Explanation string            `json:"explanation"`
	KeyConcept  string            `json:"keyConcept"`
	References  []string          `json:"references"`
	WhyWrong    map[string]string `json:"whyWrong"`
}

// ExtractExplanations pulls whichever backend explanations succeeded out of
// a stored validation payload.
func ExtractExplanations(validationData json.RawMessage) []StoredExplanation {
	if len(validationData) == 0 {
		return nil
	}

	var result ConsensusResult
	if err := json.Unmarshal(validationData, &result); err != nil {
		return nil
	}

	var out []StoredExplanation
	for _, res := range []BackendResult{result.BackendA, result.BackendB} {
		if !res.Success || res.Data == nil {
			continue
		}
		out = append(out, StoredExplanation{
			Model:       res.Model,
			Explanation: res.Data.Explanation,
			KeyConcept:  res.Data.KeyConcept,
			References:  res.Data.References,
			WhyWrong:    res.Data.WhyWrong,
		})
	}
	return out
}
