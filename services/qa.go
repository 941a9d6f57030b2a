package services

import (
	"context"
	"fmt"
	"strings"

	"course-assistant-platform/internal/logger"
	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Generative produces a completion for a prompt. Implementations own their
// resilience policy (circuit breaking, rate limiting); the QA service only
// distinguishes success from failure.
type Generative interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// NoMaterialsAnswer is the fixed response for a course with nothing indexed
// yet. It is a normal, successful outcome and carries no sources.
const NoMaterialsAnswer = "I don't have any course materials to reference yet. " +
	"Please make sure recordings or materials have been uploaded and processed."

// SourceExcerptLength bounds the citation excerpt returned per source.
const SourceExcerptLength = 200

const qaPromptTemplate = `You are an AI teaching assistant for a course. Answer the student's question based on the course materials provided below.

Course Materials:
%s

Student Question: %s

Instructions:
- Answer the question directly and clearly
- Use information from the course materials provided
- If the answer isn't in the materials, say "I don't have enough information in the course materials to answer that question."
- Be concise but thorough
- Use examples from the materials when relevant
- Respond in the same language as the question

Answer:`

// QAService synthesizes grounded answers from retrieved chunks.
type QAService struct {
	retriever  *Retriever
	generative Generative
	topK       int
}

// NewQAService wires answer synthesis. A non-positive topK falls back to
// DefaultTopK.
func NewQAService(retriever *Retriever, generative Generative, topK int) *QAService {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &QAService{retriever: retriever, generative: generative, topK: topK}
}

// Answer responds to a question about one course, grounded in that course's
// indexed chunks. With nothing indexed it returns the fixed fallback answer
// with empty sources and nil error. Retrieval or generation failures
// propagate as their typed errors so a caller can tell "nothing indexed yet"
// from "the system is broken".
func (s *QAService) Answer(ctx context.Context, courseID primitive.ObjectID, question string) (*models.Answer, error) {
	tracer := otel.Tracer("qa-service")
	ctx, span := tracer.Start(ctx, "rag.answer_question")
	defer span.End()
	span.SetAttributes(attribute.String("rag.course_id", courseID.Hex()))

	chunks, err := s.retriever.Retrieve(ctx, courseID, question, s.topK)
	if err != nil {
		return nil, err
	}

	if len(chunks) == 0 {
		span.SetAttributes(attribute.Bool("rag.no_materials", true))
		return &models.Answer{
			Text:    NoMaterialsAnswer,
			Sources: []models.AnswerSource{},
		}, nil
	}
	span.SetAttributes(attribute.Int("rag.context_chunks", len(chunks)))

	prompt := fmt.Sprintf(qaPromptTemplate, buildContext(chunks), question)

	text, err := s.generative.Complete(ctx, prompt)
	if err != nil {
		return nil, &GenerativeServiceError{Err: err}
	}

	logger.Debug("answer generated",
		"course_id", courseID.Hex(),
		"context_chunks", len(chunks),
		"answer_length", len(text))

	return &models.Answer{
		Text:    strings.TrimSpace(text),
		Sources: buildSources(chunks),
	}, nil
}

// buildContext labels each chunk with a 1-based index matching its citation
// position in the source list.
func buildContext(chunks []models.ScoredChunk) string {
	var b strings.Builder
	for i, sc := range chunks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		fmt.Fprintf(&b, "[%d] %s", i+1, sc.Chunk.Text)
	}
	return b.String()
}

// buildSources is the citation trail: the retrieved chunks in retrieval
// order, texts truncated to a bounded excerpt.
func buildSources(chunks []models.ScoredChunk) []models.AnswerSource {
	sources := make([]models.AnswerSource, len(chunks))
	for i, sc := range chunks {
		sources[i] = models.AnswerSource{
			SourceType: sc.Chunk.SourceType,
			SourceID:   sc.Chunk.SourceID.Hex(),
			Excerpt:    excerpt(sc.Chunk.Text, SourceExcerptLength),
			Metadata:   sc.Chunk.Metadata,
		}
	}
	return sources
}

// excerpt truncates on a rune boundary and appends an ellipsis marker when
// text was cut.
func excerpt(text string, limit int) string {
	if len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !isRuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }
