package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"course-assistant-platform/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeGenerative struct {
	answer  string
	err     error
	prompts []string
}

func (f *fakeGenerative) Complete(ctx context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func seededQAService(t *testing.T, gen *fakeGenerative, courseID primitive.ObjectID, texts []string) *QAService {
	t.Helper()
	store := NewMemoryChunkStore()
	source := primitive.NewObjectID()
	var rows []models.DocumentChunk
	for i, text := range texts {
		rows = append(rows, models.DocumentChunk{
			CourseID:   courseID,
			SourceType: models.SourceTypeMaterial,
			SourceID:   source,
			ChunkIndex: i,
			Text:       text,
			Vector:     []float32{5, 1},
			Metadata: models.Metadata{
				models.MetaKeyTitle: models.MetaStr("Lecture 1"),
			},
		})
	}
	if err := store.Insert(context.Background(), rows); err != nil {
		t.Fatalf("insert: %v", err)
	}
	retriever := NewRetriever(&fakeEmbedder{}, store)
	return NewQAService(retriever, gen, DefaultTopK)
}

func TestAnswerNoMaterials(t *testing.T) {
	gen := &fakeGenerative{answer: "should not be called"}
	qa := seededQAService(t, gen, primitive.NewObjectID(), nil)

	answer, err := qa.Answer(context.Background(), primitive.NewObjectID(), "what is recursion?")
	if err != nil {
		t.Fatalf("empty course must not error: %v", err)
	}
	if answer.Text != NoMaterialsAnswer {
		t.Errorf("answer = %q, want fallback", answer.Text)
	}
	if answer.Sources == nil || len(answer.Sources) != 0 {
		t.Errorf("sources = %v, want empty non-nil slice", answer.Sources)
	}
	if len(gen.prompts) != 0 {
		t.Error("generative model must not be called with nothing indexed")
	}
}

func TestAnswerGroundedWithSources(t *testing.T) {
	courseID := primitive.NewObjectID()
	gen := &fakeGenerative{answer: "Recursion is a function calling itself."}
	qa := seededQAService(t, gen, courseID, []string{
		"Recursion is when a function calls itself.",
		"A base case terminates the recursion.",
		"Stack frames track each recursive call.",
	})

	answer, err := qa.Answer(context.Background(), courseID, "what is recursion?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Text != gen.answer {
		t.Errorf("answer = %q", answer.Text)
	}
	if len(answer.Sources) != 3 {
		t.Fatalf("got %d sources, want 3", len(answer.Sources))
	}

	// Sources follow retrieval order (tie-broken by chunk index here).
	for i, src := range answer.Sources {
		if src.SourceType != models.SourceTypeMaterial {
			t.Errorf("source %d type = %q", i, src.SourceType)
		}
		if src.Metadata[models.MetaKeyTitle].Str != "Lecture 1" {
			t.Errorf("source %d metadata lost", i)
		}
	}
	if !strings.HasPrefix(answer.Sources[0].Excerpt, "Recursion is when") {
		t.Errorf("first source excerpt = %q", answer.Sources[0].Excerpt)
	}

	// The prompt carries the question and the numbered context.
	if len(gen.prompts) != 1 {
		t.Fatalf("generative called %d times, want 1", len(gen.prompts))
	}
	prompt := gen.prompts[0]
	if !strings.Contains(prompt, "what is recursion?") {
		t.Error("prompt missing the question")
	}
	if !strings.Contains(prompt, "[1] Recursion is when") || !strings.Contains(prompt, "[3] ") {
		t.Error("prompt missing numbered context chunks")
	}
}

func TestAnswerExcerptTruncation(t *testing.T) {
	courseID := primitive.NewObjectID()
	long := strings.Repeat("This chunk text keeps going and going. ", 20)
	gen := &fakeGenerative{answer: "ok"}
	qa := seededQAService(t, gen, courseID, []string{long})

	answer, err := qa.Answer(context.Background(), courseID, "question")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	excerpt := answer.Sources[0].Excerpt
	if !strings.HasSuffix(excerpt, "...") {
		t.Errorf("long excerpt not marked truncated: %q", excerpt)
	}
	if len(excerpt) > SourceExcerptLength+3 {
		t.Errorf("excerpt length %d exceeds limit", len(excerpt))
	}
	if !strings.HasPrefix(long, strings.TrimSuffix(excerpt, "...")) {
		t.Error("excerpt is not a prefix of the chunk text")
	}
}

func TestAnswerGenerativeFailure(t *testing.T) {
	courseID := primitive.NewObjectID()
	gen := &fakeGenerative{err: errors.New("model overloaded")}
	qa := seededQAService(t, gen, courseID, []string{"Some indexed content."})

	_, err := qa.Answer(context.Background(), courseID, "question")
	if err == nil {
		t.Fatal("expected error")
	}
	var genErr *GenerativeServiceError
	if !errors.As(err, &genErr) {
		t.Fatalf("error type = %T, want *GenerativeServiceError", err)
	}
}

func TestAnswerRetrievalFailure(t *testing.T) {
	retriever := NewRetriever(&fakeEmbedder{failOn: 1}, NewMemoryChunkStore())
	qa := NewQAService(retriever, &fakeGenerative{answer: "unused"}, DefaultTopK)

	_, err := qa.Answer(context.Background(), primitive.NewObjectID(), "question")
	if err == nil {
		t.Fatal("expected error")
	}
	var embErr *EmbeddingServiceError
	if !errors.As(err, &embErr) {
		t.Fatalf("error type = %T, want *EmbeddingServiceError", err)
	}
}
