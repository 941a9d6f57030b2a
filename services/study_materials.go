package services

import (
	"context"
	"fmt"
)

const summaryPromptTemplate = `You are an educational assistant helping teachers create study materials.

Based on this lecture transcription, create a comprehensive summary with key points that students can use for studying.

Transcription:
%s

Please provide:
1. A brief overview (2-3 sentences)
2. Key concepts and main points (bullet points)
3. Important definitions or terms mentioned
4. Any examples or case studies discussed

Format the response in a clear, student-friendly way. Respond in the same language as the transcription.`

const studyMaterialsPromptTemplate = `You are an educational assistant helping teachers create comprehensive study materials.

Based on this lecture transcription, create detailed study materials for students.

Transcription:
%s

Please provide:
1. Detailed notes organized by topic
2. Key takeaways and learning objectives
3. Discussion questions for deeper understanding
4. Suggested areas for further study or research
5. Practice questions or review items (if applicable)

Format the response in a well-structured, comprehensive way that students can use for exam preparation and deeper learning. Respond in the same language as the transcription.`

// StudyMaterialService derives a summary and long-form study materials from
// a lecture transcription.
type StudyMaterialService struct {
	generative Generative
}

func NewStudyMaterialService(generative Generative) *StudyMaterialService {
	return &StudyMaterialService{generative: generative}
}

func (s *StudyMaterialService) GenerateSummary(ctx context.Context, transcription string) (string, error) {
	summary, err := s.generative.Complete(ctx, fmt.Sprintf(summaryPromptTemplate, transcription))
	if err != nil {
		return "", &GenerativeServiceError{Err: fmt.Errorf("summary generation: %w", err)}
	}
	return summary, nil
}

func (s *StudyMaterialService) GenerateStudyMaterials(ctx context.Context, transcription string) (string, error) {
	materials, err := s.generative.Complete(ctx, fmt.Sprintf(studyMaterialsPromptTemplate, transcription))
	if err != nil {
		return "", &GenerativeServiceError{Err: fmt.Errorf("study materials generation: %w", err)}
	}
	return materials, nil
}
