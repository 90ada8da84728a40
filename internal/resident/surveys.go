package resident

import (
	"context"
	"sort"

	"github.com/apartment-mgmt/resident/internal/domain"
)

// AnswerInput is what the resident picked or typed for one question.
// Choice is used for multiple choice questions, Text for free text ones.
type AnswerInput struct {
	Choice int64
	Text   string
}

func (s *Service) Survey(ctx context.Context, id int64) (domain.Survey, error) {
	return s.backend.GetSurvey(ctx, id)
}

// FormatAnswers turns the inputs keyed by question id into the response
// payload, ordered by question id. Inputs for questions the survey does not
// have, or of an unknown type, are dropped, as are multiple choice inputs
// with nothing picked. Text answers are sent as typed.
func FormatAnswers(survey domain.Survey, inputs map[int64]AnswerInput) domain.SurveyResponse {
	ids := make([]int64, 0, len(inputs))
	for id := range inputs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	resp := domain.SurveyResponse{Survey: survey.ID, Answers: make([]domain.Answer, 0, len(ids))}
	for _, id := range ids {
		q, ok := survey.Question(id)
		if !ok {
			continue
		}
		in := inputs[id]
		switch q.Type {
		case domain.QuestionMultipleChoice:
			if in.Choice == 0 {
				continue
			}
			choice := in.Choice
			resp.Answers = append(resp.Answers, domain.Answer{QuestionID: q.ID, ChoiceID: &choice})
		case domain.QuestionText:
			text := in.Text
			resp.Answers = append(resp.Answers, domain.Answer{QuestionID: q.ID, AnswerText: &text})
		}
	}
	return resp
}

// SubmitSurvey sends the formatted answers and sends the resident back to
// where they came from.
func (s *Service) SubmitSurvey(ctx context.Context, survey domain.Survey, inputs map[int64]AnswerInput) (Step, error) {
	resp := FormatAnswers(survey, inputs)
	if err := s.backend.SubmitSurveyResponse(ctx, survey.ID, resp); err != nil {
		return "", err
	}
	s.log.InfoContext(ctx, "survey submitted", "survey_id", survey.ID, "answers", len(resp.Answers))
	return StepBack, nil
}
