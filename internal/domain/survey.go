package domain

type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MC"
	QuestionText           QuestionType = "TXT"
)

type Choice struct {
	ID   int64  `json:"id"`
	Text string `json:"choice_text"`
}

type Question struct {
	ID      int64        `json:"id"`
	Text    string       `json:"question_text"`
	Type    QuestionType `json:"question_type"`
	Choices []Choice     `json:"choices,omitempty"`
}

type Survey struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions,omitempty"`
}

func (s Survey) Identity() int64 { return s.ID }

func (s Survey) Question(id int64) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

func (q Question) HasChoice(id int64) bool {
	for _, c := range q.Choices {
		if c.ID == id {
			return true
		}
	}
	return false
}

// Answer is one entry of a survey response. Exactly one of ChoiceID and
// AnswerText is set, depending on the question type.
type Answer struct {
	QuestionID int64   `json:"question_id"`
	ChoiceID   *int64  `json:"choice_id,omitempty"`
	AnswerText *string `json:"answer_text,omitempty"`
}

type SurveyResponse struct {
	Survey  int64    `json:"survey"`
	Answers []Answer `json:"answers"`
}
