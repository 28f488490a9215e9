package domain

// AnswerKind distinguishes how a question's answer arrives in an interactive
// action payload: buttons carry the value directly, selects nest it inside the
// chosen option.
type AnswerKind string

const (
	AnswerKindButton AnswerKind = "button"
	AnswerKindSelect AnswerKind = "select"
)

// Question is one entry of the questionnaire catalog. Positions are 0-based
// and contiguous; Key is the stable identifier used both as the interactive
// callback id and as the key in a user's answers map.
type Question struct {
	Position    int          `json:"position"`
	Key         string       `json:"key"`
	Text        string       `json:"text"`
	Kind        AnswerKind   `json:"kind"`
	Attachments []Attachment `json:"attachments"`
}
