package interview

import "fmt"

// QuestionKind uses the remote service's wire names.
type QuestionKind string

const (
	KindSingle          QuestionKind = "single"
	KindGroupedSingle   QuestionKind = "group_single"
	KindGroupedMultiple QuestionKind = "group_multiple"
)

type Choice struct {
	ID    ChoiceID `json:"id"`
	Label string   `json:"label"`
}

type QuestionItem struct {
	ID      string   `json:"id"`
	Name    string   `json:"name"`
	Choices []Choice `json:"choices"`
}

func (it QuestionItem) hasChoice(c ChoiceID) bool {
	for _, ch := range it.Choices {
		if ch.ID == c {
			return true
		}
	}
	return false
}

// Question is implemented by SingleQuestion, GroupedSingleQuestion and
// GroupedMultipleQuestion only.
type Question interface {
	Kind() QuestionKind
	Prompt() string
	Items() []QuestionItem
	question()
}

// SingleQuestion asks about exactly one item.
type SingleQuestion struct {
	Text string
	Item QuestionItem
}

func (q SingleQuestion) Kind() QuestionKind    { return KindSingle }
func (q SingleQuestion) Prompt() string        { return q.Text }
func (q SingleQuestion) Items() []QuestionItem { return []QuestionItem{q.Item} }
func (SingleQuestion) question()               {}

// GroupedSingleQuestion offers several items of which the user picks one.
type GroupedSingleQuestion struct {
	Text    string
	Options []QuestionItem
}

func (q GroupedSingleQuestion) Kind() QuestionKind    { return KindGroupedSingle }
func (q GroupedSingleQuestion) Prompt() string        { return q.Text }
func (q GroupedSingleQuestion) Items() []QuestionItem { return q.Options }
func (GroupedSingleQuestion) question()               {}

// GroupedMultipleQuestion needs a choice for every item before it can be
// confirmed.
type GroupedMultipleQuestion struct {
	Text    string
	Options []QuestionItem
}

func (q GroupedMultipleQuestion) Kind() QuestionKind    { return KindGroupedMultiple }
func (q GroupedMultipleQuestion) Prompt() string        { return q.Text }
func (q GroupedMultipleQuestion) Items() []QuestionItem { return q.Options }
func (GroupedMultipleQuestion) question()               {}

// NewQuestion builds the variant for kind. Single questions must carry
// exactly one item.
func NewQuestion(kind QuestionKind, text string, items []QuestionItem) (Question, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("question %q has no items", text)
	}
	switch kind {
	case KindSingle:
		if len(items) != 1 {
			return nil, fmt.Errorf("single question carries %d items", len(items))
		}
		return SingleQuestion{Text: text, Item: items[0]}, nil
	case KindGroupedSingle:
		return GroupedSingleQuestion{Text: text, Options: items}, nil
	case KindGroupedMultiple:
		return GroupedMultipleQuestion{Text: text, Options: items}, nil
	default:
		return nil, fmt.Errorf("unknown question type %q", kind)
	}
}

func findItem(q Question, id string) (QuestionItem, bool) {
	for _, it := range q.Items() {
		if it.ID == id {
			return it, true
		}
	}
	return QuestionItem{}, false
}
