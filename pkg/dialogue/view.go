package dialogue

// View is the renderable snapshot of a session: the current node's text and
// the choices the player can take, indexed for Advance.
type View struct {
	NodeID   string       `json:"node_id,omitempty"`
	Text     string       `json:"text,omitempty"`
	Choices  []ChoiceView `json:"choices"`
	Finished bool         `json:"finished"`
}

type ChoiceView struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func (t *Tree) View() View {
	v := View{
		Choices:  []ChoiceView{},
		Finished: t.IsFinished(),
	}
	v.NodeID, _ = t.CurrentID()
	if node, ok := t.CurrentNode(); ok {
		v.Text = node.Text
	}
	for i, choice := range t.Choices() {
		v.Choices = append(v.Choices, ChoiceView{Index: i, Text: choice.Text})
	}
	return v
}
