// Package confirm implements the two-step confirmation used before
// destructive actions such as discarding edits or deleting an entry.
package confirm

import "errors"

// ErrWrongStep is returned when an answer arrives for a step that is not
// current.
var ErrWrongStep = errors.New("confirmation is not at that step")

// Step is the position in a two-step confirmation.
type Step int

const (
	Closed Step = iota
	First
	Second
)

// Prompt is the text shown at one step.
type Prompt struct {
	Title string
	Body  string
}

// TwoStep walks Closed -> First -> Second. Only Confirm at Second approves;
// Cancel at any step closes without approving.
type TwoStep struct {
	FirstPrompt  Prompt
	SecondPrompt Prompt

	step Step
}

// New returns a confirmation that asks first, then second.
func New(first, second Prompt) *TwoStep {
	return &TwoStep{FirstPrompt: first, SecondPrompt: second}
}

func (d *TwoStep) Step() Step { return d.step }

func (d *TwoStep) Open() { d.step = First }

func (d *TwoStep) Cancel() { d.step = Closed }

func (d *TwoStep) Continue() error {
	if d.step != First {
		return ErrWrongStep
	}
	d.step = Second
	return nil
}

// Confirm approves and closes. It fails unless the dialog is at Second.
func (d *TwoStep) Confirm() error {
	if d.step != Second {
		return ErrWrongStep
	}
	d.step = Closed
	return nil
}

// Current is the prompt for the current step; zero when closed.
func (d *TwoStep) Current() Prompt {
	switch d.step {
	case First:
		return d.FirstPrompt
	case Second:
		return d.SecondPrompt
	default:
		return Prompt{}
	}
}

// Run drives both steps through ask and reports whether the user approved
// both. Any "no" or error cancels.
func (d *TwoStep) Run(ask func(Prompt) (bool, error)) (bool, error) {
	d.Open()
	for d.step != Closed {
		ok, err := ask(d.Current())
		if err != nil || !ok {
			d.Cancel()
			return false, err
		}
		if d.step == First {
			_ = d.Continue()
			continue
		}
		return true, d.Confirm()
	}
	return false, nil
}
