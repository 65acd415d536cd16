package system

import (
	"fmt"
	"maps"
)

// Dialog results.
const (
	ResultOK     = "OK"
	ResultCancel = "Cancel"
	ResultHelp   = "Help"
	ResultClosed = "" // window closed without a button
)

// Dialog is an edit session over a step's parameters. Edits are held until
// the dialog is closed with OK.
type Dialog struct {
	params  *Parameters
	pending Values
	open    bool
}

// NewDialog opens a dialog on params.
func NewDialog(params *Parameters) *Dialog {
	return &Dialog{params: params, pending: params.Values(), open: true}
}

// Edit changes a pending value. The value is validated when the dialog is
// committed, as a half-typed entry is normal while editing.
func (d *Dialog) Edit(name, value string) error {
	if _, ok := d.params.Get(name); !ok {
		return fmt.Errorf("%w %q", ErrUnknownParameter, name)
	}
	d.pending[name] = value
	return nil
}

// Layout returns the rows to show for the pending values. Selectors that are
// no longer allowed are reset in the pending values.
func (d *Dialog) Layout() Layout {
	l := VisibleRows(d.pending)
	maps.Copy(d.pending, l.Values)
	return l
}

// Pending returns a copy of the uncommitted values.
func (d *Dialog) Pending() Values {
	return maps.Clone(d.pending)
}

// Open reports whether the dialog is still showing.
func (d *Dialog) Open() bool { return d.open }

// Close handles the button that closed the dialog. OK commits every pending
// value and closes the dialog unless a value is rejected. Cancel or closing
// the window discards the edits. Help leaves the dialog open and returns the
// help text.
func (d *Dialog) Close(result string) (string, error) {
	switch result {
	case ResultHelp:
		return HelpText, nil
	case ResultCancel, ResultClosed:
		d.open = false
		d.pending = d.params.Values()
		return "", nil
	case ResultOK:
		d.Layout()
		// The dialog stays open on a rejected value so it can be corrected.
		if err := d.params.Update(d.pending); err != nil {
			return "", fmt.Errorf("commit dialog: %w", err)
		}
		d.open = false
		return "", nil
	default:
		d.open = false
		return "", fmt.Errorf("don't recognize dialog result %q", result)
	}
}
