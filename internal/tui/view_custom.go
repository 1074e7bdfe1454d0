package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sant0-9/promptfmt/internal/formats"
)

func (a *App) openDialog() tea.Cmd {
	s := a.state
	s.nameInput.Reset()
	s.instrInput.Reset()
	s.dialogError = nil
	s.saveToLibrary = false
	s.dialogField = fieldName
	s.instrInput.Blur()
	a.show(viewCustom)
	s.nameInput.Focus()
	return textinput.Blink
}

func (a *App) closeDialog() {
	s := a.state
	s.nameInput.Blur()
	s.instrInput.Blur()
	a.show(viewForm)
}

func (a *App) focusField(f dialogField) tea.Cmd {
	s := a.state
	s.dialogField = f
	if f == fieldName {
		s.instrInput.Blur()
		return s.nameInput.Focus()
	}
	s.nameInput.Blur()
	return s.instrInput.Focus()
}

func (a *App) handleCustomKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	s := a.state

	switch {
	case key.Matches(msg, keys.Back):
		a.closeDialog()
		return nil, true
	case key.Matches(msg, keys.Tab), msg.String() == "shift+tab":
		return a.focusField(1 - s.dialogField), true
	case key.Matches(msg, keys.Library):
		s.saveToLibrary = !s.saveToLibrary
		return nil, true
	case key.Matches(msg, keys.Convert):
		return a.addCustom(), true
	case key.Matches(msg, keys.Enter) && s.dialogField == fieldName:
		return a.focusField(fieldInstructions), true
	}
	return nil, false
}

// addCustom registers the dialog's format and selects it.
func (a *App) addCustom() tea.Cmd {
	s := a.state

	spec, err := s.registry.Add(s.nameInput.Value(), s.instrInput.Value())
	if err != nil {
		s.dialogError = err
		return nil
	}

	a.log.Info("custom format added", "name", spec.Name, "library", s.saveToLibrary)
	save := s.saveToLibrary && s.library != nil
	a.closeDialog()
	s.notice = fmt.Sprintf("Added %q", spec.Name)
	s.cursor = len(s.registry.All()) - 1

	if save {
		return a.saveFormat(spec)
	}
	return nil
}

func (a *App) renderCustom() string {
	st := a.styles
	s := a.state
	w := a.boxWidth(60)
	var b strings.Builder

	b.WriteString(a.center(st.Logo.Render("Add Custom Format")))
	b.WriteString("\n\n")
	b.WriteString(a.center(st.Subtitle.Render("Name the format and describe how the output should look")))
	b.WriteString("\n\n")

	nameBox := st.Box.Copy().Width(w)
	instrBox := st.Box.Copy().Width(w)
	if s.dialogField == fieldName {
		nameBox = nameBox.BorderForeground(st.Palette.Primary)
	} else {
		instrBox = instrBox.BorderForeground(st.Palette.Primary)
	}

	b.WriteString(a.center(st.Title.Render("Format name")))
	b.WriteString("\n")
	b.WriteString(a.center(nameBox.Render(s.nameInput.View())))
	b.WriteString("\n")
	b.WriteString(a.center(st.Title.Render("Instructions")))
	b.WriteString("\n")
	b.WriteString(a.center(instrBox.Render(s.instrInput.View())))
	b.WriteString("\n\n")

	check := "[ ]"
	if s.saveToLibrary {
		check = "[x]"
	}
	lib := fmt.Sprintf("%s Save to library", check)
	if s.library != nil {
		lib += st.Subtitle.Render("  " + s.library.Dir())
	}
	b.WriteString(a.center(st.Text.Render(lib)))
	b.WriteString("\n\n")

	if s.dialogError != nil {
		b.WriteString(a.center(st.Error.Render(dialogErrorText(s.dialogError))))
		b.WriteString("\n\n")
	}

	status := st.StatusBar.Render("[tab] Switch field  [ctrl+l] Library  [ctrl+s] Add  [esc] Cancel")
	b.WriteString(a.center(status))

	return a.centerVertically(b.String())
}

func dialogErrorText(err error) string {
	switch {
	case errors.Is(err, formats.ErrEmptyField):
		return "Both the name and the instructions are required."
	case errors.Is(err, formats.ErrDuplicate):
		return "A format with this name already exists."
	default:
		return err.Error()
	}
}
