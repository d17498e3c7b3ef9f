// Copyright (C) 2026 OpenFields Contributors
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE file for the full license text.

package main

import (
	"sort"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/openfields/uaparse/internal/analyzer"
	"github.com/openfields/uaparse/internal/field"
)

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(1, 0, 0, 0)

// resultModel is the bubbletea Model that renders one Result as a
// scrollable field/value table.
type resultModel struct {
	table table.Model
}

func newResultModel(r analyzer.Result, showRuleIDs bool) resultModel {
	names := r.AllFieldNames()
	sort.Strings(names)

	columns := []table.Column{
		{Title: "Field", Width: 32},
		{Title: "Value", Width: 40},
	}
	if showRuleIDs {
		columns = append(columns, table.Column{Title: "Rule", Width: 24})
	}

	m := r.ToMap()
	rows := make([]table.Row, 0, len(names))
	for _, n := range names {
		row := table.Row{n, m[n]}
		if showRuleIDs {
			row = append(row, r.RuleID(field.Field(n)))
		}
		rows = append(rows, row)
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(len(rows)+1),
	)

	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(styles)

	return resultModel{table: t}
}

func (m resultModel) Init() tea.Cmd { return nil }

func (m resultModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m resultModel) View() string {
	return m.table.View() + helpStyle.Render("↑/↓ scroll · q to quit")
}
