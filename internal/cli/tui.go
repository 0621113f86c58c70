package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/MrLixm/picture-lab-lxm/pkg/asset"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// assetRow is one renderable line of the asset picker, precomputed so View
// stays cheap.
type assetRow struct {
	asset   *asset.Asset
	id      string
	kind    string
	color   string
	authors string
	valid   bool
}

// AssetListModel is the bubbletea model for interactive asset selection.
type AssetListModel struct {
	Rows     []assetRow
	Cursor   int
	Selected *asset.Asset
	Height   int
	Offset   int
}

// NewAssetListModel creates a new asset list model.
func NewAssetListModel(assets []*asset.Asset) AssetListModel {
	rows := make([]assetRow, 0, len(assets))
	for _, a := range assets {
		row := assetRow{asset: a, id: a.ID(), kind: "—", color: "—", authors: "—"}
		if meta, err := a.Metadata(); err == nil {
			row.kind = string(meta.Type)
			row.color = string(meta.PrimaryColor)
			row.authors = strings.Join(meta.Authors, ", ")
			row.valid = meta.Validate() == nil
		}
		rows = append(rows, row)
	}
	return AssetListModel{
		Rows:   rows,
		Cursor: 0,
		Height: 15,
		Offset: 0,
	}
}

func (m AssetListModel) Init() tea.Cmd {
	return nil
}

func (m AssetListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = m.Rows[m.Cursor].asset
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m AssetListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Asset"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		status := iconSuccess
		if !r.valid {
			status = iconWarning
		}

		rows = append(rows, []string{cursor, r.id, r.kind, r.color, r.authors, status})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Asset", "Type", "Color", "Authors", "").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			r := m.Rows[actualIdx]
			isCurrent := actualIdx == m.Cursor

			base := lipgloss.NewStyle()
			if col == 4 {
				base = base.Foreground(colorDim)
			}

			if isCurrent {
				if r.valid {
					if col != 4 {
						return base.Foreground(colorGreen).Bold(true)
					}
					return base.Bold(true)
				}
				return base.Foreground(colorYellow).Bold(true)
			}
			if !r.valid {
				return base.Foreground(colorYellow)
			}
			if col == 1 {
				return base.Foreground(colorWhite)
			}
			return base.Foreground(colorGray)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}

// pickAsset runs the interactive asset picker and returns the selection.
// A nil asset with nil error means the picker was dismissed.
func pickAsset(assets []*asset.Asset) (*asset.Asset, error) {
	program := tea.NewProgram(NewAssetListModel(assets))
	final, err := program.Run()
	if err != nil {
		return nil, err
	}
	model, ok := final.(AssetListModel)
	if !ok {
		return nil, nil
	}
	return model.Selected, nil
}
