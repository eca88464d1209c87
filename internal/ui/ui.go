package ui

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/shared"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PrinterListView
	ConfirmView
)

// PrinterLister enumerates print queues. Implemented by services.CUPSService.
type PrinterLister interface {
	List(ctx context.Context) ([]models.Printer, error)
}

// Model is the printer picker state.
type Model struct {
	ctx      context.Context
	lister   PrinterLister
	view     ViewState
	width    int
	height   int
	list     list.Model
	printers []models.Printer
	pending  *models.Printer
	selected *models.Printer
	err      error
	help     help.Model
	keys     keyMap
}

// NewModel creates a picker that enumerates printers with lister.
func NewModel(ctx context.Context, lister PrinterLister) *Model {
	return &Model{
		ctx:    ctx,
		lister: lister,
		view:   LoadingView,
		help:   help.New(),
		keys:   newKeyMap(),
	}
}

// Selected returns the confirmed printer, or nil.
func (m *Model) Selected() *models.Printer { return m.selected }

// Err returns the error that ended the picker, if any.
func (m *Model) Err() error { return m.err }

// Init fetches the printer list.
func (m *Model) Init() tea.Cmd {
	return m.fetchPrinters()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.view == PrinterListView {
			m.list.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				m.err = shared.ErrNoSelection
				return m, tea.Quit
			}
		case PrinterListView:
			return m.handleListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		}
		return m, nil

	case Msg:
		if msg.kind == MsgPrintersFetched {
			return m.handlePrinters(msg.data.(printersFetched))
		}
	}

	if m.view == PrinterListView {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Error: %v", m.err)) + "\n"
	}

	switch m.view {
	case LoadingView:
		return "Fetching available printers...\n"
	case PrinterListView:
		return m.renderList()
	case ConfirmView:
		return m.renderConfirm()
	default:
		return ""
	}
}

func (m *Model) handlePrinters(data printersFetched) (tea.Model, tea.Cmd) {
	if data.err != nil {
		m.err = data.err
		return m, tea.Quit
	}
	if len(data.printers) == 0 {
		m.err = shared.ErrNoPrinters
		return m, tea.Quit
	}

	m.printers = data.printers
	if len(data.printers) == 1 {
		m.pending = &m.printers[0]
		m.view = ConfirmView
		return m, nil
	}

	items := make([]list.Item, len(m.printers))
	for i, p := range m.printers {
		items[i] = printerItem{printer: p}
	}
	m.list = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.list.Title = "Available printers"
	m.list.SetShowHelp(false)
	m.list.SetSize(max(m.width-4, 20), max(m.height-8, 10))
	m.view = PrinterListView
	return m, nil
}

func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	filtering := m.list.FilterState() == list.Filtering

	switch {
	case !filtering && key.Matches(msg, m.keys.quit):
		m.err = shared.ErrNoSelection
		return m, tea.Quit
	case !filtering && key.Matches(msg, m.keys.enter):
		if item, ok := m.list.SelectedItem().(printerItem); ok {
			p := item.printer
			m.pending = &p
			m.view = ConfirmView
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.yes), key.Matches(msg, m.keys.enter):
		m.selected = m.pending
		return m, tea.Quit
	case key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		if len(m.printers) == 1 {
			m.err = shared.ErrNoSelection
			return m, tea.Quit
		}
		m.pending = nil
		m.view = PrinterListView
		return m, nil
	case key.Matches(msg, m.keys.quit):
		m.err = shared.ErrNoSelection
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) fetchPrinters() tea.Cmd {
	return func() tea.Msg {
		printers, err := m.lister.List(m.ctx)
		return printersFetchedMsg(printers, err)
	}
}

func (m *Model) renderList() string {
	helpKeys := []key.Binding{m.keys.up, m.keys.down, m.keys.enter, m.keys.quit}
	return fmt.Sprintf("%s\n\n%s", m.list.View(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConfirm() string {
	p := m.pending
	name := p.Description
	if name == "" {
		name = p.ID
	}

	title := styles.title.Render(fmt.Sprintf("Print to %s?", name))
	info := fmt.Sprintf("Queue: %s\nStatus: %s\n", p.ID, styles.status(p.Status).Render(p.Status))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	return fmt.Sprintf("%s\n%s\n%s", title, info, m.help.ShortHelpView(helpKeys))
}

// PickPrinter runs the picker on in/out and returns the chosen queue ID.
func PickPrinter(ctx context.Context, lister PrinterLister, in io.Reader, out io.Writer) (string, error) {
	m := NewModel(ctx, lister)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	if _, err := p.Run(); err != nil {
		return "", fmt.Errorf("printer picker failed: %w", err)
	}
	if m.err != nil {
		return "", m.err
	}
	if m.selected == nil {
		return "", shared.ErrNoSelection
	}
	return m.selected.ID, nil
}
