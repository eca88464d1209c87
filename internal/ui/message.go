package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/readerprint/internal/models"
)

// MsgKind enumerates all message types in the picker.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgPrintersFetched MsgKind = iota
)

type printersFetched struct {
	printers []models.Printer
	err      error
}

// printersFetchedMsg is the constructor for [MsgPrintersFetched]
func printersFetchedMsg(printers []models.Printer, err error) Msg {
	return Msg{kind: MsgPrintersFetched, data: printersFetched{printers, err}}
}
