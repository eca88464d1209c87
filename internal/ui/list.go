package ui

import (
	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/readerprint/internal/models"
)

var _ list.Item = printerItem{}

// printerItem wraps [models.Printer] to implement [list.Item].
type printerItem struct {
	printer models.Printer
}

func (i printerItem) FilterValue() string { return i.printer.ID + " " + i.printer.Description }

func (i printerItem) Title() string {
	if i.printer.Description != "" {
		return i.printer.Description
	}
	return i.printer.ID
}

func (i printerItem) Description() string {
	return i.printer.ID + " • " + styles.status(i.printer.Status).Render(i.printer.Status)
}
